package main

import (
	"context"
	"testing"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/rounds"

	"github.com/chebyrash/promise"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRounds struct {
	stored []rounds.Round
}

func (f *fakeRounds) Init() error                  { return nil }
func (f *fakeRounds) Start() *promise.Promise[any] { return utils.PromiseResolve[any](nil) }
func (f *fakeRounds) Stop() error                  { return nil }

func (f *fakeRounds) Upsert(ctx context.Context, r *rounds.Round) error {
	f.stored = append(f.stored, *r)
	return nil
}

func (f *fakeRounds) Get(ctx context.Context, end int64) (optional.Option[rounds.Round], error) {
	for _, r := range f.stored {
		if r.EndTimestamp == end {
			return optional.Some(r), nil
		}
	}
	return optional.None[rounds.Round](), nil
}

func (f *fakeRounds) Latest(ctx context.Context) (optional.Option[rounds.Round], error) {
	if len(f.stored) == 0 {
		return optional.None[rounds.Round](), nil
	}
	latest := f.stored[0]
	for _, r := range f.stored[1:] {
		if r.EndTimestamp > latest.EndTimestamp {
			latest = r
		}
	}
	return optional.Some(latest), nil
}

func TestLoadRound(t *testing.T) {
	t.Setenv("VOTE_END_TIMESTAMP", "")
	ctx := context.Background()
	a := &app{dataDir: t.TempDir(), log: zaptest.NewLogger(t)}

	onDisk := &rounds.Round{EndTimestamp: 300, TokenToDistribute: "1"}
	require.NoError(t, rounds.Save(a.dataDir, onDisk))
	fake := &fakeRounds{stored: []rounds.Round{
		{EndTimestamp: 100, TokenToDistribute: "100"},
		{EndTimestamp: 200, TokenToDistribute: "200"},
	}}
	st := optional.Some(store{rounds: fake})

	r, err := a.loadRound(ctx, "", st)
	require.NoError(t, err)
	assert.Equal(t, int64(200), r.EndTimestamp)

	r, err = a.loadRound(ctx, "100", st)
	require.NoError(t, err)
	assert.Equal(t, "100", r.TokenToDistribute)

	// the data dir wins over the store
	r, err = a.loadRound(ctx, "300", st)
	require.NoError(t, err)
	assert.Equal(t, "1", r.TokenToDistribute)

	_, err = a.loadRound(ctx, "400", st)
	require.ErrorIs(t, err, errors.NotFoundError)

	_, err = a.loadRound(ctx, "", optional.Some(store{rounds: &fakeRounds{}}))
	require.ErrorIs(t, err, errors.NotFoundError)
}

func TestLoadRoundWithoutStore(t *testing.T) {
	t.Setenv("VOTE_END_TIMESTAMP", "")
	ctx := context.Background()
	a := &app{dataDir: t.TempDir(), log: zaptest.NewLogger(t)}

	_, err := a.loadRound(ctx, "", optional.None[store]())
	require.ErrorIs(t, err, errors.ConfigurationError)

	_, err = a.loadRound(ctx, "100", optional.None[store]())
	require.ErrorIs(t, err, errors.NotFoundError)

	t.Setenv("VOTE_END_TIMESTAMP", "100")
	_, err = a.loadRound(ctx, "", optional.None[store]())
	require.ErrorIs(t, err, errors.NotFoundError)
}

func TestRoundCommandsRequireEnd(t *testing.T) {
	t.Setenv("VOTE_END_TIMESTAMP", "")
	t.Setenv("SAFE_ADDRESS", msig)

	for _, name := range []string{"calculate-round", "reward-payload"} {
		name := name
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, t.TempDir(), name)
			require.ErrorIs(t, err, errors.ConfigurationError)
			assert.Contains(t, err.Error(), "VOTE_END_TIMESTAMP")
		})
	}
}
