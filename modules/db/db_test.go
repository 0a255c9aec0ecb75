package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/test_utils"
	"gauge-automation/modules/aggregate"
	"gauge-automation/modules/db"
	"gauge-automation/modules/db/gauges"
	"gauge-automation/modules/db/gauges/gauge_rounds"
	"gauge-automation/modules/db/gauges/vote_weights"
	"gauge-automation/modules/export"
	"gauge-automation/modules/rounds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	d := db.New(db.Config{})
	assert.ErrorIs(t, d.Init(), errors.ConfigurationError)
	assert.NoError(t, d.Stop())
}

func setup(t *testing.T) (*gauges.GaugeDb, gauge_rounds.GaugeRounds, vote_weights.Store) {
	uri := os.Getenv("MONGO_URL")
	if uri == "" {
		t.Skip("MONGO_URL not set")
	}

	d := db.New(db.Config{URI: uri, Timeout: 5 * time.Second})
	gdb := gauges.New(d, "gauge-automation-test")
	r := gauge_rounds.New(gdb)
	vw := vote_weights.New(gdb)
	test_utils.RunPlugin(t, aggregate.New([]aggregate.Plugin{d, gdb, r, vw}))
	require.NoError(t, gdb.Nuke())
	return gdb, r, vw
}

func TestRounds(t *testing.T) {
	_, store, _ := setup(t)
	ctx := context.Background()

	none, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, none.IsNone())

	first := &rounds.Round{
		TokenToDistribute: "1000",
		StartTimestamp:    1737014400,
		EndTimestamp:      1737057600,
		SnapshotBlock:     1234,
		Gauges:            []rounds.Gauge{{PoolName: "PoolA", PoolID: "0xa"}},
	}
	second := *first
	second.StartTimestamp += 14 * 24 * 3600
	second.EndTimestamp += 14 * 24 * 3600
	require.NoError(t, store.Upsert(ctx, first))
	require.NoError(t, store.Upsert(ctx, &second))

	first.Gauges[0].WeeklyAmountFromGauge = "500"
	require.NoError(t, store.Upsert(ctx, first))

	got, err := store.Get(ctx, first.EndTimestamp)
	require.NoError(t, err)
	assert.Equal(t, "500", got.Unwrap().Gauges[0].WeeklyAmountFromGauge)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.EndTimestamp, latest.Unwrap().EndTimestamp)
}

func TestVoteWeights(t *testing.T) {
	_, _, store := setup(t)
	ctx := context.Background()

	doc := vote_weights.VoteWeights{
		ProposalID: "0xprop",
		Space:      "beets-gauges.eth",
		Rows: []export.VoteWeightRow{
			{PoolName: "PoolA", Wallet: "0x1", AbsoluteVotes: 60, ShareVote: 1},
		},
	}
	require.NoError(t, store.Replace(ctx, doc))

	doc.Rows = append(doc.Rows, export.VoteWeightRow{PoolName: "PoolB", Wallet: "0x2", AbsoluteVotes: 40, ShareVote: 1})
	require.NoError(t, store.Replace(ctx, doc))

	got, err := store.Get(ctx, "0xprop")
	require.NoError(t, err)
	assert.Len(t, got.Unwrap().Rows, 2)

	missing, err := store.Get(ctx, "0xother")
	require.NoError(t, err)
	assert.True(t, missing.IsNone())
}
