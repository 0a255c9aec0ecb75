package export_test

import (
	goerrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gauge-automation/lib/errors"
	"gauge-automation/modules/allocation"
	"gauge-automation/modules/export"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result() *allocation.Result {
	return &allocation.Result{
		ProposalID: "0xprop",
		Choices: []allocation.ChoiceResult{
			{Label: "Pool, A", Index: 1, Score: 60, Shares: []allocation.VoteShare{
				{Voter: "0xA", AbsoluteVotes: 10, VoteShare: 1.0 / 6},
				{Voter: "0xZ", AbsoluteVotes: 0, VoteShare: 0},
				{Voter: "0xB", AbsoluteVotes: 50, VoteShare: 5.0 / 6},
			}},
			{Label: "PoolB", Index: 2, Score: 40, Shares: []allocation.VoteShare{
				{Voter: "0xA", AbsoluteVotes: 10, VoteShare: 0.25},
				{Voter: "0xC", AbsoluteVotes: 30, VoteShare: 0.75},
			}},
		},
	}
}

func TestVoteWeightsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "vote-weights.csv")
	rows := export.VoteWeightRows(result())
	require.Len(t, rows, 4)
	require.NoError(t, export.WriteVoteWeights(path, rows))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "poolName,wallet,absoluteVotes,shareVote\n"+
		"Pool A,0xA,10,0.16666666666666666\n"+
		"Pool A,0xB,50,0.8333333333333334\n"+
		"PoolB,0xA,10,0.25\n"+
		"PoolB,0xC,30,0.75\n", string(buf))

	back, err := export.ReadVoteWeights(path)
	require.NoError(t, err)
	assert.Equal(t, rows, back)

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVoteWeightsFileUnquoted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vote-weights.csv")
	require.NoError(t, export.WriteVoteWeights(path, []export.VoteWeightRow{
		{PoolName: `Pool "Q", stable`, Wallet: "0xA", AbsoluteVotes: 1, ShareVote: 1},
		{PoolName: "Multi\nline", Wallet: "0xB", AbsoluteVotes: 2, ShareVote: 1},
	}))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "poolName,wallet,absoluteVotes,shareVote\n"+
		"Pool \"Q\" stable,0xA,1,1\n"+
		"Multiline,0xB,2,1\n", string(buf))

	back, err := export.ReadVoteWeights(path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, `Pool "Q" stable`, back[0].PoolName)
	assert.Equal(t, "Multiline", back[1].PoolName)
}

func TestReadVoteWeightsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("poolName,wallet,absoluteVotes,shareVote\nPoolA,0xA,ten,0.5\n"), 0644))
	_, err := export.ReadVoteWeights(bad)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))

	header := filepath.Join(dir, "header.csv")
	require.NoError(t, os.WriteFile(header, []byte("pool,wallet,votes,share\n"), 0644))
	_, err = export.ReadVoteWeights(header)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = export.ReadVoteWeights(empty)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))
}

func TestReadBounties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounties.csv")
	content := "poolTokenName,tokenAddress,amount,decimals\n" +
		"PoolA,0x29219dd400f2bf60e5a23d13be72b486d4038894,1250.5,6\n" +
		"PoolB,0x2d0e0814e62d80056181f5cd932274405966e4f0,100,18\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	bounties, err := export.ReadBounties(path)
	require.NoError(t, err)
	require.Len(t, bounties, 2)
	assert.Equal(t, "PoolA", bounties[0].PoolTokenName)
	assert.Equal(t, common.HexToAddress("0x29219dd400f2bf60e5a23d13be72b486d4038894"), bounties[0].TokenAddress)
	assert.Equal(t, "1250.5", bounties[0].Amount)
	assert.Equal(t, 6, bounties[0].Decimals)

	require.NoError(t, os.WriteFile(path, []byte("poolTokenName,tokenAddress,amount,decimals\nPoolA,0x1234,1,6\n"), 0644))
	_, err = export.ReadBounties(path)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))

	require.NoError(t, os.WriteFile(path, []byte("poolTokenName,tokenAddress,amount,decimals\n"+
		"PoolA,0x29219dd400f2bf60e5a23d13be72b486d4038894,1.1234567,6\n"), 0644))
	_, err = export.ReadBounties(path)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))
}

func TestReadBribes(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	path := filepath.Join(t.TempDir(), "bribes.csv")
	content := "poolTokenName,proposalHash,amount\n" +
		"PoolA," + hash + ",1500.25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	bribes, err := export.ReadBribes(path, 18)
	require.NoError(t, err)
	require.Len(t, bribes, 1)
	assert.Equal(t, "PoolA", bribes[0].PoolTokenName)
	assert.Equal(t, common.HexToHash(hash), bribes[0].ProposalHash)
	assert.Equal(t, "1500.25", bribes[0].Amount)

	require.NoError(t, os.WriteFile(path, []byte("poolTokenName,proposalHash,amount\nPoolA,0xabcd,1\n"), 0644))
	_, err = export.ReadBribes(path, 18)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))

	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	_, err = export.ReadBribes(path, 1)
	assert.True(t, goerrors.Is(err, errors.InvalidInputError))
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}
	path := filepath.Join(t.TempDir(), "rounds", "1.json")
	require.NoError(t, export.WriteJSON(path, doc{Name: "x", Value: 3}))

	got, err := export.ReadJSON[doc](path)
	require.NoError(t, err)
	assert.Equal(t, doc{Name: "x", Value: 3}, *got)

	_, err = export.ReadJSON[doc](filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteRewardPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.csv")
	gauge := common.HexToAddress("0x0000000000000000000000000000000000000001")
	require.NoError(t, export.WriteRewardPayload(path, []export.RewardPayloadRow{
		{PoolID: "0xpool", PoolName: "A,B", GaugeAddress: gauge, Amount: "12.5", AddRewardToken: true},
	}))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "poolId,poolName,gaugeAddress,amount,addRewardToken,hasWrongDistributor\n"+
		"0xpool,AB,0x0000000000000000000000000000000000000001,12.5,true,false\n", string(buf))
}
