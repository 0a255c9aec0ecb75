package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/test_utils"
	"gauge-automation/modules/export"
	"gauge-automation/modules/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	voterA    = "0x00000000000000000000000000000000000000a1"
	delegate  = "0x00000000000000000000000000000000000000d1"
	delegator = "0x00000000000000000000000000000000000000b1"
	globalDel = "0x00000000000000000000000000000000000000b2"
	usdc      = "0x29219dd400f2bf60e5a23d13be72b486d4038894"
	msig      = "0x00000000000000000000000000000000000000ee"
	disperser = "0xd152f549545093347a162dce210e7293f1452150"
)

func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Setenv("MONGO_URL", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	if _, ok := os.LookupEnv("SNAPSHOT_SPACE"); !ok {
		t.Setenv("SNAPSHOT_SPACE", "beets-gauges.eth")
	}

	out := bytes.Buffer{}
	cmd := newRootCmd(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--data-dir", dataDir, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func hub(t *testing.T) *test_utils.GraphQLServer {
	return test_utils.NewGraphQLServer(t, func(req test_utils.GraphQLRequest) (any, error) {
		switch req.OperationName {
		case "Proposal":
			return map[string]any{"proposal": map[string]any{
				"id":           "0xprop",
				"title":        "Gauge vote (Round 1)",
				"space":        map[string]any{"id": "beets-gauges.eth"},
				"choices":      []string{"PoolA", "PoolB"},
				"scores":       []float64{80, 20},
				"scores_total": 100,
				"snapshot":     "1234",
				"strategies": []map[string]any{
					{"name": "erc20-balance-of", "network": "146", "params": map[string]any{}},
					{"name": "delegation", "network": "146", "params": map[string]any{}},
				},
				"votes": 2,
				"end":   1737057600,
			}}, nil
		case "Votes":
			if req.IntVar("skip") > 0 {
				return map[string]any{"votes": []any{}}, nil
			}
			return map[string]any{"votes": []map[string]any{
				{"voter": voterA, "choice": map[string]any{"1": 1}, "vp": 60, "vp_by_strategy": []float64{60, 0}},
				{"voter": delegate, "choice": map[string]any{"1": 1, "2": 1}, "vp": 40, "vp_by_strategy": []float64{0, 40}},
			}}, nil
		case "Delegations":
			if req.IntVar("skip") > 0 {
				return map[string]any{"delegations": []any{}}, nil
			}
			return map[string]any{"delegations": []map[string]any{
				{"delegator": delegator, "delegate": delegate, "space": "beets-gauges.eth"},
				{"delegator": globalDel, "delegate": delegate, "space": ""},
			}}, nil
		}
		t.Errorf("unexpected operation %q", req.OperationName)
		return nil, assert.AnError
	})
}

func scoreAPI(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Params struct {
				Addresses []string `json:"addresses"`
			} `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		power := map[string]float64{delegator: 30, globalDel: 10}
		scores := map[string]float64{}
		for _, a := range body.Params.Addresses {
			scores[a] = power[a]
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"scores": []map[string]float64{scores}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVoteWeightsRequiresProposal(t *testing.T) {
	srv := hub(t)
	t.Setenv("SNAPSHOT_HUB_URL", srv.URL)
	t.Setenv("SNAPSHOT_ID", "")

	_, err := execute(t, t.TempDir(), "vote-weights")
	assert.ErrorIs(t, err, errors.ConfigurationError)
	assert.Empty(t, srv.Requests())
}

func TestVoteWeightsRequiresSpace(t *testing.T) {
	srv := hub(t)
	t.Setenv("SNAPSHOT_HUB_URL", srv.URL)
	t.Setenv("SNAPSHOT_SPACE", "")

	_, err := execute(t, t.TempDir(), "vote-weights", "--proposal", "0xprop")
	assert.ErrorIs(t, err, errors.ConfigurationError)
	assert.Empty(t, srv.Requests())
}

func TestVoteWeights(t *testing.T) {
	srv := hub(t)
	t.Setenv("SNAPSHOT_HUB_URL", srv.URL)
	t.Setenv("DELEGATION_SUBGRAPH_URL", srv.URL)
	t.Setenv("SCORE_API_URL", scoreAPI(t).URL)

	dir := t.TempDir()
	out := filepath.Join(dir, "weights.csv")
	_, err := execute(t, dir, "vote-weights", "--proposal", "0xprop", "--out", out)
	require.NoError(t, err)

	rows, err := export.ReadVoteWeights(out)
	require.NoError(t, err)
	assert.Equal(t, []export.VoteWeightRow{
		{PoolName: "PoolA", Wallet: voterA, AbsoluteVotes: 60, ShareVote: 0.75},
		{PoolName: "PoolA", Wallet: delegator, AbsoluteVotes: 15, ShareVote: 0.1875},
		{PoolName: "PoolA", Wallet: globalDel, AbsoluteVotes: 5, ShareVote: 0.0625},
		{PoolName: "PoolB", Wallet: delegator, AbsoluteVotes: 15, ShareVote: 0.75},
		{PoolName: "PoolB", Wallet: globalDel, AbsoluteVotes: 5, ShareVote: 0.25},
	}, rows)
}

func TestDisperseBounties(t *testing.T) {
	t.Setenv("SAFE_ADDRESS", msig)
	t.Setenv("DISPERSE_ADDRESS", disperser)

	dir := t.TempDir()
	weights := filepath.Join(dir, "weights.csv")
	require.NoError(t, export.WriteVoteWeights(weights, []export.VoteWeightRow{
		{PoolName: "PoolA", Wallet: voterA, AbsoluteVotes: 60, ShareVote: 0.75},
		{PoolName: "PoolA", Wallet: delegator, AbsoluteVotes: 20, ShareVote: 0.25},
	}))
	bounties := filepath.Join(dir, "bounties.csv")
	require.NoError(t, os.WriteFile(bounties, []byte("poolTokenName,tokenAddress,amount,decimals\nPoolA,"+usdc+",100,6\n"), 0644))

	_, err := execute(t, dir, "disperse-bounties", "--vote-weights", weights, "--bounties", bounties)
	require.NoError(t, err)

	batch, err := export.ReadJSON[safe.Batch](filepath.Join(dir, "transactions", "bounties-0.json"))
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 2)
	assert.Equal(t, "146", batch.ChainID)
	assert.Equal(t, "100000000", batch.Transactions[0].ContractInputsValues["amount"])
	assert.Equal(t, "[75000000,25000000]", batch.Transactions[1].ContractInputsValues["values"])
}

func TestDisperseBountiesRequiresSafe(t *testing.T) {
	t.Setenv("SAFE_ADDRESS", "")
	_, err := execute(t, t.TempDir(), "disperse-bounties", "--vote-weights", "a.csv", "--bounties", "b.csv")
	assert.ErrorIs(t, err, errors.ConfigurationError)
}
