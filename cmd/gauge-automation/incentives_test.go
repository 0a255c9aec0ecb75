package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/test_utils"
	"gauge-automation/modules/export"
	"gauge-automation/modules/safe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	revenueSafe = "0x26377CAB961c84F2d7b9d9e36D296a1C1c77C995"
	poolA       = "0x00000000000000000000000000000000000000f1"
	poolB       = "0x00000000000000000000000000000000000000f2"
	market      = "0x00000000000000000000000000000000000000c1"
	vault       = "0x00000000000000000000000000000000000000c2"
	board       = "0x00000000000000000000000000000000000000c3"
)

func backendPools(t *testing.T, ids ...string) *test_utils.GraphQLServer {
	return test_utils.NewGraphQLServer(t, func(req test_utils.GraphQLRequest) (any, error) {
		if req.OperationName != "V3Pools" {
			t.Errorf("unexpected operation %q", req.OperationName)
			return nil, assert.AnError
		}
		pools := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			pools = append(pools, map[string]any{"id": id})
		}
		return map[string]any{"poolGetPools": pools}, nil
	})
}

func TestWithdrawFees(t *testing.T) {
	t.Setenv("BACKEND_URL", backendPools(t, strings.ToUpper(poolA), poolB).URL)

	dir := t.TempDir()
	_, err := execute(t, dir, "withdraw-fees")
	require.NoError(t, err)

	batch, err := export.ReadJSON[safe.Batch](filepath.Join(dir, "transactions", "withdraw-fees-0.json"))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(revenueSafe).Hex(), batch.Meta.CreatedFromSafeAddress)
	require.Len(t, batch.Transactions, 2)
	for i, pool := range []string{poolA, poolB} {
		tx := batch.Transactions[i]
		assert.Equal(t, "withdrawProtocolFees", tx.ContractMethod.Name)
		assert.Equal(t, common.HexToAddress(pool).Hex(), tx.ContractInputsValues["pool"])
		assert.Equal(t, common.HexToAddress(revenueSafe).Hex(), tx.ContractInputsValues["recipient"])
	}
}

func TestWithdrawFeesRejectsPoolID(t *testing.T) {
	t.Setenv("BACKEND_URL", backendPools(t, poolA, "0xabc-v2").URL)

	dir := t.TempDir()
	_, err := execute(t, dir, "withdraw-fees")
	require.ErrorIs(t, err, errors.InvalidInputError)
	assert.NoDirExists(t, filepath.Join(dir, "transactions"))
}

func TestWithdrawFeesNoPools(t *testing.T) {
	t.Setenv("BACKEND_URL", backendPools(t).URL)

	dir := t.TempDir()
	_, err := execute(t, dir, "withdraw-fees")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "transactions", "withdraw-fees-0.json"))
}

func writeBribes(t *testing.T, dir string) string {
	path := filepath.Join(dir, "bribes.csv")
	content := "poolTokenName,proposalHash,amount\n" +
		"PoolA," + common.HexToHash("0x01").Hex() + ",1.5\n" +
		"PoolB," + common.HexToHash("0x02").Hex() + ",2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBribePayload(t *testing.T) {
	t.Setenv("BRIBE_MARKET_ADDRESS", market)
	t.Setenv("BRIBE_VAULT_ADDRESS", vault)

	dir := t.TempDir()
	_, err := execute(t, dir, "bribe-payload", "--end", "1700000000", "--bribes", writeBribes(t, dir))
	require.NoError(t, err)

	batch, err := export.ReadJSON[safe.Batch](filepath.Join(dir, "transactions", "1700000000-bribes-0.json"))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(revenueSafe).Hex(), batch.Meta.CreatedFromSafeAddress)
	require.Len(t, batch.Transactions, 3)

	approve := batch.Transactions[0]
	assert.Equal(t, "approve", approve.ContractMethod.Name)
	assert.Equal(t, common.HexToAddress(vault).Hex(), approve.ContractInputsValues["spender"])
	assert.Equal(t, "3500000000000000000", approve.ContractInputsValues["amount"])

	assert.Equal(t, common.HexToAddress(market).Hex(), common.HexToAddress(batch.Transactions[1].To).Hex())
	assert.Equal(t, common.HexToHash("0x01").Hex(), batch.Transactions[1].ContractInputsValues["_proposal"])
	assert.Equal(t, "1500000000000000000", batch.Transactions[1].ContractInputsValues["_amount"])
	assert.Equal(t, "2000000000000000000", batch.Transactions[2].ContractInputsValues["_amount"])
}

func TestBribePayloadRequiresMarket(t *testing.T) {
	t.Setenv("BRIBE_MARKET_ADDRESS", "")
	t.Setenv("BRIBE_VAULT_ADDRESS", vault)

	dir := t.TempDir()
	_, err := execute(t, dir, "bribe-payload", "--end", "1700000000", "--bribes", writeBribes(t, dir))
	require.ErrorIs(t, err, errors.ConfigurationError)
	assert.Contains(t, err.Error(), "BRIBE_MARKET_ADDRESS")
	assert.NoDirExists(t, filepath.Join(dir, "transactions"))
}

func TestQuestBounty(t *testing.T) {
	t.Setenv("SAFE_ADDRESS", msig)

	dir := t.TempDir()
	_, err := execute(t, dir, "quest-bounty",
		"--amount", "100",
		"--min-reward-per-vote", "0.001",
		"--max-reward-per-vote", "0.01",
		"--board", board,
		"--token", usdc,
		"--decimals", "6",
	)
	require.NoError(t, err)

	batch, err := export.ReadJSON[safe.Batch](filepath.Join(dir, "transactions", "quest-bounty-0.json"))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(msig).Hex(), batch.Meta.CreatedFromSafeAddress)
	require.Len(t, batch.Transactions, 2)

	approve := batch.Transactions[0]
	assert.Equal(t, common.HexToAddress(board).Hex(), approve.ContractInputsValues["spender"])
	assert.Equal(t, "104000000", approve.ContractInputsValues["amount"])

	create := batch.Transactions[1]
	assert.Equal(t, "createRangedQuest", create.ContractMethod.Name)
	assert.Equal(t, "100000000", create.ContractInputsValues["totalRewardAmount"])
	assert.Equal(t, "4000000", create.ContractInputsValues["feeAmount"])
	assert.Equal(t, "1000", create.ContractInputsValues["minRewardPerVote"])
	assert.Equal(t, "10000", create.ContractInputsValues["maxRewardPerVote"])
}

func TestQuestBountyRejectsInvertedRange(t *testing.T) {
	t.Setenv("SAFE_ADDRESS", msig)

	_, err := execute(t, t.TempDir(), "quest-bounty",
		"--amount", "100",
		"--min-reward-per-vote", "0.02",
		"--max-reward-per-vote", "0.01",
		"--board", board,
		"--token", usdc,
	)
	require.ErrorIs(t, err, errors.InvalidInputError)
}
