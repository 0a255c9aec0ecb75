package safe_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gauge-automation/lib/abis"
	"gauge-automation/modules/export"
	"gauge-automation/modules/safe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	token    = common.HexToAddress("0x2d0e0814e62d80056181f5cd932274405966e4f0")
	gauge    = common.HexToAddress("0x0000000000000000000000000000000000000aaa")
	msig     = common.HexToAddress("0x0000000000000000000000000000000000000bbb")
	disperse = common.HexToAddress("0xd152f549545093347a162dce210e7293f1452150")
)

func TestApprove(t *testing.T) {
	tx, err := safe.Approve(token, gauge, big.NewInt(1000))
	require.NoError(t, err)

	assert.Equal(t, token.Hex(), tx.To)
	assert.Equal(t, "0", tx.Value)
	assert.Equal(t, "approve", tx.ContractMethod.Name)
	assert.Equal(t, []safe.MethodInput{
		{InternalType: "address", Name: "spender", Type: "address"},
		{InternalType: "uint256", Name: "amount", Type: "uint256"},
	}, tx.ContractMethod.Inputs)
	assert.Equal(t, map[string]string{"spender": gauge.Hex(), "amount": "1000"}, tx.ContractInputsValues)

	// approve(address,uint256)
	require.NotNil(t, tx.Data)
	data, err := hexutil.Decode(*tx.Data)
	require.NoError(t, err)
	assert.Equal(t, "0x095ea7b3", hexutil.Encode(data[:4]))

	args, err := abis.ERC20.Methods["approve"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, gauge, args[0])
	assert.Equal(t, big.NewInt(1000), args[1])
}

func TestRewardTransactions(t *testing.T) {
	txs, err := safe.RewardTransactions(token, msig, []safe.GaugeReward{
		{Gauge: gauge, AddToken: true, Amount: big.NewInt(5)},
		{Gauge: msig, AddToken: false, Amount: big.NewInt(0)},
		{Gauge: msig, AddToken: false, Amount: big.NewInt(7)},
	})
	require.NoError(t, err)

	names := []string{}
	for _, tx := range txs {
		names = append(names, tx.ContractMethod.Name)
	}
	assert.Equal(t, []string{"add_reward", "approve", "deposit_reward_token", "approve", "deposit_reward_token"}, names)
	assert.Equal(t, map[string]string{"_reward_token": token.Hex(), "_distributor": msig.Hex()}, txs[0].ContractInputsValues)
	assert.Equal(t, "7", txs[4].ContractInputsValues["_amount"])
}

func TestDisperseTransactions(t *testing.T) {
	recipients := []common.Address{
		common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x03"),
	}
	amounts := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}

	txs, err := safe.DisperseTransactions(disperse, token, recipients, amounts, 2)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	assert.Equal(t, "3", txs[0].ContractInputsValues["amount"])
	assert.Equal(t, disperse.Hex(), txs[0].ContractInputsValues["spender"])
	assert.Equal(t, "["+recipients[0].Hex()+","+recipients[1].Hex()+"]", txs[1].ContractInputsValues["recipients"])
	assert.Equal(t, "[1,2]", txs[1].ContractInputsValues["values"])
	assert.Equal(t, "3", txs[2].ContractInputsValues["amount"])
	assert.Equal(t, "[3]", txs[3].ContractInputsValues["values"])

	_, err = safe.DisperseTransactions(disperse, token, recipients, amounts[:2], 2)
	assert.Error(t, err)
}

func TestBatches(t *testing.T) {
	txs := make([]safe.Transaction, 0)
	for i := 0; i < 5; i++ {
		tx, err := safe.Approve(token, gauge, big.NewInt(int64(i+1)))
		require.NoError(t, err)
		txs = append(txs, tx)
	}

	b := &safe.Builder{
		ChainID:       "146",
		Safe:          msig,
		MaxTxPerBatch: 2,
		Now:           func() time.Time { return time.Unix(1700000000, 0) },
	}
	batches, err := b.Batches("Weekly gauge rewards", txs)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Transactions, 2)
	assert.Len(t, batches[2].Transactions, 1)

	first := batches[0]
	assert.Equal(t, "1.0", first.Version)
	assert.Equal(t, "146", first.ChainID)
	assert.Equal(t, int64(1700000000), first.CreatedAt)
	assert.Equal(t, "1.18.0", first.Meta.TxBuilderVersion)
	assert.Equal(t, msig.Hex(), first.Meta.CreatedFromSafeAddress)

	again, err := b.Batches("Weekly gauge rewards", txs)
	require.NoError(t, err)
	assert.Equal(t, first.Meta.Checksum, again[0].Meta.Checksum)
	assert.NotEqual(t, first.Meta.Checksum, batches[1].Meta.Checksum)
	assert.Len(t, first.Meta.Checksum, 66)

	dir := t.TempDir()
	paths, err := safe.Write(dir, "weekly-rewards", batches)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "weekly-rewards-2.json"), paths[2])

	back, err := export.ReadJSON[safe.Batch](paths[0])
	require.NoError(t, err)
	assert.Equal(t, first, *back)

	_, err = os.Stat(paths[1])
	assert.NoError(t, err)
}
