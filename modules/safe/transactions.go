package safe

import (
	"fmt"
	"math/big"
	"strings"

	"gauge-automation/lib/abis"
	"gauge-automation/lib/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func call(contract abi.ABI, to common.Address, method string, values []string, args ...any) (Transaction, error) {
	m, ok := contract.Methods[method]
	if !ok {
		return Transaction{}, fmt.Errorf("unknown method %s", method)
	}
	data, err := contract.Pack(method, args...)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	if len(values) != len(m.Inputs) {
		return Transaction{}, fmt.Errorf("%s takes %d inputs, got %d", method, len(m.Inputs), len(values))
	}

	cm := &ContractMethod{Name: m.RawName, Payable: m.Payable}
	inputs := make(map[string]string, len(m.Inputs))
	for i, in := range m.Inputs {
		cm.Inputs = append(cm.Inputs, MethodInput{
			InternalType: in.Type.String(),
			Name:         in.Name,
			Type:         in.Type.String(),
		})
		inputs[in.Name] = values[i]
	}

	encoded := hexutil.Encode(data)
	return Transaction{
		To:                   to.Hex(),
		Value:                "0",
		Data:                 &encoded,
		ContractMethod:       cm,
		ContractInputsValues: inputs,
	}, nil
}

func list[T any](values []T, format func(T) string) string {
	return "[" + strings.Join(utils.Map(values, format), ",") + "]"
}

func Approve(token, spender common.Address, amount *big.Int) (Transaction, error) {
	return call(abis.ERC20, token, "approve",
		[]string{spender.Hex(), amount.String()},
		spender, amount,
	)
}

func AddReward(gauge, token, distributor common.Address) (Transaction, error) {
	return call(abis.Gauge, gauge, "add_reward",
		[]string{token.Hex(), distributor.Hex()},
		token, distributor,
	)
}

func DepositRewardToken(gauge, token common.Address, amount *big.Int) (Transaction, error) {
	return call(abis.Gauge, gauge, "deposit_reward_token",
		[]string{token.Hex(), amount.String()},
		token, amount,
	)
}

func DisperseToken(disperse, token common.Address, recipients []common.Address, amounts []*big.Int) (Transaction, error) {
	if len(recipients) != len(amounts) {
		return Transaction{}, fmt.Errorf("%d recipients but %d amounts", len(recipients), len(amounts))
	}
	return call(abis.Disperse, disperse, "disperseToken",
		[]string{
			token.Hex(),
			list(recipients, common.Address.Hex),
			list(amounts, (*big.Int).String),
		},
		token, recipients, amounts,
	)
}

// GaugeReward is what a payload does for one gauge.
type GaugeReward struct {
	Gauge common.Address
	// AddToken registers the reward token on the gauge first
	AddToken bool
	Amount   *big.Int
}

// RewardTransactions registers token where needed, then approves and
// deposits each gauge's amount.
func RewardTransactions(token, distributor common.Address, rewards []GaugeReward) ([]Transaction, error) {
	out := make([]Transaction, 0, len(rewards)*3)
	for _, r := range rewards {
		if r.AddToken {
			tx, err := AddReward(r.Gauge, token, distributor)
			if err != nil {
				return nil, err
			}
			out = append(out, tx)
		}
		if r.Amount == nil || r.Amount.Sign() <= 0 {
			continue
		}
		approve, err := Approve(token, r.Gauge, r.Amount)
		if err != nil {
			return nil, err
		}
		deposit, err := DepositRewardToken(r.Gauge, token, r.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, approve, deposit)
	}
	return out, nil
}

// DisperseTransactions pays amounts to recipients through the disperse
// contract, at most maxRecipients per transaction, each preceded by the
// matching approval.
func DisperseTransactions(
	disperse, token common.Address,
	recipients []common.Address,
	amounts []*big.Int,
	maxRecipients int,
) ([]Transaction, error) {
	if len(recipients) != len(amounts) {
		return nil, fmt.Errorf("%d recipients but %d amounts", len(recipients), len(amounts))
	}

	out := make([]Transaction, 0)
	amountChunks := utils.Chunk(amounts, maxRecipients)
	for i, chunk := range utils.Chunk(recipients, maxRecipients) {
		values := amountChunks[i]
		total := new(big.Int)
		for _, v := range values {
			total.Add(total, v)
		}

		approve, err := Approve(token, disperse, total)
		if err != nil {
			return nil, err
		}
		tx, err := DisperseToken(disperse, token, chunk, values)
		if err != nil {
			return nil, err
		}
		out = append(out, approve, tx)
	}
	return out, nil
}
