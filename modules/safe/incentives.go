package safe

import (
	"fmt"
	"math/big"

	"gauge-automation/lib/abis"

	"github.com/ethereum/go-ethereum/common"
)

func WithdrawProtocolFees(controller, pool, recipient common.Address) (Transaction, error) {
	return call(abis.FeeController, controller, "withdrawProtocolFees",
		[]string{pool.Hex(), recipient.Hex()},
		pool, recipient,
	)
}

// WithdrawFeesTransactions collects the protocol fees of every pool to
// recipient.
func WithdrawFeesTransactions(controller, recipient common.Address, pools []common.Address) ([]Transaction, error) {
	out := make([]Transaction, 0, len(pools))
	for _, pool := range pools {
		tx, err := WithdrawProtocolFees(controller, pool, recipient)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Bribe is a deposit into a bribe market proposal, for one period and without
// a per vote cap.
type Bribe struct {
	Proposal common.Hash
	Amount   *big.Int
}

func DepositBribe(market common.Address, proposal common.Hash, token common.Address, amount *big.Int) (Transaction, error) {
	zero, periods := new(big.Int), big.NewInt(1)
	return call(abis.BribeMarket, market, "depositBribe",
		[]string{proposal.Hex(), token.Hex(), amount.String(), zero.String(), periods.String()},
		proposal, token, amount, zero, periods,
	)
}

// BribeTransactions approves the vault for the sum of all bribes, then
// deposits each one through the market.
func BribeTransactions(market, vault, token common.Address, bribes []Bribe) ([]Transaction, error) {
	if len(bribes) == 0 {
		return nil, nil
	}

	total := new(big.Int)
	deposits := make([]Transaction, 0, len(bribes))
	for _, b := range bribes {
		if b.Amount == nil || b.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("bribe for %s has no amount", b.Proposal.Hex())
		}
		tx, err := DepositBribe(market, b.Proposal, token, b.Amount)
		if err != nil {
			return nil, err
		}
		total.Add(total, b.Amount)
		deposits = append(deposits, tx)
	}

	approve, err := Approve(token, vault, total)
	if err != nil {
		return nil, err
	}
	return append([]Transaction{approve}, deposits...), nil
}

// QuestFeePercent is the board fee charged on top of a quest's rewards.
const QuestFeePercent = 4

// RangedQuest is a one period quest paying between MinRewardPerVote and
// MaxRewardPerVote per vote on Gauge.
type RangedQuest struct {
	Board            common.Address
	Gauge            common.Address
	Token            common.Address
	Amount           *big.Int
	MinRewardPerVote *big.Int
	MaxRewardPerVote *big.Int
}

// Fee is the board fee of the quest, rounded down.
func (q RangedQuest) Fee() *big.Int {
	fee := new(big.Int).Mul(q.Amount, big.NewInt(QuestFeePercent))
	return fee.Quo(fee, big.NewInt(100))
}

func CreateRangedQuest(q RangedQuest) (Transaction, error) {
	duration := big.NewInt(1)
	fee := q.Fee()
	return call(abis.QuestBoard, q.Board, "createRangedQuest",
		[]string{
			q.Gauge.Hex(),
			q.Token.Hex(),
			"false",
			duration.String(),
			q.MinRewardPerVote.String(),
			q.MaxRewardPerVote.String(),
			q.Amount.String(),
			fee.String(),
			"0",
			"0",
			"[]",
		},
		q.Gauge, q.Token, false, duration,
		q.MinRewardPerVote, q.MaxRewardPerVote, q.Amount, fee,
		uint8(0), uint8(0), []*big.Int{},
	)
}

// QuestTransactions approves the board for the rewards plus the fee and
// creates the quest.
func QuestTransactions(q RangedQuest) ([]Transaction, error) {
	if q.Amount == nil || q.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("quest has no amount")
	}
	if q.MinRewardPerVote.Cmp(q.MaxRewardPerVote) > 0 {
		return nil, fmt.Errorf("min reward per vote %s is above the max %s", q.MinRewardPerVote, q.MaxRewardPerVote)
	}

	approve, err := Approve(q.Token, q.Board, new(big.Int).Add(q.Amount, q.Fee()))
	if err != nil {
		return nil, err
	}
	create, err := CreateRangedQuest(q)
	if err != nil {
		return nil, err
	}
	return []Transaction{approve, create}, nil
}
