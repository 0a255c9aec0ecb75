package bounty

import (
	"math/big"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/modules/allocation"
	"gauge-automation/modules/export"

	"github.com/ethereum/go-ethereum/common"
)

type Recipient struct {
	Address common.Address
	Amount  *big.Int
}

// TokenDisperse lists what every voter receives of one bounty token.
type TokenDisperse struct {
	Token      common.Address
	Decimals   int
	Total      *big.Int
	Recipients []Recipient
}

type tokenState struct {
	disperse *TokenDisperse
	index    map[common.Address]int
}

// Disperse splits every bounty between the voters of its pool by their
// share of the pool's votes. The amounts of each token add up exactly to
// the token's bounties.
func Disperse(rows []export.VoteWeightRow, bounties []export.Bounty) ([]TokenDisperse, error) {
	voted := make(map[string]bool)
	for _, r := range rows {
		if !common.IsHexAddress(r.Wallet) {
			return nil, errors.InvalidInputError.Clone().
				SetData("wallet", r.Wallet)
		}
		voted[r.PoolName] = true
	}

	order := make([]common.Address, 0)
	tokens := make(map[common.Address]*tokenState)
	bountyUnits := make([]*big.Int, len(bounties))
	for i, b := range bounties {
		if !voted[b.PoolTokenName] {
			return nil, errors.NotFoundError.Clone().
				SetData("pool", b.PoolTokenName).
				SetData("reason", "bounty pool has no votes")
		}
		amount, err := units.ParseUnits(b.Amount, b.Decimals)
		if err != nil {
			return nil, errors.InvalidInputError.Clone().
				SetData("pool", b.PoolTokenName).
				SetData("error", err)
		}
		bountyUnits[i] = amount

		t, ok := tokens[b.TokenAddress]
		if !ok {
			t = &tokenState{
				disperse: &TokenDisperse{Token: b.TokenAddress, Decimals: b.Decimals, Total: new(big.Int)},
				index:    make(map[common.Address]int),
			}
			tokens[b.TokenAddress] = t
			order = append(order, b.TokenAddress)
		} else if t.disperse.Decimals != b.Decimals {
			return nil, errors.InvalidInputError.Clone().
				SetData("token", b.TokenAddress.Hex()).
				SetData("reason", "conflicting decimals")
		}
		t.disperse.Total.Add(t.disperse.Total, amount)
	}

	for _, r := range rows {
		wallet := common.HexToAddress(r.Wallet)
		for i, b := range bounties {
			if b.PoolTokenName != r.PoolName {
				continue
			}
			t := tokens[b.TokenAddress]
			amount := units.MulShare(bountyUnits[i], r.ShareVote)

			idx, ok := t.index[wallet]
			if !ok {
				idx = len(t.disperse.Recipients)
				t.index[wallet] = idx
				t.disperse.Recipients = append(t.disperse.Recipients, Recipient{Address: wallet, Amount: new(big.Int)})
			}
			t.disperse.Recipients[idx].Amount.Add(t.disperse.Recipients[idx].Amount, amount)
		}
	}

	out := make([]TokenDisperse, 0, len(order))
	for _, token := range order {
		d := tokens[token].disperse

		raw := make([]*big.Int, len(d.Recipients))
		for i, r := range d.Recipients {
			raw[i] = r.Amount
		}
		amounts, err := allocation.Reconcile(d.Total, raw)
		if err != nil {
			return nil, err
		}

		recipients := make([]Recipient, 0, len(amounts))
		for i, a := range amounts {
			if a.Sign() == 0 {
				continue
			}
			recipients = append(recipients, Recipient{Address: d.Recipients[i].Address, Amount: a})
		}
		d.Recipients = recipients
		out = append(out, *d)
	}
	return out, nil
}
