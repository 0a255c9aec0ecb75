package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gauge-automation/lib/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var BountiesHeader = []string{"poolTokenName", "tokenAddress", "amount", "decimals"}

// Bounty is an amount of a token offered to the voters of a pool.
type Bounty struct {
	PoolTokenName string
	TokenAddress  common.Address
	// Amount in whole tokens, such as "1250.5"
	Amount   string
	Decimals int
}

func ReadBounties(path string) ([]Bounty, error) {
	records, err := readCSV(path, BountiesHeader)
	if err != nil {
		return nil, err
	}

	out := make([]Bounty, 0, len(records))
	for i, rec := range records {
		if !common.IsHexAddress(rec[1]) {
			return nil, rowError(path, i, "tokenAddress", fmt.Errorf("invalid address %q", rec[1]))
		}
		decimals, err := strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, rowError(path, i, "decimals", err)
		}
		if decimals < 0 || decimals > 36 {
			return nil, rowError(path, i, "decimals", fmt.Errorf("decimals %d out of range", decimals))
		}
		if _, err := units.ParseUnits(rec[2], decimals); err != nil {
			return nil, rowError(path, i, "amount", err)
		}
		out = append(out, Bounty{
			PoolTokenName: rec[0],
			TokenAddress:  common.HexToAddress(rec[1]),
			Amount:        strings.TrimSpace(rec[2]),
			Decimals:      decimals,
		})
	}
	return out, nil
}

var BribesHeader = []string{"poolTokenName", "proposalHash", "amount"}

// Bribe is an amount of the reward token deposited on a bribe market
// proposal.
type Bribe struct {
	PoolTokenName string
	ProposalHash  common.Hash
	// Amount in whole tokens
	Amount string
}

// ReadBribes reads bribes whose amounts have at most decimals digits.
func ReadBribes(path string, decimals int) ([]Bribe, error) {
	records, err := readCSV(path, BribesHeader)
	if err != nil {
		return nil, err
	}

	out := make([]Bribe, 0, len(records))
	for i, rec := range records {
		hash, err := hexutil.Decode(strings.TrimSpace(rec[1]))
		if err != nil || len(hash) != common.HashLength {
			return nil, rowError(path, i, "proposalHash", fmt.Errorf("invalid proposal hash %q", rec[1]))
		}
		if _, err := units.ParseUnits(rec[2], decimals); err != nil {
			return nil, rowError(path, i, "amount", err)
		}
		out = append(out, Bribe{
			PoolTokenName: rec[0],
			ProposalHash:  common.BytesToHash(hash),
			Amount:        strings.TrimSpace(rec[2]),
		})
	}
	return out, nil
}

var RewardPayloadHeader = []string{
	"poolId", "poolName", "gaugeAddress", "amount", "addRewardToken", "hasWrongDistributor",
}

// RewardPayloadRow summarises what a reward payload does for one gauge.
type RewardPayloadRow struct {
	PoolID              string
	PoolName            string
	GaugeAddress        common.Address
	Amount              string
	AddRewardToken      bool
	HasWrongDistributor bool
}

func WriteRewardPayload(path string, rows []RewardPayloadRow) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(RewardPayloadHeader); err != nil {
			return err
		}
		for _, r := range rows {
			err := cw.Write([]string{
				r.PoolID,
				strings.ReplaceAll(r.PoolName, ",", ""),
				r.GaugeAddress.Hex(),
				r.Amount,
				strconv.FormatBool(r.AddRewardToken),
				strconv.FormatBool(r.HasWrongDistributor),
			})
			if err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
