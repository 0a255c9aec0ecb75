package rounds

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/modules/allocation"
	"gauge-automation/modules/export"
	"gauge-automation/modules/snapshot"

	"github.com/ethereum/go-ethereum/common/math"
)

type Gauge struct {
	PoolName              string `json:"poolName" bson:"poolName"`
	PoolID                string `json:"poolId" bson:"poolId"`
	GaugeAddress          string `json:"gaugeAddress,omitempty" bson:"gaugeAddress,omitempty"`
	WeeklyAmountFromGauge string `json:"weeklyAmountFromGauge" bson:"weeklyAmountFromGauge"`
	WeeklyAmountFromMD    string `json:"weeklyAmountFromMD" bson:"weeklyAmountFromMD"`
}

// Round is the state of one gauge vote, from initialisation until the
// emissions per gauge are known.
type Round struct {
	TokenToDistribute string  `json:"tokenToDistribute" bson:"tokenToDistribute"`
	StartTimestamp    int64   `json:"startTimestamp" bson:"startTimestamp"`
	EndTimestamp      int64   `json:"endTimestamp" bson:"_id"`
	SnapshotBlock     uint64  `json:"snapshotBlock" bson:"snapshotBlock"`
	Gauges            []Gauge `json:"gauges" bson:"gauges"`
}

func Path(dataDir string, end int64) string {
	return filepath.Join(dataDir, "rounds", strconv.FormatInt(end, 10)+".json")
}

func Load(dataDir string, end int64) (*Round, error) {
	r, err := export.ReadJSON[Round](Path(dataDir, end))
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError.Clone().
			SetData("round", end).
			SetData("path", Path(dataDir, end))
	}
	return r, err
}

func Save(dataDir string, r *Round) error {
	return export.WriteJSON(Path(dataDir, r.EndTimestamp), r)
}

type Choice struct {
	PoolName string
	PoolID   string
}

// ReadChoices reads a JSON object mapping pool names to pool ids, keeping
// the order of the file since it becomes the order of the proposal choices.
func ReadChoices(path string) ([]Choice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	invalid := func(reason any) error {
		return errors.InvalidInputError.Clone().
			SetData("file", path).
			SetData("error", fmt.Sprint(reason))
	}

	dec := json.NewDecoder(f)
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, invalid("expected an object")
	}

	out := make([]Choice, 0)
	seen := map[string]struct{}{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid(err)
		}
		name := tok.(string)
		var id string
		if err := dec.Decode(&id); err != nil {
			return nil, invalid(err)
		}
		if _, ok := seen[name]; ok {
			return nil, invalid("duplicate pool " + name)
		}
		seen[name] = struct{}{}
		out = append(out, Choice{PoolName: name, PoolID: strings.ToLower(id)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalid(err)
	}
	return out, nil
}

type InitParams struct {
	TokenToDistribute string
	StartDay          time.Time
	EndDay            time.Time
	SnapshotBlock     uint64
	Choices           []Choice
}

func New(p InitParams) *Round {
	r := &Round{
		TokenToDistribute: p.TokenToDistribute,
		StartTimestamp:    VoteStart(p.StartDay),
		EndTimestamp:      VoteEnd(p.EndDay),
		SnapshotBlock:     p.SnapshotBlock,
	}
	for _, c := range p.Choices {
		r.Gauges = append(r.Gauges, Gauge{
			PoolName:              c.PoolName,
			PoolID:                c.PoolID,
			WeeklyAmountFromGauge: "0",
			WeeklyAmountFromMD:    "0",
		})
	}
	return r
}

// PoolAllocation is the part of the round budget a pool won.
type PoolAllocation struct {
	PoolName string
	// Weight is the pool's share of the vote scaled by 10^weightDecimals
	Weight *big.Int
	Amount *big.Int
}

// Calculate splits the round's budget between the proposal's choices in
// proportion to their scores, rounded to weightDecimals, and sets the weekly
// gauge amount of every gauge to half its pool's amount.
func (r *Round) Calculate(p *snapshot.Proposal, decimals int, weightDecimals int) ([]PoolAllocation, error) {
	budget, err := units.ParseUnits(r.TokenToDistribute, decimals)
	if err != nil {
		return nil, errors.InvalidInputError.Clone().
			SetData("tokenToDistribute", r.TokenToDistribute).
			SetData("error", err)
	}

	total := 0.0
	for _, s := range p.Scores {
		total += s
	}
	if total <= 0 {
		return nil, errors.InvalidInputError.Clone().
			SetData("proposal", p.ID).
			SetData("reason", "proposal has no votes")
	}

	weights := make([]*big.Int, len(p.Choices))
	for i := range p.Choices {
		score, _ := p.Score(i + 1)
		if score == 0 {
			weights[i] = new(big.Int)
			continue
		}
		weights[i] = units.RoundShare(score/total, weightDecimals)
	}

	amounts, err := allocation.SplitBudgetFractions(budget, weights, math.BigPow(10, int64(weightDecimals)))
	if err != nil {
		return nil, err
	}

	pools := make([]PoolAllocation, len(p.Choices))
	for i, name := range p.Choices {
		pools[i] = PoolAllocation{PoolName: name, Weight: weights[i], Amount: amounts[i]}
	}

	for i := range r.Gauges {
		g := &r.Gauges[i]
		idx := p.ChoiceIndex(g.PoolName)
		if idx.IsNone() {
			return nil, errors.NotFoundError.Clone().
				SetData("pool", g.PoolName).
				SetData("poolId", g.PoolID).
				SetData("reason", "pool is not a choice of the proposal")
		}
		weekly := new(big.Int).Div(amounts[idx.Unwrap()-1], big.NewInt(2))
		g.WeeklyAmountFromGauge = units.FormatUnits(weekly, decimals)
	}
	return pools, nil
}
