package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
)

type Strategy struct {
	Name    string          `json:"name"`
	Network string          `json:"network,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Proposal struct {
	ID            string
	Title         string
	Space         string
	Choices       []string
	Scores        []float64
	ScoresTotal   float64
	SnapshotBlock uint64
	Strategies    []Strategy
	Votes         int
	End           int64
}

// ChoiceIndex returns the 1-based index of the choice labelled name.
func (p *Proposal) ChoiceIndex(name string) optional.Option[int] {
	for i, c := range p.Choices {
		if c == name {
			return optional.Some(i + 1)
		}
	}
	return optional.None[int]()
}

// Score returns the final score of a 1-based choice index.
func (p *Proposal) Score(choice int) (float64, bool) {
	if choice < 1 || choice > len(p.Scores) || choice > len(p.Choices) {
		return 0, false
	}
	return p.Scores[choice-1], true
}

// Ballot is a single vote. Choice maps 1-based choice indices to the raw
// weight the voter assigned, which need not sum to any particular value.
type Ballot struct {
	Voter                 string
	Choice                map[int]float64
	VotingPower           float64
	VotingPowerByStrategy []float64
}

// StrategyPower returns the voting power from the strategy at index, 0 when
// the ballot carries no such entry.
func (b *Ballot) StrategyPower(index int) float64 {
	if index < 0 || index >= len(b.VotingPowerByStrategy) {
		return 0
	}
	return b.VotingPowerByStrategy[index]
}

// ChoiceIndices returns the choices of the ballot in ascending order.
func (b *Ballot) ChoiceIndices() []int {
	out := make([]int, 0, len(b.Choice))
	for i := range b.Choice {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ParseChoice decodes the hub's choice value. Weighted votes are objects
// keyed by choice index, single choice votes are a bare index and approval
// or ranked votes are a list of indices, each counted with weight 1.
func ParseChoice(raw json.RawMessage) (map[int]float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[int]float64{}, nil
	}

	switch trimmed[0] {
	case '{':
		var weights map[string]float64
		if err := json.Unmarshal(raw, &weights); err != nil {
			return nil, fmt.Errorf("invalid weighted choice %s: %w", trimmed, err)
		}
		out := make(map[int]float64, len(weights))
		for k, w := range weights {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("invalid choice index %q", k)
			}
			if w == 0 {
				continue
			}
			out[idx] += w
		}
		return out, nil
	case '[':
		var list []int
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("invalid choice list %s: %w", trimmed, err)
		}
		out := make(map[int]float64, len(list))
		for _, idx := range list {
			out[idx] = 1
		}
		return out, nil
	default:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return nil, fmt.Errorf("invalid choice %s: %w", trimmed, err)
		}
		return map[int]float64{idx: 1}, nil
	}
}
