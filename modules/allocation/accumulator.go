package allocation

import (
	goerrors "errors"

	"gauge-automation/lib/errors"
	"gauge-automation/modules/snapshot"
)

var ErrFinalized = goerrors.New("accumulator already finalized")

// TotalChoice is the choice label reported when the grand total of all
// votes does not match the proposal's total score.
const TotalChoice = "total"

type ChoiceResult struct {
	Label  string
	Index  int
	Score  float64
	Shares []VoteShare
}

func (c *ChoiceResult) TotalVotes() float64 {
	total := 0.0
	for _, s := range c.Shares {
		total += s.AbsoluteVotes
	}
	return total
}

func (c *ChoiceResult) TotalShare() float64 {
	total := 0.0
	for _, s := range c.Shares {
		total += s.VoteShare
	}
	return total
}

// Result holds the validated shares of every choice that received votes, in
// the order the choices were first added.
type Result struct {
	ProposalID string
	Choices    []ChoiceResult
}

func (r *Result) TotalVotes() float64 {
	total := 0.0
	for i := range r.Choices {
		total += r.Choices[i].TotalVotes()
	}
	return total
}

// Accumulator collects shares from every ballot and validates them against
// the proposal's final scores once all ballots were added.
type Accumulator struct {
	proposal  *snapshot.Proposal
	precision int

	index     map[string]int
	choices   []ChoiceResult
	finalized bool
}

func NewAccumulator(p *snapshot.Proposal, precision int) *Accumulator {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Accumulator{
		proposal:  p,
		precision: precision,
		index:     make(map[string]int),
	}
}

func (a *Accumulator) Add(shares ...ChoiceShare) error {
	if a.finalized {
		return ErrFinalized
	}
	for _, s := range shares {
		i, ok := a.index[s.Label]
		if !ok {
			score, _ := a.proposal.Score(s.Choice)
			i = len(a.choices)
			a.index[s.Label] = i
			a.choices = append(a.choices, ChoiceResult{
				Label: s.Label,
				Index: s.Choice,
				Score: score,
			})
		}
		a.choices[i].Shares = append(a.choices[i].Shares, s.VoteShare)
	}
	return nil
}

// Finalize checks that the votes of every choice add up to its score, that
// its shares add up to 1 and that all votes add up to the proposal total.
func (a *Accumulator) Finalize() (*Result, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	total := 0.0
	for i := range a.choices {
		c := &a.choices[i]
		votes := c.TotalVotes()
		total += votes

		if !EqualAtPrecision(votes, c.Score, a.precision) {
			return nil, errors.TallyMismatchError.Clone().
				SetData("choice", c.Label).
				SetData("expected", c.Score).
				SetData("got", votes).
				SetData("delta", votes-c.Score)
		}

		share := c.TotalShare()
		if share != 0 && !EqualAtPrecision(share, 1, a.precision) {
			return nil, errors.ShareSumMismatchError.Clone().
				SetData("choice", c.Label).
				SetData("got", share)
		}
	}

	if !EqualAtPrecision(total, a.proposal.ScoresTotal, a.precision) {
		return nil, errors.TallyMismatchError.Clone().
			SetData("choice", TotalChoice).
			SetData("expected", a.proposal.ScoresTotal).
			SetData("got", total).
			SetData("delta", total-a.proposal.ScoresTotal)
	}

	return &Result{
		ProposalID: a.proposal.ID,
		Choices:    a.choices,
	}, nil
}
