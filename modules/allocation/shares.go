package allocation

import (
	"gauge-automation/lib/errors"
	"gauge-automation/modules/snapshot"
)

// VoteShare is the part of one choice's final score contributed by a voter.
type VoteShare struct {
	Voter         string
	AbsoluteVotes float64
	VoteShare     float64
}

// ChoiceShare is a VoteShare tagged with the choice it belongs to.
type ChoiceShare struct {
	Choice int
	Label  string
	VoteShare
}

// Shares splits votingPower over the weighted choices of a ballot. A ballot
// without weight yields no shares. Choices must exist on the proposal.
func Shares(voter string, choice map[int]float64, votingPower float64, p *snapshot.Proposal) ([]ChoiceShare, error) {
	parts := 0.0
	for idx, w := range choice {
		if w < 0 {
			return nil, errors.InvalidBallotError.Clone().
				SetData("voter", voter).
				SetData("choice", idx).
				SetData("weight", w)
		}
		parts += w
	}
	if parts == 0 {
		return nil, nil
	}
	votesPerPart := votingPower / parts

	ballot := snapshot.Ballot{Choice: choice}
	out := make([]ChoiceShare, 0, len(choice))
	for _, idx := range ballot.ChoiceIndices() {
		score, ok := p.Score(idx)
		if !ok {
			return nil, errors.InvalidBallotError.Clone().
				SetData("voter", voter).
				SetData("choice", idx).
				SetData("choices", len(p.Choices))
		}

		absolute := choice[idx] * votesPerPart
		share := 0.0
		if score != 0 {
			share = absolute / score
		}
		out = append(out, ChoiceShare{
			Choice: idx,
			Label:  p.Choices[idx-1],
			VoteShare: VoteShare{
				Voter:         voter,
				AbsoluteVotes: absolute,
				VoteShare:     share,
			},
		})
	}
	return out, nil
}
