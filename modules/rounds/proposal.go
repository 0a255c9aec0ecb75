package rounds

import (
	"fmt"
	"strings"
	"time"
)

type ProposalText struct {
	Title   string
	Body    string
	Choices []string
}

func ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

func longDate(t time.Time) string {
	return fmt.Sprintf("%s %s %d", t.Month(), ordinal(t.Day()), t.Year())
}

// Proposal renders the weighted vote that decides the round's emissions.
// tokenSymbol names the emitted token, such as "BEETS".
func (r *Round) Proposal(tokenSymbol string) (ProposalText, error) {
	number, err := Number(r.StartTimestamp)
	if err != nil {
		return ProposalText{}, err
	}
	from, to := EmissionPeriod(time.Unix(r.EndTimestamp, 0).UTC())

	var body strings.Builder
	fmt.Fprintf(&body,
		"This vote decides the distribution of %s %s to gauge emissions for the period of %s to %s.\n\n",
		r.TokenToDistribute, tokenSymbol, longDate(from), longDate(to),
	)
	body.WriteString("To vote, distribute your voting power among pools. " +
		"You can vote for as many or as few gauges as you wish. " +
		"You can also vote as many times as you like, overwriting your previous vote with a new vote. " +
		"The aggregate distribution of responses will be used to calculate the reward distribution.\n\n")
	body.WriteString("Pools may have voting incentives provided by other protocols, please check the community channels for details.")

	choices := make([]string, len(r.Gauges))
	for i, g := range r.Gauges {
		choices[i] = g.PoolName
	}

	return ProposalText{
		Title:   fmt.Sprintf("%s gauge vote (Round %d)", tokenSymbol, number),
		Body:    body.String(),
		Choices: choices,
	}, nil
}
