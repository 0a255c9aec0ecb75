package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/logger"
	"gauge-automation/modules/httputils"

	"github.com/hasura/go-graphql-client"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

const DefaultHubURL = "https://hub.snapshot.org/graphql"

const DefaultPageSize = 1000

type proposalNode struct {
	ID    string `graphql:"id"`
	Title string `graphql:"title"`
	Space struct {
		ID string `graphql:"id"`
	} `graphql:"space"`
	Choices     []string  `graphql:"choices"`
	Scores      []float64 `graphql:"scores"`
	ScoresTotal float64   `graphql:"scores_total"`
	Snapshot    string    `graphql:"snapshot"`
	Strategies  []struct {
		Name    string          `graphql:"name"`
		Network string          `graphql:"network"`
		Params  json.RawMessage `graphql:"params"`
	} `graphql:"strategies"`
	Votes int   `graphql:"votes"`
	End   int64 `graphql:"end"`
}

func (n *proposalNode) toProposal() (Proposal, error) {
	p := Proposal{
		ID:          n.ID,
		Title:       n.Title,
		Space:       n.Space.ID,
		Choices:     n.Choices,
		Scores:      n.Scores,
		ScoresTotal: n.ScoresTotal,
		Votes:       n.Votes,
		End:         n.End,
	}
	if n.Snapshot != "" {
		block, err := strconv.ParseUint(n.Snapshot, 10, 64)
		if err != nil {
			return Proposal{}, fmt.Errorf("invalid snapshot block %q of proposal %s: %w", n.Snapshot, n.ID, err)
		}
		p.SnapshotBlock = block
	}
	for _, s := range n.Strategies {
		p.Strategies = append(p.Strategies, Strategy{
			Name:    s.Name,
			Network: s.Network,
			Params:  s.Params,
		})
	}
	return p, nil
}

type voteNode struct {
	Voter        string          `graphql:"voter"`
	Choice       json.RawMessage `graphql:"choice"`
	VP           float64         `graphql:"vp"`
	VPByStrategy []float64       `graphql:"vp_by_strategy"`
}

// Client reads proposals and votes from a Snapshot hub.
type Client struct {
	gql      *graphql.Client
	pageSize int
	log      *zap.Logger
}

func NewClient(hubURL string, doer httputils.Doer, pageSize int, log *zap.Logger) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		gql:      httputils.NewGraphQLClient(hubURL, doer),
		pageSize: pageSize,
		log:      logger.OrNop(log).Named("snapshot"),
	}
}

func (c *Client) Proposal(ctx context.Context, id string) (Proposal, error) {
	var q struct {
		Proposal *proposalNode `graphql:"proposal(id: $id)"`
	}
	vars := map[string]any{
		"id": graphql.String(id),
	}
	if err := httputils.Query(ctx, c.gql, &q, vars, "Proposal"); err != nil {
		return Proposal{}, err
	}
	if q.Proposal == nil {
		return Proposal{}, errors.NotFoundError.Clone().
			SetData("proposal", id)
	}
	return q.Proposal.toProposal()
}

// Ballots returns every vote of a proposal in creation order, reading pages
// until the hub returns a short one.
func (c *Client) Ballots(ctx context.Context, proposalID string) ([]Ballot, error) {
	var q struct {
		Votes []voteNode `graphql:"votes(first: $first, skip: $skip, where: {proposal: $proposal}, orderBy: \"created\", orderDirection: asc)"`
	}

	ballots := make([]Ballot, 0)
	for skip := 0; ; skip += c.pageSize {
		q.Votes = nil
		vars := map[string]any{
			"first":    graphql.Int(c.pageSize),
			"skip":     graphql.Int(skip),
			"proposal": graphql.String(proposalID),
		}
		if err := httputils.Query(ctx, c.gql, &q, vars, "Votes"); err != nil {
			return nil, err
		}

		for _, v := range q.Votes {
			choice, err := ParseChoice(v.Choice)
			if err != nil {
				return nil, errors.InvalidBallotError.Clone().
					SetData("voter", v.Voter).
					SetData("error", err)
			}
			ballots = append(ballots, Ballot{
				Voter:                 v.Voter,
				Choice:                choice,
				VotingPower:           v.VP,
				VotingPowerByStrategy: v.VPByStrategy,
			})
		}
		c.log.Debug("fetched votes page",
			zap.String("proposal", proposalID),
			zap.Int("skip", skip),
			zap.Int("count", len(q.Votes)),
		)

		if len(q.Votes) < c.pageSize {
			break
		}
	}

	return ballots, nil
}

// ProposalByEnd finds the proposal of space closing at end. When title is set
// only proposals whose title contains it are considered.
func (c *Client) ProposalByEnd(
	ctx context.Context,
	space string,
	end int64,
	title optional.Option[string],
) (Proposal, error) {
	vars := map[string]any{
		"space": graphql.String(space),
		"end":   graphql.Int(end),
	}

	var nodes []proposalNode
	if title.IsSome() {
		var q struct {
			Proposals []proposalNode `graphql:"proposals(first: 1, where: {space: $space, end: $end, title_contains: $title})"`
		}
		vars["title"] = graphql.String(title.Unwrap())
		if err := httputils.Query(ctx, c.gql, &q, vars, "ProposalByEnd"); err != nil {
			return Proposal{}, err
		}
		nodes = q.Proposals
	} else {
		var q struct {
			Proposals []proposalNode `graphql:"proposals(first: 1, where: {space: $space, end: $end})"`
		}
		if err := httputils.Query(ctx, c.gql, &q, vars, "ProposalByEnd"); err != nil {
			return Proposal{}, err
		}
		nodes = q.Proposals
	}

	if len(nodes) == 0 {
		return Proposal{}, errors.NotFoundError.Clone().
			SetData("space", space).
			SetData("end", end)
	}
	return nodes[0].toProposal()
}
