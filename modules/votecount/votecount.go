package votecount

import (
	"context"
	"fmt"
	"strings"

	"gauge-automation/lib/logger"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/allocation"
	"gauge-automation/modules/delegation"
	"gauge-automation/modules/snapshot"

	"go.uber.org/zap"
)

type Fetcher interface {
	Proposal(ctx context.Context, id string) (snapshot.Proposal, error)
	Ballots(ctx context.Context, proposalID string) ([]snapshot.Ballot, error)
}

type Resolver interface {
	Resolve(ctx context.Context, req delegation.Request) (map[string]delegation.Resolution, error)
}

type Config struct {
	// DelegationStrategyIndex is the position of the delegation strategy in
	// a ballot's per strategy voting power.
	DelegationStrategyIndex int
	Precision               int
	// ScoreStrategies compute delegators' own power. When empty the
	// proposal's strategies without the delegation strategy are used.
	ScoreStrategies []snapshot.Strategy
}

type Engine struct {
	conf     Config
	fetcher  Fetcher
	resolver Resolver
	log      *zap.Logger
}

func New(conf Config, fetcher Fetcher, resolver Resolver, log *zap.Logger) *Engine {
	return &Engine{
		conf:     conf,
		fetcher:  fetcher,
		resolver: resolver,
		log:      logger.OrNop(log).Named("votecount"),
	}
}

// Count computes every voter's share of every choice of a closed proposal.
// Power a delegate voted with on behalf of others is attributed to the
// delegators, using the delegate's choices.
func (e *Engine) Count(ctx context.Context, proposalID string) (*allocation.Result, error) {
	e.log.Info("fetching proposal", zap.String("proposal", proposalID))
	proposal, err := e.fetcher.Proposal(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposal: %w", err)
	}

	ballots, err := e.fetcher.Ballots(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes: %w", err)
	}
	e.log.Info("counting votes",
		zap.Int("votes", len(ballots)),
		zap.Uint64("block", proposal.SnapshotBlock),
	)

	acc := allocation.NewAccumulator(&proposal, e.conf.Precision)
	delegated := make([]snapshot.Ballot, 0)
	for _, b := range ballots {
		b := b
		delegatedPower := b.StrategyPower(e.conf.DelegationStrategyIndex)
		if delegatedPower != 0 {
			delegated = append(delegated, b)
		}

		direct := b.VotingPower - delegatedPower
		if direct <= 0 {
			continue
		}
		shares, err := allocation.Shares(b.Voter, b.Choice, direct, &proposal)
		if err != nil {
			return nil, err
		}
		if err := acc.Add(shares...); err != nil {
			return nil, err
		}
	}

	if len(delegated) > 0 {
		if err := e.countDelegated(ctx, &proposal, ballots, delegated, acc); err != nil {
			return nil, err
		}
	}

	res, err := acc.Finalize()
	if err != nil {
		return nil, err
	}
	e.log.Info("votes add up",
		zap.Int("choices", len(res.Choices)),
		zap.Float64("total", res.TotalVotes()),
	)
	return res, nil
}

func (e *Engine) countDelegated(
	ctx context.Context,
	proposal *snapshot.Proposal,
	ballots []snapshot.Ballot,
	delegated []snapshot.Ballot,
	acc *allocation.Accumulator,
) error {
	e.log.Info("counting delegated votes", zap.Int("votes", len(delegated)))

	resolutions, err := e.resolver.Resolve(ctx, delegation.Request{
		Block:      proposal.SnapshotBlock,
		Delegates:  utils.Map(delegated, func(b snapshot.Ballot) string { return b.Voter }),
		Voters:     utils.Map(ballots, func(b snapshot.Ballot) string { return b.Voter }),
		Strategies: e.scoreStrategies(proposal),
	})
	if err != nil {
		return err
	}

	for _, b := range delegated {
		b := b
		res := resolutions[strings.ToLower(b.Voter)]
		for _, d := range res.Delegators {
			shares, err := allocation.Shares(d.Delegator, b.Choice, d.VotingPower, proposal)
			if err != nil {
				return err
			}
			if err := acc.Add(shares...); err != nil {
				return err
			}
		}

		expected := b.StrategyPower(e.conf.DelegationStrategyIndex)
		if total := res.Total(); !allocation.EqualAtPrecision(total, expected, e.precision()) {
			e.log.Warn("delegated votes do not add up",
				zap.String("delegate", b.Voter),
				zap.Int("delegators", len(res.Delegators)),
				zap.Float64("expected", expected),
				zap.Float64("resolved", total),
				zap.Float64("delta", expected-total),
			)
		}
	}
	return nil
}

func (e *Engine) precision() int {
	if e.conf.Precision <= 0 {
		return allocation.DefaultPrecision
	}
	return e.conf.Precision
}

func (e *Engine) scoreStrategies(p *snapshot.Proposal) []snapshot.Strategy {
	if len(e.conf.ScoreStrategies) > 0 {
		return e.conf.ScoreStrategies
	}
	out := make([]snapshot.Strategy, 0, len(p.Strategies))
	for i, s := range p.Strategies {
		if i == e.conf.DelegationStrategyIndex {
			continue
		}
		out = append(out, s)
	}
	return out
}
