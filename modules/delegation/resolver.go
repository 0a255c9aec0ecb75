package delegation

import (
	"context"
	"fmt"
	"strings"

	"gauge-automation/lib/logger"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/snapshot"

	"github.com/JustinKnueppel/go-result"
	"github.com/chebyrash/promise"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type EdgeSource interface {
	Delegations(ctx context.Context, block uint64, spaces []string) ([]Edge, error)
}

type ScoreSource interface {
	Scores(ctx context.Context, block uint64, strategies []snapshot.Strategy, addresses []string) (map[string]float64, error)
}

type Config struct {
	// ProtocolSpace wins when a delegator delegated in several spaces.
	ProtocolSpace string
	// Spaces are the spaces whose delegations count, usually ProtocolSpace
	// and the global "" space.
	Spaces []string
	// Concurrency bounds the score queries in flight.
	Concurrency int
}

type DelegatorPower struct {
	Delegator   string
	VotingPower float64
}

// Resolution lists the delegators whose power a delegate voted with.
type Resolution struct {
	Delegate   string
	Delegators []DelegatorPower
}

func (r Resolution) Total() float64 {
	total := 0.0
	for _, d := range r.Delegators {
		total += d.VotingPower
	}
	return total
}

type Request struct {
	Block uint64
	// Delegates are the voters whose ballot carried delegated power.
	Delegates []string
	// Voters are all addresses that cast a ballot. A delegator found here
	// voted for themself and is not counted through their delegate.
	Voters []string
	// Strategies compute a delegator's own voting power.
	Strategies []snapshot.Strategy
}

type Resolver struct {
	edges  EdgeSource
	scores ScoreSource
	conf   Config
	log    *zap.Logger
}

func NewResolver(edges EdgeSource, scores ScoreSource, conf Config, log *zap.Logger) *Resolver {
	if conf.Concurrency <= 0 {
		conf.Concurrency = 4
	}
	return &Resolver{
		edges:  edges,
		scores: scores,
		conf:   conf,
		log:    logger.OrNop(log).Named("delegation"),
	}
}

// Resolve returns a Resolution for every requested delegate keyed by the
// lower-cased delegate address. It returns once every score query settled.
func (r *Resolver) Resolve(ctx context.Context, req Request) (map[string]Resolution, error) {
	out := make(map[string]Resolution, len(req.Delegates))
	if len(req.Delegates) == 0 {
		return out, nil
	}

	edges, err := r.edges.Delegations(ctx, req.Block, r.conf.Spaces)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch delegations at block %d: %w", req.Block, err)
	}
	edges = Dedupe(edges, r.conf.ProtocolSpace)
	r.log.Info("resolved delegation edges",
		zap.Uint64("block", req.Block),
		zap.Int("edges", len(edges)),
	)

	voted := make(map[string]struct{}, len(req.Voters))
	for _, v := range req.Voters {
		voted[strings.ToLower(v)] = struct{}{}
	}

	groups := make(map[string]Group)
	for _, g := range GroupByDelegate(edges) {
		groups[g.Delegate] = g
	}

	// queries never reject so that All settles only after every one of them
	sem := semaphore.NewWeighted(int64(r.conf.Concurrency))
	promises := make([]*promise.Promise[result.Result[Resolution]], 0, len(req.Delegates))
	for _, delegate := range req.Delegates {
		delegate := delegate
		key := strings.ToLower(delegate)
		delegators := utils.Filter(groups[key].Delegators, func(d string) bool {
			_, self := voted[strings.ToLower(d)]
			return !self
		})
		r.log.Debug("delegate has delegators",
			zap.String("delegate", delegate),
			zap.Int("delegators", len(delegators)),
		)

		promises = append(promises, utils.PromiseGo(func() (result.Result[Resolution], error) {
			res := Resolution{Delegate: key}
			if len(delegators) == 0 {
				return result.Ok(res), nil
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return result.Err[Resolution](err), nil
			}
			defer sem.Release(1)

			scores, err := r.scores.Scores(ctx, req.Block, req.Strategies, delegators)
			if err != nil {
				return result.Err[Resolution](fmt.Errorf("failed to score delegators of %s: %w", delegate, err)), nil
			}
			res.Delegators = utils.Map(delegators, func(d string) DelegatorPower {
				return DelegatorPower{Delegator: d, VotingPower: scores[strings.ToLower(d)]}
			})
			return result.Ok(res), nil
		}))
	}

	settled, err := promise.All(ctx, promises...).Await(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range *settled {
		if o.IsErr() {
			return nil, o.UnwrapErr()
		}
		res := o.Unwrap()
		out[res.Delegate] = res
	}
	return out, nil
}
