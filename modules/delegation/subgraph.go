package delegation

import (
	"context"
	"strconv"
	"strings"

	"gauge-automation/lib/datastore"
	"gauge-automation/lib/logger"
	"gauge-automation/modules/httputils"

	"github.com/hasura/go-graphql-client"
	"go.uber.org/zap"
)

// Edge is a delegation record as stored by the delegation subgraph. An
// empty Space means the delegation applies to every space.
type Edge struct {
	Delegator string `json:"delegator" graphql:"delegator"`
	Delegate  string `json:"delegate" graphql:"delegate"`
	Space     string `json:"space" graphql:"space"`
}

// SubgraphClient reads delegation edges at historical blocks.
type SubgraphClient struct {
	gql      *graphql.Client
	pageSize int
	cache    *datastore.Cache
	log      *zap.Logger
}

func NewSubgraphClient(
	url string,
	doer httputils.Doer,
	pageSize int,
	cache *datastore.Cache,
	log *zap.Logger,
) *SubgraphClient {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &SubgraphClient{
		gql:      httputils.NewGraphQLClient(url, doer),
		pageSize: pageSize,
		cache:    cache,
		log:      logger.OrNop(log).Named("subgraph"),
	}
}

// Delegations returns every edge of the given spaces at block. Results are
// cached since a past block never changes.
func (s *SubgraphClient) Delegations(ctx context.Context, block uint64, spaces []string) ([]Edge, error) {
	key := datastore.Key(
		"delegations",
		strconv.FormatUint(block, 10),
		strings.Join(spaces, ","),
	)
	cached, err := datastore.Get[[]Edge](ctx, s.cache, key)
	if err != nil {
		s.log.Warn("cache read failed", zap.Error(err))
	} else if cached.IsSome() {
		s.log.Debug("delegations served from cache", zap.Uint64("block", block))
		return cached.Unwrap(), nil
	}

	var q struct {
		Delegations []Edge `graphql:"delegations(first: $first, skip: $skip, block: {number: $block}, where: {space_in: $spaces})"`
	}

	spaceVars := make([]graphql.String, len(spaces))
	for i, sp := range spaces {
		spaceVars[i] = graphql.String(sp)
	}

	edges := make([]Edge, 0)
	for skip := 0; ; skip += s.pageSize {
		q.Delegations = nil
		vars := map[string]any{
			"first":  graphql.Int(s.pageSize),
			"skip":   graphql.Int(skip),
			"block":  graphql.Int(block),
			"spaces": spaceVars,
		}
		if err := httputils.Query(ctx, s.gql, &q, vars, "Delegations"); err != nil {
			return nil, err
		}
		edges = append(edges, q.Delegations...)
		if len(q.Delegations) < s.pageSize {
			break
		}
	}
	s.log.Info("fetched delegations",
		zap.Uint64("block", block),
		zap.Int("count", len(edges)),
	)

	if err := datastore.Put(ctx, s.cache, key, edges); err != nil {
		s.log.Warn("cache write failed", zap.Error(err))
	}
	return edges, nil
}
