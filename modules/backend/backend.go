package backend

import (
	"context"
	"strings"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/logger"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/httputils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hasura/go-graphql-client"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

const DefaultURL = "https://backend-v3.beets-ftm-node.com/graphql"

type Pool struct {
	ID      string
	Name    string
	Address common.Address
	// Gauge is None for pools without staking gauge
	Gauge optional.Option[common.Address]
}

type poolNode struct {
	ID      string `graphql:"id"`
	Name    string `graphql:"name"`
	Address string `graphql:"address"`
	Staking *struct {
		Gauge *struct {
			GaugeAddress string `graphql:"gaugeAddress"`
		} `graphql:"gauge"`
	} `graphql:"staking"`
}

func (n poolNode) toPool() Pool {
	p := Pool{
		ID:      strings.ToLower(n.ID),
		Name:    n.Name,
		Address: common.HexToAddress(n.Address),
		Gauge:   optional.None[common.Address](),
	}
	if n.Staking != nil && n.Staking.Gauge != nil && common.IsHexAddress(n.Staking.Gauge.GaugeAddress) {
		p.Gauge = optional.Some(common.HexToAddress(n.Staking.Gauge.GaugeAddress))
	}
	return p
}

type poolID struct {
	ID string `graphql:"id"`
}

// Client queries the pool API of the protocol backend.
type Client struct {
	gql *graphql.Client
	log *zap.Logger
}

func NewClient(url string, doer httputils.Doer, log *zap.Logger) *Client {
	return &Client{
		gql: httputils.NewGraphQLClient(url, doer),
		log: logger.OrNop(log).Named("backend"),
	}
}

// Pools looks up pools by id. Every requested id must be known to the
// backend.
func (c *Client) Pools(ctx context.Context, ids []string) ([]Pool, error) {
	if len(ids) == 0 {
		return []Pool{}, nil
	}
	var q struct {
		Pools []poolNode `graphql:"poolGetPools(where: {chainIn: [SONIC], idIn: $ids})"`
	}
	vars := map[string]any{
		"ids": utils.Map(ids, func(id string) graphql.String {
			return graphql.String(strings.ToLower(id))
		}),
	}
	if err := httputils.Query(ctx, c.gql, &q, vars, "PoolsByID"); err != nil {
		return nil, err
	}

	pools := utils.Map(q.Pools, poolNode.toPool)
	known := utils.Map(pools, func(p Pool) string { return p.ID })
	for _, id := range ids {
		if utils.IndexOf(known, strings.ToLower(id)) < 0 {
			return nil, errors.NotFoundError.Clone().SetData("pool", id)
		}
	}
	c.log.Debug("fetched pools", zap.Int("count", len(pools)))
	return pools, nil
}

// GaugeAddresses maps each pool id to its gauge. Pools without a gauge are
// a NotFoundError since rewards cannot be deposited for them.
func (c *Client) GaugeAddresses(ctx context.Context, ids []string) (map[string]common.Address, error) {
	pools, err := c.Pools(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]common.Address, len(pools))
	for _, p := range pools {
		gauge, err := p.Gauge.Take()
		if err != nil {
			return nil, errors.NotFoundError.Clone().
				SetData("pool", p.ID).
				SetData("name", p.Name).
				SetData("reason", "pool has no gauge")
		}
		out[p.ID] = gauge
	}
	return out, nil
}

// V3PoolIDs lists the ids of every v3 pool on the chain.
func (c *Client) V3PoolIDs(ctx context.Context) ([]string, error) {
	var q struct {
		Pools []poolID `graphql:"poolGetPools(where: {chainIn: [SONIC], protocolVersionIn: [3]})"`
	}
	if err := httputils.Query(ctx, c.gql, &q, nil, "V3Pools"); err != nil {
		return nil, err
	}
	return utils.Map(q.Pools, func(p poolID) string {
		return strings.ToLower(p.ID)
	}), nil
}
