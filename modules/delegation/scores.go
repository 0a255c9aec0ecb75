package delegation

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"gauge-automation/lib/datastore"
	"gauge-automation/lib/logger"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/httputils"
	"gauge-automation/modules/snapshot"

	"github.com/go-playground/validator/v10"
	ds "github.com/ipfs/go-datastore"
	"go.uber.org/zap"
)

const DefaultScoreAPIURL = "https://score.snapshot.org/api/scores"

type scoreParams struct {
	Space      string              `json:"space"`
	Network    string              `json:"network"`
	Snapshot   uint64              `json:"snapshot"`
	Strategies []snapshot.Strategy `json:"strategies"`
	Addresses  []string            `json:"addresses"`
}

type scoreResponse struct {
	Result struct {
		Scores []map[string]float64 `json:"scores" validate:"required"`
	} `json:"result" validate:"required"`
}

// ScoreClient queries voting power of addresses at a block from a Snapshot
// score API.
type ScoreClient struct {
	url       string
	space     string
	network   string
	batchSize int
	doer      httputils.Doer
	cache     *datastore.Cache
	validate  *validator.Validate
	log       *zap.Logger
}

func NewScoreClient(
	url string,
	space string,
	network string,
	batchSize int,
	doer httputils.Doer,
	cache *datastore.Cache,
	log *zap.Logger,
) *ScoreClient {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ScoreClient{
		url:       url,
		space:     space,
		network:   network,
		batchSize: batchSize,
		doer:      doer,
		cache:     cache,
		validate:  validator.New(),
		log:       logger.OrNop(log).Named("scores"),
	}
}

// Scores returns the voting power of every address at block keyed by the
// lower-cased address. Power from several strategies is summed and
// addresses the API does not know have 0.
func (s *ScoreClient) Scores(
	ctx context.Context,
	block uint64,
	strategies []snapshot.Strategy,
	addresses []string,
) (map[string]float64, error) {
	out := make(map[string]float64, len(addresses))
	for _, a := range addresses {
		out[strings.ToLower(a)] = 0
	}

	for _, batch := range utils.Chunk(addresses, s.batchSize) {
		scores, err := s.fetch(ctx, block, strategies, batch)
		if err != nil {
			return nil, err
		}
		for addr, vp := range scores {
			if _, ok := out[addr]; ok {
				out[addr] += vp
			}
		}
	}
	return out, nil
}

func (s *ScoreClient) fetch(
	ctx context.Context,
	block uint64,
	strategies []snapshot.Strategy,
	addresses []string,
) (map[string]float64, error) {
	strategies = utils.Map(strategies, func(st snapshot.Strategy) snapshot.Strategy {
		if st.Network == "" {
			st.Network = s.network
		}
		return st
	})

	key := s.cacheKey(block, strategies, addresses)
	cached, err := datastore.Get[map[string]float64](ctx, s.cache, key)
	if err != nil {
		s.log.Warn("cache read failed", zap.Error(err))
	} else if cached.IsSome() {
		return cached.Unwrap(), nil
	}

	u, err := httputils.MakeUrl(s.url, nil)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"params": scoreParams{
			Space:      s.space,
			Network:    s.network,
			Snapshot:   block,
			Strategies: strategies,
			Addresses:  addresses,
		},
	}
	req, err := httputils.MakeJSONRequest(ctx, http.MethodPost, u, body, nil)
	if err != nil {
		return nil, err
	}

	res, err := httputils.SendRequest[scoreResponse](s.doer, req, s.validate)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for _, perStrategy := range res.Result.Scores {
		for addr, vp := range perStrategy {
			scores[strings.ToLower(addr)] += vp
		}
	}
	s.log.Debug("fetched scores",
		zap.Uint64("block", block),
		zap.Int("addresses", len(addresses)),
	)

	if err := datastore.Put(ctx, s.cache, key, scores); err != nil {
		s.log.Warn("cache write failed", zap.Error(err))
	}
	return scores, nil
}

func (s *ScoreClient) cacheKey(block uint64, strategies []snapshot.Strategy, addresses []string) ds.Key {
	parts := []string{"scores", s.space, s.network, strconv.FormatUint(block, 10)}
	for _, st := range strategies {
		parts = append(parts, st.Name, st.Network, string(st.Params))
	}
	parts = append(parts, addresses...)
	return datastore.Key(parts...)
}
