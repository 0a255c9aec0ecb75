package gauge

import (
	"context"
	"fmt"
	"math/big"

	"gauge-automation/lib/abis"
	"gauge-automation/lib/errors"
	"gauge-automation/lib/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// concurrent gauge inspections of InspectAll
const inspectLimit = 8

// Chain is the subset of ethclient.Client the reader needs.
type Chain interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

var _ Chain = &ethclient.Client{}

type Reader struct {
	chain Chain
	log   *zap.Logger
}

func NewReader(chain Chain, log *zap.Logger) *Reader {
	return &Reader{chain: chain, log: logger.OrNop(log).Named("gauge")}
}

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.ConfigurationError.Clone().
			SetData("rpc", url).
			SetData("error", err)
	}
	return NewReader(client, log), nil
}

func (r *Reader) call(ctx context.Context, gauge common.Address, method string, args ...any) ([]any, error) {
	data, err := abis.Gauge.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := r.chain.CallContract(ctx, ethereum.CallMsg{To: &gauge, Data: data}, nil)
	if err != nil {
		return nil, errors.TransientNetworkError.Clone().
			SetData("gauge", gauge.Hex()).
			SetData("method", method).
			SetData("error", err)
	}
	values, err := abis.Gauge.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s of %s: %w", method, gauge.Hex(), err)
	}
	return values, nil
}

func (r *Reader) RewardCount(ctx context.Context, gauge common.Address) (uint64, error) {
	values, err := r.call(ctx, gauge, "reward_count")
	if err != nil {
		return 0, err
	}
	return values[0].(*big.Int).Uint64(), nil
}

func (r *Reader) RewardToken(ctx context.Context, gauge common.Address, i uint64) (common.Address, error) {
	values, err := r.call(ctx, gauge, "reward_tokens", new(big.Int).SetUint64(i))
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

// RewardTokens lists every reward token registered on gauge.
func (r *Reader) RewardTokens(ctx context.Context, gauge common.Address) ([]common.Address, error) {
	count, err := r.RewardCount(ctx, gauge)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, count)
	for i := uint64(0); i < count; i++ {
		token, err := r.RewardToken(ctx, gauge, i)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

// Distributor returns the address allowed to deposit token into gauge.
func (r *Reader) Distributor(ctx context.Context, gauge common.Address, token common.Address) (common.Address, error) {
	values, err := r.call(ctx, gauge, "reward_data", token)
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

type Status struct {
	HasToken    bool
	Distributor common.Address
	// WrongDistributor is set when the token is registered with another
	// distributor than the expected one.
	WrongDistributor bool
}

func (r *Reader) Inspect(ctx context.Context, gauge common.Address, token common.Address, distributor common.Address) (Status, error) {
	tokens, err := r.RewardTokens(ctx, gauge)
	if err != nil {
		return Status{}, err
	}

	status := Status{}
	for _, t := range tokens {
		if t == token {
			status.HasToken = true
			break
		}
	}
	if !status.HasToken {
		return status, nil
	}

	status.Distributor, err = r.Distributor(ctx, gauge, token)
	if err != nil {
		return Status{}, err
	}
	status.WrongDistributor = status.Distributor != distributor
	if status.WrongDistributor {
		r.log.Warn("reward token has another distributor",
			zap.String("gauge", gauge.Hex()),
			zap.String("distributor", status.Distributor.Hex()),
			zap.String("expected", distributor.Hex()),
		)
	}
	return status, nil
}

// InspectAll inspects every gauge, returning the statuses in the order of
// gauges. The first failing call cancels the rest.
func (r *Reader) InspectAll(ctx context.Context, gauges []common.Address, token common.Address, distributor common.Address) ([]Status, error) {
	out := make([]Status, len(gauges))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(inspectLimit)
	for i, addr := range gauges {
		i, addr := i, addr
		g.Go(func() error {
			status, err := r.Inspect(ctx, addr, token, distributor)
			if err != nil {
				return err
			}
			out[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BlockAtTimestamp returns the number of the last block produced at or
// before ts.
func (r *Reader) BlockAtTimestamp(ctx context.Context, ts int64) (uint64, error) {
	head, err := r.chain.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, errors.TransientNetworkError.Clone().SetData("error", err)
	}
	target := uint64(ts)
	if head.Time <= target {
		return head.Number.Uint64(), nil
	}

	lo, hi := uint64(0), head.Number.Uint64()
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		header, err := r.chain.HeaderByNumber(ctx, new(big.Int).SetUint64(mid))
		if err != nil {
			return 0, errors.TransientNetworkError.Clone().
				SetData("block", mid).
				SetData("error", err)
		}
		if header.Time <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	genesis, err := r.chain.HeaderByNumber(ctx, new(big.Int).SetUint64(lo))
	if err != nil {
		return 0, errors.TransientNetworkError.Clone().SetData("error", err)
	}
	if genesis.Time > target {
		return 0, errors.NotFoundError.Clone().SetData("timestamp", ts)
	}
	return lo, nil
}
