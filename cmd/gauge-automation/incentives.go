package main

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/modules/backend"
	"gauge-automation/modules/export"
	"gauge-automation/modules/safe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWithdrawFeesCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "withdraw-fees",
		Short: "Build the Safe batches withdrawing the protocol fees of every v3 pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withdrawFees(cmd.Context(), name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "withdraw-fees", "file name prefix of the batches")
	return cmd
}

func (a *app) withdrawFees(ctx context.Context, name string) error {
	c := a.conf.Get()
	revenue := common.HexToAddress(c.RevenueSafeAddress)

	ids, err := backend.NewClient(c.BackendURL, a.doer, a.log).V3PoolIDs(ctx)
	if err != nil {
		return err
	}
	// v3 pool ids are the pool addresses
	pools := make([]common.Address, 0, len(ids))
	for _, id := range ids {
		if !common.IsHexAddress(id) {
			return errors.InvalidInputError.Clone().
				SetData("pool", id).
				SetData("reason", "v3 pool id is not an address")
		}
		pools = append(pools, common.HexToAddress(id))
	}
	if len(pools) == 0 {
		a.log.Info("no v3 pools, nothing to withdraw")
		return nil
	}

	txs, err := safe.WithdrawFeesTransactions(common.HexToAddress(c.FeeControllerAddress), revenue, pools)
	if err != nil {
		return err
	}
	_, err = a.writeBatches(revenue, "Withdrawing fees from the fee controller to the revenue msig", name, txs)
	return err
}

func newBribePayloadCmd(a *app) *cobra.Command {
	var end, bribes string

	cmd := &cobra.Command{
		Use:   "bribe-payload",
		Short: "Build the Safe batch depositing the protocol bribes of a round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endTimestamp, err := requiredTimestamp(end, "end", "VOTE_END_TIMESTAMP")
			if err != nil {
				return err
			}
			file, err := required(bribes, "bribes", "BRIBES_FILE")
			if err != nil {
				return err
			}
			c := a.conf.Get()
			if c.BribeMarketAddress == "" {
				return errors.ConfigurationError.Clone().SetData("env", "BRIBE_MARKET_ADDRESS")
			}
			if c.BribeVaultAddress == "" {
				return errors.ConfigurationError.Clone().SetData("env", "BRIBE_VAULT_ADDRESS")
			}
			list, err := export.ReadBribes(file, c.RewardTokenDecimals)
			if err != nil {
				return err
			}
			return a.bribePayload(endTimestamp, list)
		},
	}
	cmd.Flags().StringVar(&end, "end", "", "end timestamp of the round, defaults to VOTE_END_TIMESTAMP")
	cmd.Flags().StringVar(&bribes, "bribes", "", "bribes csv, defaults to BRIBES_FILE")
	return cmd
}

func (a *app) bribePayload(end int64, list []export.Bribe) error {
	c := a.conf.Get()

	bribes := make([]safe.Bribe, 0, len(list))
	total := new(big.Int)
	for _, b := range list {
		amount, err := units.ParseUnits(b.Amount, c.RewardTokenDecimals)
		if err != nil {
			return err
		}
		a.log.Info("bribe",
			zap.String("pool", b.PoolTokenName),
			zap.String("proposal", b.ProposalHash.Hex()),
			zap.String("amount", b.Amount),
		)
		bribes = append(bribes, safe.Bribe{Proposal: b.ProposalHash, Amount: amount})
		total.Add(total, amount)
	}
	if len(bribes) == 0 {
		a.log.Info("no bribes to deposit")
		return nil
	}

	txs, err := safe.BribeTransactions(
		common.HexToAddress(c.BribeMarketAddress),
		common.HexToAddress(c.BribeVaultAddress),
		common.HexToAddress(c.RewardToken),
		bribes,
	)
	if err != nil {
		return err
	}
	a.log.Info("bribes total",
		zap.String("symbol", c.RewardTokenSymbol),
		zap.String("amount", units.FormatUnits(total, c.RewardTokenDecimals)),
	)
	_, err = a.writeBatches(
		common.HexToAddress(c.RevenueSafeAddress),
		"Deposit bribes for gauges",
		fmt.Sprintf("%d-bribes", end),
		txs,
	)
	return err
}

func newQuestBountyCmd(a *app) *cobra.Command {
	var amount, minReward, maxReward, board, token, decimals, name string

	cmd := &cobra.Command{
		Use:   "quest-bounty",
		Short: "Build the Safe batch creating a ranged vote quest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := []struct {
				value *string
				flag  string
				env   string
			}{
				{&amount, "amount", "AMOUNT"},
				{&minReward, "min-reward-per-vote", "MIN_REWARD_PER_VOTE"},
				{&maxReward, "max-reward-per-vote", "MAX_REWARD_PER_VOTE"},
				{&board, "board", "QUEST_BOARD_ADDRESS"},
				{&token, "token", "QUEST_TOKEN_ADDRESS"},
			}
			for _, in := range inputs {
				v, err := required(*in.value, in.flag, in.env)
				if err != nil {
					return err
				}
				*in.value = v
			}
			for _, addr := range []string{board, token} {
				if !common.IsHexAddress(addr) {
					return errors.ConfigurationError.Clone().SetData("address", addr)
				}
			}
			dec, err := strconv.Atoi(decimals)
			if err != nil || dec < 0 || dec > 36 {
				return errors.ConfigurationError.Clone().SetData("flag", "--decimals")
			}
			msig, err := a.safeAddress()
			if err != nil {
				return err
			}

			values := make([]*big.Int, 0, 3)
			for _, v := range []string{amount, minReward, maxReward} {
				parsed, err := units.ParseUnits(v, dec)
				if err != nil {
					return errors.InvalidInputError.Clone().
						SetData("amount", v).
						SetData("error", err)
				}
				values = append(values, parsed)
			}

			q := safe.RangedQuest{
				Board:            common.HexToAddress(board),
				Gauge:            common.HexToAddress(a.conf.Get().QuestGaugeAddress),
				Token:            common.HexToAddress(token),
				Amount:           values[0],
				MinRewardPerVote: values[1],
				MaxRewardPerVote: values[2],
			}
			txs, err := safe.QuestTransactions(q)
			if err != nil {
				return errors.InvalidInputError.Clone().SetData("error", err)
			}
			a.log.Info("quest",
				zap.String("token", q.Token.Hex()),
				zap.String("amount", units.FormatUnits(q.Amount, dec)),
				zap.String("fee", units.FormatUnits(q.Fee(), dec)),
			)
			_, err = a.writeBatches(msig, "Add quest bounty", name, txs)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&amount, "amount", "", "quest rewards in whole tokens, defaults to AMOUNT")
	flags.StringVar(&minReward, "min-reward-per-vote", "", "defaults to MIN_REWARD_PER_VOTE")
	flags.StringVar(&maxReward, "max-reward-per-vote", "", "defaults to MAX_REWARD_PER_VOTE")
	flags.StringVar(&board, "board", "", "quest board of the market, defaults to QUEST_BOARD_ADDRESS")
	flags.StringVar(&token, "token", "", "reward token, defaults to QUEST_TOKEN_ADDRESS")
	flags.StringVar(&decimals, "decimals", "18", "decimals of the reward token")
	flags.StringVar(&name, "name", "quest-bounty", "file name prefix of the batches")
	return cmd
}
