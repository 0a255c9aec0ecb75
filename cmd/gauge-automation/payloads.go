package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/lib/utils"
	"gauge-automation/modules/backend"
	"gauge-automation/modules/bounty"
	"gauge-automation/modules/export"
	"gauge-automation/modules/gauge"
	"gauge-automation/modules/notify"
	"gauge-automation/modules/rounds"
	"gauge-automation/modules/safe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// chain prefix of the Safe web app
const safeChain = "sonic"

func (a *app) safeAddress() (common.Address, error) {
	addr := a.conf.Get().SafeAddress
	if addr == "" {
		return common.Address{}, errors.ConfigurationError.Clone().SetData("env", "SAFE_ADDRESS")
	}
	return common.HexToAddress(addr), nil
}

func (a *app) notify(ctx context.Context, message string) {
	if err := a.discord.Send(ctx, message); err != nil {
		a.log.Warn("failed to send notification", zap.Error(err))
	}
}

// writeBatches writes txs as Safe batches to be proposed from msig.
func (a *app) writeBatches(msig common.Address, description string, name string, txs []safe.Transaction) ([]string, error) {
	c := a.conf.Get()
	builder := &safe.Builder{ChainID: c.ChainID, Safe: msig, MaxTxPerBatch: c.MaxTxPerBatch}
	batches, err := builder.Batches(description, txs)
	if err != nil {
		return nil, err
	}
	paths, err := safe.Write(a.transactionsDir(), name, batches)
	if err != nil {
		return nil, err
	}
	a.log.Info("safe batches written",
		zap.Int("transactions", len(txs)),
		zap.Strings("files", paths),
	)
	return paths, nil
}

func newRewardPayloadCmd(a *app) *cobra.Command {
	var end string

	cmd := &cobra.Command{
		Use:   "reward-payload",
		Short: "Build the Safe batches depositing a round's weekly gauge rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireRound(end); err != nil {
				return err
			}
			if _, err := a.safeAddress(); err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, st optional.Option[store]) error {
				r, err := a.loadRound(ctx, end, st)
				if err != nil {
					return err
				}
				return a.rewardPayload(ctx, r, st)
			})
		},
	}
	cmd.Flags().StringVar(&end, "end", "", endUsage)
	return cmd
}

// resolveGauges fills in the gauge address of every gauge of r that has
// none yet.
func (a *app) resolveGauges(ctx context.Context, r *rounds.Round) error {
	unknown := utils.Filter(r.Gauges, func(g rounds.Gauge) bool {
		return g.GaugeAddress == ""
	})
	if len(unknown) == 0 {
		return nil
	}

	client := backend.NewClient(a.conf.Get().BackendURL, a.doer, a.log)
	addresses, err := client.GaugeAddresses(ctx, utils.Map(unknown, func(g rounds.Gauge) string {
		return g.PoolID
	}))
	if err != nil {
		return err
	}
	for i := range r.Gauges {
		g := &r.Gauges[i]
		if g.GaugeAddress != "" {
			continue
		}
		addr, ok := addresses[strings.ToLower(g.PoolID)]
		if !ok {
			return errors.NotFoundError.Clone().SetData("pool", g.PoolID)
		}
		g.GaugeAddress = addr.Hex()
	}
	return nil
}

func (a *app) rewardPayload(ctx context.Context, r *rounds.Round, st optional.Option[store]) error {
	c := a.conf.Get()
	token := common.HexToAddress(c.RewardToken)
	msig, err := a.safeAddress()
	if err != nil {
		return err
	}

	if err := a.resolveGauges(ctx, r); err != nil {
		return err
	}
	reader, err := gauge.Dial(ctx, c.RPCURL, a.log)
	if err != nil {
		return err
	}

	addrs := utils.Map(r.Gauges, func(g rounds.Gauge) common.Address {
		return common.HexToAddress(g.GaugeAddress)
	})
	statuses, err := reader.InspectAll(ctx, addrs, token, msig)
	if err != nil {
		return err
	}

	rows := make([]export.RewardPayloadRow, 0, len(r.Gauges))
	rewards := make([]safe.GaugeReward, 0, len(r.Gauges))
	wrong := make([]string, 0)
	total := new(big.Int)
	for i, g := range r.Gauges {
		amount, err := units.ParseUnits(g.WeeklyAmountFromGauge, c.RewardTokenDecimals)
		if err != nil {
			return errors.InvalidInputError.Clone().
				SetData("pool", g.PoolName).
				SetData("error", err)
		}
		addr, status := addrs[i], statuses[i]

		rows = append(rows, export.RewardPayloadRow{
			PoolID:              g.PoolID,
			PoolName:            g.PoolName,
			GaugeAddress:        addr,
			Amount:              g.WeeklyAmountFromGauge,
			AddRewardToken:      !status.HasToken,
			HasWrongDistributor: status.WrongDistributor,
		})
		if status.WrongDistributor {
			wrong = append(wrong, addr.Hex())
			continue
		}
		rewards = append(rewards, safe.GaugeReward{Gauge: addr, AddToken: !status.HasToken, Amount: amount})
		total.Add(total, amount)
	}

	csvPath := a.path("payloads", fmt.Sprintf("%d-rewards.csv", r.EndTimestamp))
	if err := export.WriteRewardPayload(csvPath, rows); err != nil {
		return err
	}

	txs, err := safe.RewardTransactions(token, msig, rewards)
	if err != nil {
		return err
	}
	_, err = a.writeBatches(
		msig,
		fmt.Sprintf("Weekly gauge rewards of the round ending %d", r.EndTimestamp),
		fmt.Sprintf("%d-rewards", r.EndTimestamp),
		txs,
	)
	if err != nil {
		return err
	}

	if err := rounds.Save(a.dataDir, r); err != nil {
		return err
	}
	if s, err := st.Take(); err == nil {
		if err := s.rounds.Upsert(ctx, r); err != nil {
			return err
		}
	}

	if len(wrong) > 0 {
		return errors.InvalidInputError.Clone().
			SetData("gauges", strings.Join(wrong, ",")).
			SetData("payload", csvPath).
			SetData("reason", "reward token is registered with another distributor")
	}

	a.notify(ctx, notify.RewardsProposed(
		c.DiscordRoleID,
		[]notify.TokenTotal{{Symbol: c.RewardTokenSymbol, Amount: units.FormatUnits(total, c.RewardTokenDecimals)}},
		notify.SafeQueueURL(safeChain, msig.Hex()),
	))
	return nil
}

func newDisperseBountiesCmd(a *app) *cobra.Command {
	var voteWeights, proposal, bounties, name string

	cmd := &cobra.Command{
		Use:   "disperse-bounties",
		Short: "Build the Safe batches paying pool bounties to their voters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vw := flagOrEnv(voteWeights, "VOTE_WEIGHTS_FILE")
			id := flagOrEnv(proposal, "SNAPSHOT_ID")
			if vw == "" && (id == "" || a.conf.Get().MongoURL == "") {
				_, err := required(vw, "vote-weights", "VOTE_WEIGHTS_FILE")
				return err
			}
			b, err := required(bounties, "bounties", "BOUNTIES_FILE")
			if err != nil {
				return err
			}
			if _, err := a.safeAddress(); err != nil {
				return err
			}
			if a.conf.Get().DisperseAddress == "" {
				return errors.ConfigurationError.Clone().SetData("env", "DISPERSE_ADDRESS")
			}
			list, err := export.ReadBounties(b)
			if err != nil {
				return err
			}

			if vw != "" {
				rows, err := export.ReadVoteWeights(vw)
				if err != nil {
					return err
				}
				return a.disperseBounties(cmd.Context(), name, rows, list)
			}
			return a.run(cmd.Context(), func(ctx context.Context, st optional.Option[store]) error {
				s, err := st.Take()
				if err != nil {
					return err
				}
				stored, err := s.voteWeights.Get(ctx, id)
				if err != nil {
					return err
				}
				weights, err := stored.Take()
				if err != nil {
					return errors.NotFoundError.Clone().SetData("proposal", id)
				}
				return a.disperseBounties(ctx, name, weights.Rows, list)
			})
		},
	}
	cmd.Flags().StringVar(&voteWeights, "vote-weights", "", "vote weights csv, defaults to VOTE_WEIGHTS_FILE")
	cmd.Flags().StringVar(&proposal, "proposal", "", "read the vote weights of this proposal from the results store instead, defaults to SNAPSHOT_ID")
	cmd.Flags().StringVar(&bounties, "bounties", "", "bounties csv, defaults to BOUNTIES_FILE")
	cmd.Flags().StringVar(&name, "name", "bounties", "file name prefix of the batches")
	return cmd
}

func (a *app) disperseBounties(ctx context.Context, name string, rows []export.VoteWeightRow, bounties []export.Bounty) error {
	c := a.conf.Get()
	disperseAddr := common.HexToAddress(c.DisperseAddress)

	disperses, err := bounty.Disperse(rows, bounties)
	if err != nil {
		return err
	}

	txs := make([]safe.Transaction, 0)
	totals := make([]notify.TokenTotal, 0, len(disperses))
	voters := make(map[common.Address]bool)
	for _, d := range disperses {
		recipients := utils.Map(d.Recipients, func(r bounty.Recipient) common.Address { return r.Address })
		amounts := utils.Map(d.Recipients, func(r bounty.Recipient) *big.Int { return r.Amount })
		for _, r := range recipients {
			voters[r] = true
		}

		t, err := safe.DisperseTransactions(disperseAddr, d.Token, recipients, amounts, c.MaxRecipientsPerTx)
		if err != nil {
			return err
		}
		txs = append(txs, t...)

		total := units.FormatUnits(d.Total, d.Decimals)
		totals = append(totals, notify.TokenTotal{Symbol: d.Token.Hex(), Amount: total})
		a.log.Info("bounty dispersed",
			zap.String("token", d.Token.Hex()),
			zap.String("total", total),
			zap.Int("recipients", len(recipients)),
		)
	}

	msig, err := a.safeAddress()
	if err != nil {
		return err
	}
	if _, err := a.writeBatches(msig, "Voter bounties", name, txs); err != nil {
		return err
	}

	a.notify(ctx, notify.BountiesProposed(
		c.DiscordRoleID,
		totals,
		len(voters),
		notify.SafeQueueURL(safeChain, msig.Hex()),
	))
	return nil
}
