package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"strconv"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/modules/gauge"
	"gauge-automation/modules/rounds"
	"gauge-automation/modules/snapshot"

	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitRoundCmd(a *app) *cobra.Command {
	var amount, startDay, endDay, choices, block string

	cmd := &cobra.Command{
		Use:   "init-round",
		Short: "Write the round file of the next gauge vote and print its proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := required(amount, "amount", "TOKEN_TO_DISTRIBUTE")
			if err != nil {
				return err
			}
			start, err := required(startDay, "start-day", "VOTE_START_DAY")
			if err != nil {
				return err
			}
			end, err := required(endDay, "end-day", "VOTE_END_DAY")
			if err != nil {
				return err
			}

			c := a.conf.Get()
			if _, err := units.ParseUnits(total, c.RewardTokenDecimals); err != nil {
				return errors.InvalidInputError.Clone().
					SetData("amount", total).
					SetData("error", err)
			}
			params := rounds.InitParams{TokenToDistribute: total}
			if params.StartDay, err = rounds.ParseDay(start); err != nil {
				return err
			}
			if params.EndDay, err = rounds.ParseDay(end); err != nil {
				return err
			}
			if choices == "" {
				choices = a.path("choices.json")
			}
			if params.Choices, err = rounds.ReadChoices(choices); err != nil {
				return err
			}
			if block = flagOrEnv(block, "SNAPSHOT_BLOCK"); block != "" {
				if params.SnapshotBlock, err = strconv.ParseUint(block, 10, 64); err != nil {
					return errors.InvalidInputError.Clone().
						SetData("block", block).
						SetData("error", err)
				}
			}

			return a.run(cmd.Context(), func(ctx context.Context, st optional.Option[store]) error {
				return a.initRound(ctx, cmd, params, st)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "tokens to distribute this round, defaults to TOKEN_TO_DISTRIBUTE")
	cmd.Flags().StringVar(&startDay, "start-day", "", "first day of the vote (YYYY-MM-DD), defaults to VOTE_START_DAY")
	cmd.Flags().StringVar(&endDay, "end-day", "", "last day of the vote (YYYY-MM-DD), defaults to VOTE_END_DAY")
	cmd.Flags().StringVar(&choices, "choices", "", "json object of pool name to pool id, defaults to <data-dir>/choices.json")
	cmd.Flags().StringVar(&block, "block", "", "snapshot block, looked up from the vote start when empty")
	return cmd
}

func (a *app) initRound(ctx context.Context, cmd *cobra.Command, params rounds.InitParams, st optional.Option[store]) error {
	c := a.conf.Get()
	r := rounds.New(params)

	if r.SnapshotBlock == 0 {
		reader, err := gauge.Dial(ctx, c.RPCURL, a.log)
		if err != nil {
			return err
		}
		if r.SnapshotBlock, err = reader.BlockAtTimestamp(ctx, r.StartTimestamp); err != nil {
			return err
		}
	}

	text, err := r.Proposal(c.RewardTokenSymbol)
	if err != nil {
		return err
	}
	if err := rounds.Save(a.dataDir, r); err != nil {
		return err
	}
	a.log.Info("round initialised",
		zap.Int64("start", r.StartTimestamp),
		zap.Int64("end", r.EndTimestamp),
		zap.Uint64("snapshot", r.SnapshotBlock),
		zap.String("file", rounds.Path(a.dataDir, r.EndTimestamp)),
	)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Space: %s\nStart: %d\nEnd: %d\nSnapshot: %d\n\n", c.Space, r.StartTimestamp, r.EndTimestamp, r.SnapshotBlock)
	fmt.Fprintf(w, "%s\n\n%s\n\nChoices:\n", text.Title, text.Body)
	for _, choice := range text.Choices {
		fmt.Fprintf(w, "- %s\n", choice)
	}

	if s, err := st.Take(); err == nil {
		return s.rounds.Upsert(ctx, r)
	}
	return nil
}

func newCalculateRoundCmd(a *app) *cobra.Command {
	var end string

	cmd := &cobra.Command{
		Use:   "calculate-round",
		Short: "Split a round's budget between the pools by the vote result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireRound(end); err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, st optional.Option[store]) error {
				r, err := a.loadRound(ctx, end, st)
				if err != nil {
					return err
				}
				return a.calculateRound(ctx, r, st)
			})
		},
	}
	cmd.Flags().StringVar(&end, "end", "", endUsage)
	return cmd
}

const endUsage = "end timestamp of the round, defaults to VOTE_END_TIMESTAMP or the latest stored round"

// requireRound fails before any network call when no round can be picked.
func (a *app) requireRound(end string) error {
	if flagOrEnv(end, "VOTE_END_TIMESTAMP") != "" || a.conf.Get().MongoURL != "" {
		return nil
	}
	_, err := required(end, "end", "VOTE_END_TIMESTAMP")
	return err
}

// loadRound reads the round ending at --end or VOTE_END_TIMESTAMP. A round
// missing from the data dir is taken from the results store. Without an end
// timestamp the latest stored round is used.
func (a *app) loadRound(ctx context.Context, end string, st optional.Option[store]) (*rounds.Round, error) {
	s, noStore := st.Take()

	if flagOrEnv(end, "VOTE_END_TIMESTAMP") == "" {
		if noStore != nil {
			_, err := required(end, "end", "VOTE_END_TIMESTAMP")
			return nil, err
		}
		latest, err := s.rounds.Latest(ctx)
		if err != nil {
			return nil, err
		}
		r, err := latest.Take()
		if err != nil {
			return nil, errors.NotFoundError.Clone().SetData("round", "latest")
		}
		a.log.Info("using the latest stored round", zap.Int64("end", r.EndTimestamp))
		return &r, nil
	}

	endTimestamp, err := requiredTimestamp(end, "end", "VOTE_END_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	r, err := rounds.Load(a.dataDir, endTimestamp)
	if noStore != nil || !goerrors.Is(err, errors.NotFoundError) {
		return r, err
	}
	stored, err := s.rounds.Get(ctx, endTimestamp)
	if err != nil {
		return nil, err
	}
	found, err := stored.Take()
	if err != nil {
		return nil, errors.NotFoundError.Clone().SetData("round", endTimestamp)
	}
	return &found, nil
}

func (a *app) calculateRound(ctx context.Context, r *rounds.Round, st optional.Option[store]) error {
	c := a.conf.Get()
	hub := snapshot.NewClient(c.HubURL, a.doer, c.PageSize, a.log)

	title := optional.None[string]()
	if c.ProposalTitle != "" {
		title = optional.Some(c.ProposalTitle)
	}
	p, err := hub.ProposalByEnd(ctx, c.Space, r.EndTimestamp, title)
	if err != nil {
		return err
	}

	pools, err := r.Calculate(&p, c.RewardTokenDecimals, c.WeightDecimals)
	if err != nil {
		return err
	}
	for _, pool := range pools {
		a.log.Info("pool allocation",
			zap.String("pool", pool.PoolName),
			zap.String("weight", units.FormatUnits(pool.Weight, c.WeightDecimals)),
			zap.String("amount", units.FormatUnits(pool.Amount, c.RewardTokenDecimals)),
		)
	}

	if err := rounds.Save(a.dataDir, r); err != nil {
		return err
	}
	a.log.Info("round calculated",
		zap.String("proposal", p.ID),
		zap.String("file", rounds.Path(a.dataDir, r.EndTimestamp)),
	)

	if s, err := st.Take(); err == nil {
		return s.rounds.Upsert(ctx, r)
	}
	return nil
}
