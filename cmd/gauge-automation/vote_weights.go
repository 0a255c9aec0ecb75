package main

import (
	"context"

	"gauge-automation/modules/db/gauges/vote_weights"
	"gauge-automation/modules/delegation"
	"gauge-automation/modules/export"
	"gauge-automation/modules/snapshot"
	"gauge-automation/modules/votecount"

	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVoteWeightsCmd(a *app) *cobra.Command {
	var proposal, out string

	cmd := &cobra.Command{
		Use:   "vote-weights",
		Short: "Count a closed proposal and export every voter's share per pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := required(proposal, "proposal", "SNAPSHOT_ID")
			if err != nil {
				return err
			}
			if out == "" {
				out = a.path("vote-weights", id+".csv")
			}
			return a.run(cmd.Context(), func(ctx context.Context, st optional.Option[store]) error {
				return a.voteWeights(ctx, id, out, st)
			})
		},
	}
	cmd.Flags().StringVar(&proposal, "proposal", "", "snapshot proposal id, defaults to SNAPSHOT_ID")
	cmd.Flags().StringVar(&out, "out", "", "csv file to write, defaults to <data-dir>/vote-weights/<proposal>.csv")
	return cmd
}

func (a *app) countEngine() *votecount.Engine {
	c := a.conf.Get()

	hub := snapshot.NewClient(c.HubURL, a.doer, c.PageSize, a.log)
	edges := delegation.NewSubgraphClient(c.DelegationSubgraphURL, a.doer, c.PageSize, a.cache, a.log)
	scores := delegation.NewScoreClient(c.ScoreAPIURL, c.Space, c.Network, c.ScoreBatchSize, a.doer, a.cache, a.log)
	resolver := delegation.NewResolver(edges, scores, delegation.Config{
		ProtocolSpace: c.Space,
		Spaces:        c.DelegationSpaces(),
		Concurrency:   c.ScoreConcurrency,
	}, a.log)

	return votecount.New(votecount.Config{
		DelegationStrategyIndex: c.DelegationStrategyIndex,
		Precision:               c.Precision,
		ScoreStrategies:         c.ScoreStrategies,
	}, hub, resolver, a.log)
}

func (a *app) voteWeights(ctx context.Context, proposal string, out string, st optional.Option[store]) error {
	res, err := a.countEngine().Count(ctx, proposal)
	if err != nil {
		return err
	}

	rows := export.VoteWeightRows(res)
	if err := export.WriteVoteWeights(out, rows); err != nil {
		return err
	}
	a.log.Info("vote weights written",
		zap.String("proposal", proposal),
		zap.String("file", out),
		zap.Int("rows", len(rows)),
	)

	if s, err := st.Take(); err == nil {
		err := s.voteWeights.Replace(ctx, vote_weights.VoteWeights{
			ProposalID: proposal,
			Space:      a.conf.Get().Space,
			Rows:       rows,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
