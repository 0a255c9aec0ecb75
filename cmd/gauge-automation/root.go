package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"gauge-automation/lib/datastore"
	"gauge-automation/lib/errors"
	"gauge-automation/lib/logger"
	"gauge-automation/modules/aggregate"
	"gauge-automation/modules/common"
	"gauge-automation/modules/config"
	"gauge-automation/modules/db"
	"gauge-automation/modules/db/gauges"
	"gauge-automation/modules/db/gauges/gauge_rounds"
	"gauge-automation/modules/db/gauges/vote_weights"
	"gauge-automation/modules/httputils"
	"gauge-automation/modules/notify"

	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/sethgrid/pester"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every command shares once the root command set it up.
type app struct {
	dataDir  string
	envFile  string
	space    string
	logLevel string

	conf    common.GaugeConfig
	log     *zap.Logger
	doer    *pester.Client
	cache   *datastore.Cache
	discord *notify.Discord
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gauge-automation",
		Short:         "Gauge vote counting, round management and reward payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dataDir, "data-dir", config.DATA_DIR, "directory of config, rounds and generated files")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config, ignored when missing")
	flags.StringVar(&a.space, "space", "", "snapshot space, overrides SNAPSHOT_SPACE")
	flags.StringVar(&a.logLevel, "log-level", "", "log level, one of debug, info, warn, error")

	root.AddCommand(
		newVoteWeightsCmd(a),
		newInitRoundCmd(a),
		newCalculateRoundCmd(a),
		newRewardPayloadCmd(a),
		newDisperseBountiesCmd(a),
		newWithdrawFeesCmd(a),
		newBribePayloadCmd(a),
		newQuestBountyCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !os.IsNotExist(err) {
			return errors.ConfigurationError.Clone().
				SetData("file", a.envFile).
				SetData("error", err)
		}
	}

	overrides := make([]common.Override, 0, 2)
	if a.space != "" {
		overrides = append(overrides, common.WithSpace(a.space))
	}
	if a.logLevel != "" {
		overrides = append(overrides, common.WithLogLevel(a.logLevel))
	}
	a.conf = common.NewGaugeConfig(a.dataDir)
	if err := a.conf.Init(overrides...); err != nil {
		return err
	}

	c := a.conf.Get()
	log, err := logger.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return errors.ConfigurationError.Clone().SetData("error", err)
	}
	a.log = log

	a.doer = httputils.NewClient(httputils.RetryConfig{
		MaxRetries: c.MaxRetries,
		Timeout:    c.RequestTimeout,
	})
	a.cache = datastore.New(c.CacheDir)
	a.discord = notify.NewDiscord(c.DiscordWebhookURL, a.doer, a.log)
	return nil
}

// store is the optional results database.
type store struct {
	rounds      gauge_rounds.GaugeRounds
	voteWeights vote_weights.Store
}

// run starts the shared plugins plus the results store when configured and
// runs job with them.
func (a *app) run(ctx context.Context, job func(ctx context.Context, st optional.Option[store]) error) error {
	c := a.conf.Get()
	plugins := []aggregate.Plugin{a.cache}

	st := optional.None[store]()
	if c.MongoURL != "" {
		d := db.New(db.Config{URI: c.MongoURL, Timeout: c.RequestTimeout})
		gdb := gauges.New(d, c.MongoDatabase)
		s := store{
			rounds:      gauge_rounds.New(gdb),
			voteWeights: vote_weights.New(gdb),
		}
		plugins = append(plugins, d, gdb, s.rounds, s.voteWeights)
		st = optional.Some(s)
	} else {
		a.log.Debug("no MONGO_URL configured, results are only written to files")
	}

	return aggregate.New(plugins).Run(ctx, func(ctx context.Context) error {
		return job(ctx, st)
	})
}

func (a *app) path(parts ...string) string {
	return filepath.Join(append([]string{a.dataDir}, parts...)...)
}

func (a *app) transactionsDir() string {
	return a.path("transactions")
}

// flagOrEnv falls back to an environment variable, read after the dotenv
// file was loaded.
func flagOrEnv(value string, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}

// required is flagOrEnv for inputs a command cannot run without.
func required(value string, flag string, env string) (string, error) {
	v := flagOrEnv(value, env)
	if v == "" {
		return "", errors.ConfigurationError.Clone().
			SetData("flag", "--"+flag).
			SetData("env", env)
	}
	return v, nil
}

func requiredTimestamp(value string, flag string, env string) (int64, error) {
	v, err := required(value, flag, env)
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.ConfigurationError.Clone().
			SetData("flag", "--"+flag).
			SetData("error", err)
	}
	return ts, nil
}
