package common

import (
	"time"

	"gauge-automation/lib/utils"
	"gauge-automation/modules/config"
	"gauge-automation/modules/snapshot"
)

type gaugeConfig struct {
	Space         string `env:"SNAPSHOT_SPACE" validate:"required"`
	ProposalTitle string `env:"PROPOSAL_TITLE"`
	Network       string `env:"SNAPSHOT_NETWORK" validate:"required"`
	ChainID       string `env:"CHAIN_ID" validate:"required,numeric"`

	HubURL                string `env:"SNAPSHOT_HUB_URL" validate:"required,url"`
	DelegationSubgraphURL string `env:"DELEGATION_SUBGRAPH_URL" validate:"required,url"`
	ScoreAPIURL           string `env:"SCORE_API_URL" validate:"required,url"`
	BackendURL            string `env:"BACKEND_URL" validate:"required,url"`
	RPCURL                string `env:"RPC_URL" validate:"required,url"`

	// index of the delegation strategy in a ballot's vp_by_strategy
	DelegationStrategyIndex int `validate:"min=0"`
	// delegation spaces read besides Space, "" is the global space
	ExtraDelegationSpaces []string `env:"DELEGATION_SPACES"`
	// strategies scoring delegators, the proposal's own strategies minus the
	// delegation strategy when empty
	ScoreStrategies  []snapshot.Strategy
	Precision        int `validate:"min=1,max=17"`
	WeightDecimals   int `validate:"min=0,max=18"`
	PageSize         int `env:"PAGE_SIZE" validate:"min=1,max=1000"`
	ScoreBatchSize   int `validate:"min=1"`
	ScoreConcurrency int `env:"SCORE_CONCURRENCY" validate:"min=1"`

	RewardToken         string `env:"REWARD_TOKEN_ADDRESS" validate:"required,eth_addr"`
	RewardTokenDecimals int    `validate:"min=0,max=36"`
	RewardTokenSymbol   string `env:"REWARD_TOKEN_SYMBOL" validate:"required"`
	SafeAddress         string `env:"SAFE_ADDRESS" validate:"omitempty,eth_addr"`
	DisperseAddress     string `env:"DISPERSE_ADDRESS" validate:"omitempty,eth_addr"`
	MaxTxPerBatch       int    `validate:"min=1"`
	MaxRecipientsPerTx  int    `validate:"min=1"`

	// protocol fees and bribes are paid from the revenue Safe
	RevenueSafeAddress   string `env:"REVENUE_SAFE_ADDRESS" validate:"required,eth_addr"`
	FeeControllerAddress string `env:"FEE_CONTROLLER_ADDRESS" validate:"required,eth_addr"`
	BribeMarketAddress   string `env:"BRIBE_MARKET_ADDRESS" validate:"omitempty,eth_addr"`
	BribeVaultAddress    string `env:"BRIBE_VAULT_ADDRESS" validate:"omitempty,eth_addr"`
	QuestGaugeAddress    string `env:"QUEST_GAUGE_ADDRESS" validate:"required,eth_addr"`

	MaxRetries     int           `env:"MAX_RETRIES" validate:"min=1"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"min=0"`
	CacheDir       string        `env:"CACHE_DIR"`

	MongoURL          string `env:"MONGO_URL" validate:"omitempty,url"`
	MongoDatabase     string `env:"MONGO_DATABASE" validate:"required"`
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL" validate:"omitempty,url"`
	DiscordRoleID     string `env:"DISCORD_ROLE_ID"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=console json"`
}

type gaugeConfigStruct struct {
	*config.Config[gaugeConfig]
}

type GaugeConfig = *gaugeConfigStruct

func NewGaugeConfig(dataDir ...string) GaugeConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return &gaugeConfigStruct{config.New(
		gaugeConfig{
			ProposalTitle: "Gauge",
			Network:       NETWORK,
			ChainID:       NETWORK,

			HubURL:                "https://hub.snapshot.org/graphql",
			DelegationSubgraphURL: "https://subgrapher.snapshot.org/delegation/1",
			ScoreAPIURL:           "https://score.snapshot.org/api/scores",
			BackendURL:            "https://backend-v3.beets-ftm-node.com/graphql",
			RPCURL:                "https://rpc.soniclabs.com",

			DelegationStrategyIndex: 1,
			ExtraDelegationSpaces:   []string{""},
			Precision:               14,
			WeightDecimals:          4,
			PageSize:                1000,
			ScoreBatchSize:          500,
			ScoreConcurrency:        4,

			RewardToken:         REWARD_TOKEN,
			RewardTokenDecimals: 18,
			RewardTokenSymbol:   "BEETS",
			MaxTxPerBatch:       50,
			MaxRecipientsPerTx:  200,

			RevenueSafeAddress:   "0x26377CAB961c84F2d7b9d9e36D296a1C1c77C995",
			FeeControllerAddress: "0xa731C23D7c95436Baaae9D52782f966E1ed07cc8",
			QuestGaugeAddress:    "0xc5E0250037195850E4D987CA25d6ABa68ef5fEe8",

			MaxRetries:     3,
			RequestTimeout: 60 * time.Second,

			MongoDatabase: "gauge-automation",

			LogLevel:  "info",
			LogFormat: "console",
		},
		dataDirPtr,
	)}
}

// DelegationSpaces is Space followed by the extra delegation spaces.
func (c gaugeConfig) DelegationSpaces() []string {
	spaces := append([]string{c.Space}, c.ExtraDelegationSpaces...)
	return utils.Unique(spaces, func(s string) string { return s })
}

// Override changes the loaded configuration for a single run.
type Override = func(*gaugeConfig)

func WithSpace(space string) Override {
	return func(c *gaugeConfig) {
		c.Space = space
	}
}

func WithLogLevel(level string) Override {
	return func(c *gaugeConfig) {
		c.LogLevel = level
	}
}

// Init loads the file and environment, applies overrides and validates the
// result. There is no default space: one must come from SNAPSHOT_SPACE, the
// config file or an override.
func (gc *gaugeConfigStruct) Init(overrides ...Override) error {
	return gc.Config.Init(overrides...)
}
