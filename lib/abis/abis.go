package abis

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20JSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address","internalType":"address"},{"name":"amount","type":"uint256","internalType":"uint256"}],
	 "outputs":[{"name":"","type":"bool","internalType":"bool"}]}
]`

const gaugeJSON = `[
	{"type":"function","name":"add_reward","stateMutability":"nonpayable",
	 "inputs":[{"name":"_reward_token","type":"address"},{"name":"_distributor","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"deposit_reward_token","stateMutability":"nonpayable",
	 "inputs":[{"name":"_reward_token","type":"address"},{"name":"_amount","type":"uint256"}],
	 "outputs":[]},
	{"type":"function","name":"reward_count","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"reward_tokens","stateMutability":"view",
	 "inputs":[{"name":"arg0","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"reward_data","stateMutability":"view",
	 "inputs":[{"name":"arg0","type":"address"}],
	 "outputs":[
		{"name":"distributor","type":"address"},
		{"name":"period_finish","type":"uint256"},
		{"name":"rate","type":"uint256"},
		{"name":"last_update","type":"uint256"},
		{"name":"integral","type":"uint256"}
	 ]}
]`

const disperseJSON = `[
	{"type":"function","name":"disperseToken","stateMutability":"nonpayable",
	 "inputs":[{"name":"token","type":"address"},{"name":"recipients","type":"address[]"},{"name":"values","type":"uint256[]"}],
	 "outputs":[]}
]`

const feeControllerJSON = `[
	{"type":"function","name":"withdrawProtocolFees","stateMutability":"nonpayable",
	 "inputs":[{"name":"pool","type":"address","internalType":"address"},{"name":"recipient","type":"address","internalType":"address"}],
	 "outputs":[]}
]`

const bribeMarketJSON = `[
	{"type":"function","name":"depositBribe","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"_proposal","type":"bytes32"},
		{"name":"_token","type":"address"},
		{"name":"_amount","type":"uint256"},
		{"name":"_maxTokensPerVote","type":"uint256"},
		{"name":"_periods","type":"uint256"}
	 ],
	 "outputs":[]}
]`

const questBoardJSON = `[
	{"type":"function","name":"createRangedQuest","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"gauge","type":"address","internalType":"address"},
		{"name":"rewardToken","type":"address","internalType":"address"},
		{"name":"startNextPeriod","type":"bool","internalType":"bool"},
		{"name":"duration","type":"uint48","internalType":"uint48"},
		{"name":"minRewardPerVote","type":"uint256","internalType":"uint256"},
		{"name":"maxRewardPerVote","type":"uint256","internalType":"uint256"},
		{"name":"totalRewardAmount","type":"uint256","internalType":"uint256"},
		{"name":"feeAmount","type":"uint256","internalType":"uint256"},
		{"name":"voteType","type":"uint8","internalType":"enum QuestDataTypes.QuestVoteType"},
		{"name":"closeType","type":"uint8","internalType":"enum QuestDataTypes.QuestCloseType"},
		{"name":"voterList","type":"uint256[]","internalType":"uint256[]"}
	 ],
	 "outputs":[{"name":"","type":"uint256","internalType":"uint256"}]}
]`

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	ERC20    = mustParse(erc20JSON)
	Gauge    = mustParse(gaugeJSON)
	Disperse = mustParse(disperseJSON)

	FeeController = mustParse(feeControllerJSON)
	BribeMarket   = mustParse(bribeMarketJSON)
	QuestBoard    = mustParse(questBoardJSON)
)
