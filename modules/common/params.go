package common

import "time"

// chain id of Sonic, also used as the snapshot network
var NETWORK = "146"

var REWARD_TOKEN = "0x2d0e0814e62d80056181f5cd932274405966e4f0"

var FIRST_GAUGE_VOTE_DAY = time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)

var ROUND_LENGTH = 14 * 24 * time.Hour

var SCHEDULE = struct {
	VoteStartHourUTC int
	VoteEndHourUTC   int
	// days between the end of a vote and the start of its emissions
	EmissionDelayDays int
	EmissionDays      int
}{
	VoteStartHourUTC:  20,
	VoteEndHourUTC:    8,
	EmissionDelayDays: 2,
	EmissionDays:      13,
}
