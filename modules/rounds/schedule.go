package rounds

import (
	"time"

	"gauge-automation/lib/errors"
	"gauge-automation/modules/common"
)

const DayLayout = "2006-01-02"

func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, errors.InvalidInputError.Clone().
			SetData("day", day).
			SetData("error", err)
	}
	return t, nil
}

func atHour(day time.Time, hour int) time.Time {
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// VoteStart is the opening time of a vote starting on day.
func VoteStart(day time.Time) int64 {
	return atHour(day, common.SCHEDULE.VoteEndHourUTC).Unix()
}

// VoteEnd is the closing time of a vote ending on day.
func VoteEnd(day time.Time) int64 {
	return atHour(day, common.SCHEDULE.VoteStartHourUTC).Unix()
}

// Number returns the 1-based round of a vote opening at start.
func Number(start int64) (int64, error) {
	first := VoteStart(common.FIRST_GAUGE_VOTE_DAY)
	length := int64(common.ROUND_LENGTH / time.Second)
	if start < first || (start-first)%length != 0 {
		return 0, errors.InvalidInputError.Clone().
			SetData("start", start).
			SetData("reason", "not a round start")
	}
	return (start-first)/length + 1, nil
}

// EmissionPeriod returns the first and last day emissions decided by a vote
// ending on voteEnd are paid.
func EmissionPeriod(voteEnd time.Time) (time.Time, time.Time) {
	start := atHour(voteEnd, 0).AddDate(0, 0, common.SCHEDULE.EmissionDelayDays)
	return start, start.AddDate(0, 0, common.SCHEDULE.EmissionDays)
}
