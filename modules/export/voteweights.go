package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gauge-automation/lib/errors"
	"gauge-automation/modules/allocation"
)

var VoteWeightsHeader = []string{"poolName", "wallet", "absoluteVotes", "shareVote"}

type VoteWeightRow struct {
	PoolName      string  `bson:"poolName" json:"poolName"`
	Wallet        string  `bson:"wallet" json:"wallet"`
	AbsoluteVotes float64 `bson:"absoluteVotes" json:"absoluteVotes"`
	ShareVote     float64 `bson:"shareVote" json:"shareVote"`
}

// pool names are written unquoted, so commas and line breaks are dropped
var poolNameReplacer = strings.NewReplacer(",", "", "\r", "", "\n", "")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// VoteWeightRows flattens a result into export rows, skipping voters without
// votes for a choice.
func VoteWeightRows(res *allocation.Result) []VoteWeightRow {
	rows := make([]VoteWeightRow, 0)
	for _, c := range res.Choices {
		pool := poolNameReplacer.Replace(c.Label)
		for _, s := range c.Shares {
			if s.AbsoluteVotes == 0 {
				continue
			}
			rows = append(rows, VoteWeightRow{
				PoolName:      pool,
				Wallet:        s.Voter,
				AbsoluteVotes: s.AbsoluteVotes,
				ShareVote:     s.VoteShare,
			})
		}
	}
	return rows
}

// WriteVoteWeights writes plain comma separated lines without any quoting.
func WriteVoteWeights(path string, rows []VoteWeightRow) error {
	return writeAtomic(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, strings.Join(VoteWeightsHeader, ",")); err != nil {
			return err
		}
		for _, r := range rows {
			_, err := fmt.Fprintln(w, strings.Join([]string{
				poolNameReplacer.Replace(r.PoolName),
				r.Wallet,
				formatFloat(r.AbsoluteVotes),
				formatFloat(r.ShareVote),
			}, ","))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func ReadVoteWeights(path string) ([]VoteWeightRow, error) {
	records, err := readCSV(path, VoteWeightsHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]VoteWeightRow, 0, len(records))
	for i, rec := range records {
		votes, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, rowError(path, i, "absoluteVotes", err)
		}
		share, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, rowError(path, i, "shareVote", err)
		}
		rows = append(rows, VoteWeightRow{
			PoolName:      rec[0],
			Wallet:        rec[1],
			AbsoluteVotes: votes,
			ShareVote:     share,
		})
	}
	return rows, nil
}

// readCSV returns the records after a header that must match header.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	r.TrimLeadingSpace = true
	// unquoted fields may carry quotes
	r.LazyQuotes = true

	got, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.InvalidInputError.Clone().
				SetData("file", path).
				SetData("reason", "empty file")
		}
		return nil, errors.InvalidInputError.Clone().
			SetData("file", path).
			SetData("error", err)
	}
	for i := range header {
		if strings.TrimSpace(got[i]) != header[i] {
			return nil, errors.InvalidInputError.Clone().
				SetData("file", path).
				SetData("header", strings.Join(got, ","))
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.InvalidInputError.Clone().
			SetData("file", path).
			SetData("error", err)
	}
	return records, nil
}

func rowError(path string, row int, column string, err error) error {
	return errors.InvalidInputError.Clone().
		SetData("file", path).
		SetData("row", row+2).
		SetData("column", column).
		SetData("error", err)
}
