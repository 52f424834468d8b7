package session

import (
	"fmt"

	"tools.zach/dev/runtracker/internal/classify"
)

// ///////////////////////////////////////////////
// Summary
// ///////////////////////////////////////////////

// Row is one counter line of a [Summary].
type Row struct {
	Label string `json:"label" yaml:"label"`
	Count int64  `json:"count" yaml:"count"`
	// Average is the series mean in milliseconds; 0 means none.
	Average int64 `json:"averageMillis,omitempty" yaml:"average_millis,omitempty"`
	// Group separates related rows when rendered.
	Group int `json:"group" yaml:"group"`
}

// Summary is the presentation-ready digest of a session.
type Summary struct {
	ID           int64 `json:"id" yaml:"id"`
	Length       int64 `json:"lengthMillis" yaml:"length_millis"`
	Played       int64 `json:"playedMillis" yaml:"played_millis"`
	Breaks       int   `json:"breaks" yaml:"breaks"`
	AverageBreak int64 `json:"averageBreakMillis,omitempty" yaml:"average_break_millis,omitempty"`
	Resets       int64 `json:"resets" yaml:"resets"`
	Rows         []Row `json:"rows" yaml:"rows"`
}

// summaryRows lists the rendered counters in display order. A row without a
// series has no average.
var summaryRows = []struct {
	label  string
	bucket classify.Bucket
	series classify.Series
	avg    bool
	group  int
}{
	{"Gold blocks mined", classify.BucketGold, classify.SeriesGoldBlock, true, 0},
	{"Villages entered", classify.BucketVillage, classify.SeriesVillage, true, 1},
	{"Villages with trading", classify.BucketTrading, 0, false, 1},
	{"Runs with 10 pearls", classify.BucketTenPearls, 0, false, 1},
	{"Nethers entered", classify.BucketNether, classify.SeriesNether, true, 2},
	{"Fortresses entered", classify.BucketFort, classify.SeriesFortress, true, 2},
	{"Nethers exited", classify.BucketNetherExit, classify.SeriesNetherExit, true, 2},
	{"Strongholds entered", classify.BucketStronghold, classify.SeriesStronghold, true, 3},
	{"Ends entered", classify.BucketEndEnter, classify.SeriesEndEnter, true, 3},
	{"Runs finished", classify.BucketFinished, classify.SeriesFinish, true, 4},
}

// Summarize digests s as of end. Counters that are zero are omitted.
func Summarize(s *Session, end int64) Summary {
	sum := Summary{
		ID:           s.ID(),
		Length:       s.Length(end),
		Played:       s.TimePlayed(end),
		Breaks:       len(s.Breaks),
		AverageBreak: Mean(s.Breaks),
		Resets:       s.Resets,
	}
	for _, r := range summaryRows {
		n := s.Count(r.bucket)
		if n == 0 {
			continue
		}
		row := Row{Label: r.label, Count: n, Group: r.group}
		if r.avg {
			row.Average = Mean(s.Times(r.series))
		}
		sum.Rows = append(sum.Rows, row)
	}
	return sum
}

// FormatMillis renders a duration as m:ss, or h:mm:ss from one hour up.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, sec := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
