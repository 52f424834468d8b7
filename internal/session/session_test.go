// Tests for the in-memory session model: counter and series accessors, deep
// copies, arithmetic helpers and the rendered summary.
package session

import (
	"testing"

	"tools.zach/dev/runtracker/internal/classify"
)

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

func TestCountersAndSeries(t *testing.T) {
	s := New(0)
	for _, b := range classify.AllBuckets() {
		s.Increment(b)
		s.Increment(b)
		if s.Count(b) != 2 {
			t.Errorf("Count(%v) = %d, want 2", b, s.Count(b))
		}
	}
	for _, x := range classify.AllSeries() {
		s.Append(x, 5)
		if got := s.Times(x); len(got) != 1 || got[0] != 5 {
			t.Errorf("Times(%v) = %v, want [5]", x, got)
		}
	}
	if s.RunsWith10Pearls != 2 || len(s.NetherExitTimes) != 1 {
		t.Error("accessors should write the named fields")
	}

	s.Increment(classify.Bucket(99))
	s.Append(classify.Series(99), 1)
	if s.Count(classify.Bucket(99)) != 0 || s.Times(classify.Series(99)) != nil {
		t.Error("unknown bucket or series should be ignored")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := New(0)
	s.Append(classify.SeriesStronghold, 1)
	s.Breaks = append(s.Breaks, 200000)

	c := s.Clone()
	c.Append(classify.SeriesStronghold, 2)
	c.Breaks[0] = 1
	c.RunsWithGold = 9

	if len(s.StrongholdEnterTimes) != 1 || s.Breaks[0] != 200000 || s.RunsWithGold != 0 {
		t.Errorf("mutating the clone changed the original: %+v", s)
	}
}

// ///////////////////////////////////////////////
// Arithmetic
// ///////////////////////////////////////////////

func TestMean(t *testing.T) {
	tests := []struct {
		xs   []int64
		want int64
	}{
		{nil, 0},
		{[]int64{10}, 10},
		{[]int64{10, 20}, 15},
		{[]int64{1, 2}, 1},
	}
	for _, tt := range tests {
		if got := Mean(tt.xs); got != tt.want {
			t.Errorf("Mean(%v) = %d, want %d", tt.xs, got, tt.want)
		}
	}
}

func TestTimePlayed(t *testing.T) {
	s := New(1000)
	s.Breaks = []int64{150_000, 250_000}
	if got := s.Length(1_001_000); got != 1_000_000 {
		t.Errorf("Length = %d, want 1000000", got)
	}
	if got := s.TimePlayed(1_001_000); got != 600_000 {
		t.Errorf("TimePlayed = %d, want 600000", got)
	}
	if got := s.TimePlayed(2000); got != 0 {
		t.Errorf("TimePlayed should clamp at 0, got %d", got)
	}
	if got := s.Length(0); got != 0 {
		t.Errorf("Length should clamp at 0, got %d", got)
	}
}

// ///////////////////////////////////////////////
// Summary
// ///////////////////////////////////////////////

func TestSummarize(t *testing.T) {
	s := New(0)
	s.Resets = 120
	s.Breaks = []int64{200_000, 400_000}
	s.RunsWithGold = 3
	s.GoldBlockPickupTimes = []int64{30_000, 60_000}
	s.RunsWithTrading = 1
	s.RunsFinished = 1

	sum := Summarize(s, 3_600_000)
	if sum.Length != 3_600_000 || sum.Played != 3_000_000 {
		t.Errorf("Length/Played = %d/%d", sum.Length, sum.Played)
	}
	if sum.Breaks != 2 || sum.AverageBreak != 300_000 || sum.Resets != 120 {
		t.Errorf("summary header = %+v", sum)
	}

	want := []Row{
		{Label: "Gold blocks mined", Count: 3, Average: 45_000, Group: 0},
		{Label: "Villages with trading", Count: 1, Group: 1},
		{Label: "Runs finished", Count: 1, Group: 4},
	}
	if len(sum.Rows) != len(want) {
		t.Fatalf("Rows = %+v, want %+v", sum.Rows, want)
	}
	for i := range want {
		if sum.Rows[i] != want[i] {
			t.Errorf("Rows[%d] = %+v, want %+v", i, sum.Rows[i], want[i])
		}
	}
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59_999, "0:59"},
		{61_000, "1:01"},
		{3_600_000, "1:00:00"},
		{3_725_000, "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatMillis(tt.ms); got != tt.want {
			t.Errorf("FormatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
