// Package session holds the persisted aggregate of one play session and the
// store that saves, resumes, rotates and lists sessions on disk.
//
// A session is written to two places on every save: the always-overwritten
// current file and a historical file named after the session start time. The
// JSON field names are stable so files from older builds keep loading; the
// schema is versioned through [migrate.Session].
package session

import (
	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/migrate"
)

// ///////////////////////////////////////////////
// Session
// ///////////////////////////////////////////////

// Session is the cumulative statistics of one play session. All timestamps
// are Unix milliseconds and all durations milliseconds.
type Session struct {
	// Version is the schema version. See [migrate.Session].
	Version int `json:"$version"`

	StartTime    int64 `json:"sessionStartTime"`
	EndTime      int64 `json:"sessionEndTime"`
	LastActivity int64 `json:"lastActivity"`
	Resets       int64 `json:"resets"`

	RunsWithGold       int64 `json:"runsWithGold"`
	RunsWithVillage    int64 `json:"runsWithVillage"`
	RunsWithTrading    int64 `json:"runsWithTrading"`
	RunsWith10Pearls   int64 `json:"runsWith10Pearls"`
	RunsWithNether     int64 `json:"runsWithNether"`
	RunsWithFort       int64 `json:"runsWithFort"`
	RunsWithNetherExit int64 `json:"runsWithNetherExit"`
	RunsWithStronghold int64 `json:"runsWithStronghold"`
	RunsWithEndEnter   int64 `json:"runsWithEndEnter"`
	RunsFinished       int64 `json:"runsFinished"`

	// Regular-shape runs only.
	GoldBlockPickupTimes []int64 `json:"goldBlockPickupTimes"`
	VillageEnterTimes    []int64 `json:"villageEnterTimes"`
	NetherEnterTimes     []int64 `json:"netherEnterTimes"`
	FortressEnterTimes   []int64 `json:"fortressEnterTimes"`
	NetherExitTimes      []int64 `json:"netherExitTimes"`

	// Any tracked run.
	StrongholdEnterTimes []int64 `json:"strongholdEnterTimes"`
	EndEnterTimes        []int64 `json:"endEnterTimes"`
	RunFinishTimes       []int64 `json:"runFinishTimes"`

	Breaks []int64 `json:"breaks"`
}

// New returns an empty session started at now.
func New(now int64) *Session {
	s := &Session{
		Version:      migrate.Session.CurrentVersion,
		StartTime:    now,
		EndTime:      now,
		LastActivity: now,
	}
	s.normalize()
	return s
}

// ID is the session identifier used for the historical file name.
func (s *Session) ID() int64 { return s.StartTime }

// counter returns the field backing b, or nil for an unknown bucket.
func (s *Session) counter(b classify.Bucket) *int64 {
	switch b {
	case classify.BucketGold:
		return &s.RunsWithGold
	case classify.BucketVillage:
		return &s.RunsWithVillage
	case classify.BucketTrading:
		return &s.RunsWithTrading
	case classify.BucketTenPearls:
		return &s.RunsWith10Pearls
	case classify.BucketNether:
		return &s.RunsWithNether
	case classify.BucketFort:
		return &s.RunsWithFort
	case classify.BucketNetherExit:
		return &s.RunsWithNetherExit
	case classify.BucketStronghold:
		return &s.RunsWithStronghold
	case classify.BucketEndEnter:
		return &s.RunsWithEndEnter
	case classify.BucketFinished:
		return &s.RunsFinished
	}
	return nil
}

func (s *Session) series(x classify.Series) *[]int64 {
	switch x {
	case classify.SeriesGoldBlock:
		return &s.GoldBlockPickupTimes
	case classify.SeriesVillage:
		return &s.VillageEnterTimes
	case classify.SeriesNether:
		return &s.NetherEnterTimes
	case classify.SeriesFortress:
		return &s.FortressEnterTimes
	case classify.SeriesNetherExit:
		return &s.NetherExitTimes
	case classify.SeriesStronghold:
		return &s.StrongholdEnterTimes
	case classify.SeriesEndEnter:
		return &s.EndEnterTimes
	case classify.SeriesFinish:
		return &s.RunFinishTimes
	}
	return nil
}

// Count returns the value of counter b.
func (s *Session) Count(b classify.Bucket) int64 {
	if p := s.counter(b); p != nil {
		return *p
	}
	return 0
}

// Increment adds one to counter b.
func (s *Session) Increment(b classify.Bucket) {
	if p := s.counter(b); p != nil {
		*p++
	}
}

// Times returns series x. The slice aliases the session.
func (s *Session) Times(x classify.Series) []int64 {
	if p := s.series(x); p != nil {
		return *p
	}
	return nil
}

// Append adds ms to series x.
func (s *Session) Append(x classify.Series, ms int64) {
	if p := s.series(x); p != nil {
		*p = append(*p, ms)
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	for _, x := range classify.AllSeries() {
		*c.series(x) = append([]int64{}, s.Times(x)...)
	}
	c.Breaks = append([]int64{}, s.Breaks...)
	return &c
}

// normalize replaces nil series with empty ones so they encode as [].
func (s *Session) normalize() {
	for _, x := range classify.AllSeries() {
		if p := s.series(x); *p == nil {
			*p = []int64{}
		}
	}
	if s.Breaks == nil {
		s.Breaks = []int64{}
	}
}

// ///////////////////////////////////////////////
// Arithmetic
// ///////////////////////////////////////////////

// Mean returns the arithmetic mean of xs rounded toward zero, or 0 when xs is
// empty.
func Mean(xs []int64) int64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return sum / int64(len(xs))
}

// BreakTotal is the summed length of all recorded breaks.
func (s *Session) BreakTotal() int64 {
	var sum int64
	for _, b := range s.Breaks {
		sum += b
	}
	return sum
}

// Length returns the session length up to end, never negative.
func (s *Session) Length(end int64) int64 {
	return max(end-s.StartTime, 0)
}

// TimePlayed returns the session length up to end minus recorded breaks,
// never negative.
func (s *Session) TimePlayed(end int64) int64 {
	return max(s.Length(end)-s.BreakTotal(), 0)
}
