// Package tracker drives run tracking: [Aggregator] owns the live session and
// applies classification results to it, and [Engine] runs the rate-limited
// discover, parse, classify, aggregate and save cycle.
package tracker

import (
	"sync"
	"time"

	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/session"
)

// DefaultBreakThreshold is the inactivity gap above which a break is recorded.
const DefaultBreakThreshold = 2 * time.Minute

// ///////////////////////////////////////////////
// Aggregator
// ///////////////////////////////////////////////

// Aggregator guards the live session. Every mutation takes the mutex;
// readers get copies from [Aggregator.Snapshot].
type Aggregator struct {
	mu sync.Mutex
	s  *session.Session
	// started is set by the first manual-reset activity. Resets and
	// automatic activity only count once it is set.
	started        bool
	breakThreshold int64
}

// NewAggregator takes ownership of s. A non-positive breakThreshold selects
// [DefaultBreakThreshold].
func NewAggregator(s *session.Session, breakThreshold time.Duration) *Aggregator {
	if breakThreshold <= 0 {
		breakThreshold = DefaultBreakThreshold
	}
	return &Aggregator{s: s, breakThreshold: breakThreshold.Milliseconds()}
}

// Apply adds the increments of res to the session. Results that failed the
// eligibility gate are ignored. It reports whether a save should follow, which
// is whenever at least one bucket was incremented.
func (a *Aggregator) Apply(res classify.Result) bool {
	if !res.Tracked {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		a.s.Resets++
	}
	for _, e := range res.Series {
		a.s.Append(e.Series, e.Millis)
	}
	for _, b := range res.Buckets {
		a.s.Increment(b)
	}
	return res.Saves()
}

// SignalActivity records manual-reset activity at now. The first call marks
// the player as started.
func (a *Aggregator) SignalActivity(now int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = true
	a.touch(now)
}

// Touch records automatic activity at now. It has no effect until the player
// has started.
func (a *Aggregator) Touch(now int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		a.touch(now)
	}
}

// touch appends a break when the gap since the last activity exceeds the
// threshold, then moves the activity mark. Callers hold a.mu.
func (a *Aggregator) touch(now int64) {
	gap := now - a.s.LastActivity
	if gap < 0 {
		gap = -gap
	}
	if gap > a.breakThreshold {
		a.s.Breaks = append(a.s.Breaks, gap)
	}
	a.s.LastActivity = now
}

// Started reports whether manual-reset activity has been seen.
func (a *Aggregator) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

// Gold returns the session's gold run count.
func (a *Aggregator) Gold() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s.RunsWithGold
}

// Snapshot returns a deep copy of the live session.
func (a *Aggregator) Snapshot() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s.Clone()
}

// StampEnd sets the live session's end time.
func (a *Aggregator) StampEnd(now int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.s.EndTime = now
}

// Replace swaps in s and clears the started flag.
func (a *Aggregator) Replace(s *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.s = s
	a.started = false
}
