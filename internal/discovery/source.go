// Package discovery finds run-record files that appeared since the previous
// pass. Two strategies implement [Source]: [Reactive] watches the shared
// records directory for new files, and [Polling] follows each instance's
// attempt counter into its numbered world folders.
package discovery

import (
	"fmt"
)

// Source yields newly appeared record paths.
type Source interface {
	// Discover returns absolute record paths that appeared since the last
	// call. It never blocks.
	Discover(instances []string) []string
	// Drain discards pending notifications without processing them.
	Drain()
	Close() error
}

// Strategy names a discovery implementation in config.
type Strategy string

const (
	StrategyReactive Strategy = "reactive"
	StrategyPolling  Strategy = "polling"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyReactive || s == StrategyPolling
}

// New opens the source for strategy. recordsDir is only used by the reactive
// strategy and layout only by polling.
func New(strategy Strategy, recordsDir string, layout Layout) (Source, error) {
	switch strategy {
	case StrategyReactive:
		return NewReactive(recordsDir), nil
	case StrategyPolling:
		return NewPolling(layout), nil
	default:
		return nil, fmt.Errorf("unknown discovery strategy %q", strategy)
	}
}
