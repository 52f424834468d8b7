package tracker

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/discovery"
	"tools.zach/dev/runtracker/internal/record"
	"tools.zach/dev/runtracker/internal/session"
)

// DefaultTickInterval is the minimum spacing between processing passes.
const DefaultTickInterval = 5 * time.Second

// ///////////////////////////////////////////////
// Engine
// ///////////////////////////////////////////////

// Options configure an [Engine]. Source, Store and Aggregator are required.
type Options struct {
	Source     discovery.Source
	Store      *session.Store
	Aggregator *Aggregator

	// Instances returns the instance directories to scan; nil means none.
	Instances func() []string
	// Benchmark reports whether benchmark mode is on; nil means never.
	Benchmark func() bool
	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
	// TickInterval defaults to [DefaultTickInterval].
	TickInterval time.Duration
}

// Engine runs the tracking cycle. Ticks are serialized by an internal mutex.
type Engine struct {
	src      discovery.Source
	store    *session.Store
	agg      *Aggregator
	inst     func() []string
	bench    func() bool
	readFile func(string) ([]byte, error)
	interval int64

	mu           sync.Mutex
	lastTick     int64
	benchmarkWas bool
	stopped      bool
}

// NewEngine returns an engine over opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		src:      opts.Source,
		store:    opts.Store,
		agg:      opts.Aggregator,
		inst:     opts.Instances,
		bench:    opts.Benchmark,
		readFile: opts.ReadFile,
		interval: opts.TickInterval.Milliseconds(),
	}
	if e.inst == nil {
		e.inst = func() []string { return nil }
	}
	if e.bench == nil {
		e.bench = func() bool { return false }
	}
	if e.readFile == nil {
		e.readFile = os.ReadFile
	}
	if e.interval <= 0 {
		e.interval = DefaultTickInterval.Milliseconds()
	}
	return e
}

// Tick runs one pass at now unless less than the tick interval has elapsed
// since the previous pass. It reports whether a pass ran.
func (e *Engine) Tick(now int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || now-e.lastTick <= e.interval {
		return false
	}
	e.pass(now)
	return true
}

// pass runs one cycle. Callers hold e.mu.
func (e *Engine) pass(now int64) {
	e.lastTick = now

	benchmark := e.bench()
	if benchmark || e.benchmarkWas {
		e.src.Drain()
		if benchmark != e.benchmarkWas {
			slog.Info("benchmark mode changed", "active", benchmark)
		}
		e.benchmarkWas = benchmark
		return
	}

	paths := e.src.Discover(e.inst())
	save := false
	for _, p := range paths {
		res, err := e.process(p)
		if err != nil {
			slog.Error("failed to process a run record", "path", p, "error", err)
			continue
		}
		if e.agg.Apply(res) {
			save = true
		}
	}
	if len(paths) > 0 {
		e.agg.Touch(now)
	}
	if save {
		e.save(now)
	}
}

func (e *Engine) process(path string) (classify.Result, error) {
	data, err := e.readFile(path)
	if err != nil {
		return classify.Result{}, fmt.Errorf("reading record: %w", err)
	}
	rec, err := record.Parse(data)
	if err != nil {
		return classify.Result{}, err
	}
	res := classify.Classify(rec)
	slog.Debug("classified run", "path", path, "tracked", res.Tracked, "regular", res.Regular, "buckets", len(res.Buckets))
	return res, nil
}

// save writes the live session. Failures are logged and otherwise ignored.
func (e *Engine) save(now int64) {
	e.agg.StampEnd(now)
	if err := e.store.Save(e.agg.Snapshot(), now); err != nil {
		slog.Error("failed to save session", "error", err)
	}
}

// Save is an explicit save point.
func (e *Engine) Save(now int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.save(now)
}

// SignalReset is the manual-reset input: it marks the player as started and
// records activity at now.
func (e *Engine) SignalReset(now int64) {
	e.agg.SignalActivity(now)
}

// Snapshot returns a copy of the live session.
func (e *Engine) Snapshot() *session.Session {
	return e.agg.Snapshot()
}

// Clear ends the live session and starts a fresh one at now. Pending
// discovery is discarded and the started flag resets.
func (e *Engine) Clear(now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh, err := e.store.Clear(e.agg.Snapshot(), now)
	e.src.Drain()
	e.agg.Replace(fresh)
	slog.Info("session cleared", "id", fresh.ID())
	return err
}

// Stop runs a final pass regardless of the tick interval, saves the session
// and closes the source. Later calls are no-ops.
func (e *Engine) Stop(now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}
	e.pass(now)
	e.save(now)
	e.stopped = true
	if err := e.src.Close(); err != nil {
		return fmt.Errorf("closing discovery: %w", err)
	}
	return nil
}
