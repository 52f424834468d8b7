package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	rootpkg "tools.zach/dev/runtracker"
	"tools.zach/dev/runtracker/internal/config"
	"tools.zach/dev/runtracker/internal/discovery"
	"tools.zach/dev/runtracker/internal/logger"
	"tools.zach/dev/runtracker/internal/session"
	"tools.zach/dev/runtracker/internal/tracker"
)

// loopInterval is how often the daemon offers the engine a tick. The engine
// enforces its own, longer spacing.
const loopInterval = time.Second

// control is an input delivered to a running daemon from another process.
type control int

const (
	// controlReset is the manual-reset activity input.
	controlReset control = iota
	// controlClear ends the live session and starts a fresh one.
	controlClear
)

func (c control) String() string {
	switch c {
	case controlReset:
		return "reset"
	case controlClear:
		return "clear"
	default:
		return "unknown"
	}
}

// ///////////////////////////////////////////////
// run Command
// ///////////////////////////////////////////////

func newRunCmd(a *app) *cobra.Command {
	var foreground bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tracking daemon",
		Long: `Run the tracking daemon in the foreground of this process. It discovers new
run records, updates the live session and saves it whenever a run reaches the
gold block. Stop it with Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var console io.Writer
			if foreground {
				console = cmd.ErrOrStderr()
			}
			return a.runDaemon(console)
		},
	}
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Copy log lines to stderr")
	return cmd
}

// loadConfig writes the annotated default config on first run, then loads it.
func (a *app) loadConfig() (*config.Config, error) {
	dp := a.paths()
	if err := os.MkdirAll(dp.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(dp.Config()); errors.Is(err, fs.ErrNotExist) {
		if writeErr := os.WriteFile(dp.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			slog.Warn("failed to write default config", "error", writeErr)
		}
	}
	return config.Load(dp.Root)
}

func (a *app) runDaemon(console io.Writer) error {
	dp := a.paths()
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if alive, pid := checkStalePID(dp); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	log, logCloser, err := logger.NewLogger(logger.Options{
		Path:      dp.Log(),
		Level:     logger.ParseLevel(cfg.Log.Level),
		MaxSizeMB: cfg.Log.MaxSizeMB,
		Console:   console,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("runtracker starting", "version", resolveVersion(), "data_dir", dp.Root, "strategy", cfg.Records.Strategy)

	token := pidToken()
	pidFile, err := writePID(dp, token)
	if err != nil {
		return err
	}
	defer removePID(dp, token, pidFile)

	src, err := discovery.New(cfg.Strategy(), cfg.RecordsPath(), cfg.Layout())
	if err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}

	engine := newEngine(cfg, dp, src, time.Now().UnixMilli())
	serve(engine, signalChannel(), controlChannel(), loopInterval, nowMillis)
	if err := engine.Stop(nowMillis()); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("runtracker stopped")
	return nil
}

// newEngine loads or resumes the session at now and assembles the tracker.
func newEngine(cfg *config.Config, dp DataPaths, src discovery.Source, now int64) *tracker.Engine {
	st := session.NewStore(dp, cfg.ResumeWindow())
	agg := tracker.NewAggregator(st.Load(now), cfg.BreakThreshold())

	var instances func() []string
	if cfg.Strategy() == discovery.StrategyPolling {
		instances = cfg.ExpandInstances
		if n := len(instances()); n == 0 {
			slog.Warn("no instance directories matched", "patterns", cfg.Instances.Paths)
		} else {
			slog.Info("tracking instances", "count", n)
		}
	}
	return tracker.NewEngine(tracker.Options{
		Source:       src,
		Store:        st,
		Aggregator:   agg,
		Instances:    instances,
		Benchmark:    cfg.BenchmarkActive,
		TickInterval: cfg.TickInterval(),
	})
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// ///////////////////////////////////////////////
// Event Loop
// ///////////////////////////////////////////////

// serve offers the engine a tick every interval and applies controls until a
// shutdown signal arrives.
func serve(e *tracker.Engine, shutdown <-chan os.Signal, controls <-chan control, interval time.Duration, clock func() int64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.Tick(clock())
	for {
		select {
		case sig := <-shutdown:
			slog.Info("received shutdown signal", "signal", sig)
			return

		case c := <-controls:
			applyControl(e, c, clock())

		case <-ticker.C:
			e.Tick(clock())
		}
	}
}

func applyControl(e *tracker.Engine, c control, now int64) {
	slog.Info("control received", "control", c)
	switch c {
	case controlReset:
		e.SignalReset(now)
	case controlClear:
		if err := e.Clear(now); err != nil {
			slog.Error("clear failed", "error", err)
		}
	}
}
