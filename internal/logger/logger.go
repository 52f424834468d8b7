// Package logger provides structured logging with custom levels and formatting
// for the tracker daemon and its CLI commands.
//
// Log output format:
//
//	2006-01-02T15:04:05.000Z [LEVEL] message | key=value, key2="value with spaces"
//
// Custom levels beyond the standard slog set:
//   - LevelTrace (-8): per-tick and per-file diagnostics
//   - LevelFail  (12): errors that stop the daemon
package logger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ///////////////////////////////////////////////
// Custom Levels
// ///////////////////////////////////////////////

const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug // -4
	LevelInfo  slog.Level = slog.LevelInfo  // 0
	LevelWarn  slog.Level = slog.LevelWarn  // 4
	LevelError slog.Level = slog.LevelError // 8
	LevelFail  slog.Level = 12
)

// levelName returns the display name for a log level.
func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= LevelDebug:
		return "DEBUG"
	case l <= LevelInfo:
		return "INFO"
	case l <= LevelWarn:
		return "WARN"
	case l <= LevelError:
		return "ERROR"
	default:
		return "FAIL"
	}
}

// ParseLevel converts a level string to slog.Level, case-insensitively.
// Unrecognized strings map to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fail":
		return LevelFail
	default:
		return LevelInfo
	}
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

// lineEnding is CRLF on Windows, LF elsewhere.
var lineEnding = "\n"

func init() {
	if runtime.GOOS == "windows" {
		lineEnding = "\r\n"
	}
}

// Handler is a slog.Handler producing one human-readable line per record.
// Handlers derived through WithAttrs and WithGroup share the parent's mutex,
// so lines never interleave on a shared writer.
type Handler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewHandler creates a Handler that writes to w, filtering records below level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
	buf.WriteString(" [")
	buf.WriteString(levelName(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	first := true
	write := func(a slog.Attr) {
		if first {
			buf.WriteString(" | ")
			first = false
		} else {
			buf.WriteString(", ")
		}
		if h.group != "" {
			buf.WriteString(h.group)
			buf.WriteByte('.')
		}
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(a.Value))
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})

	buf.WriteString(lineEnding)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// formatValue renders an attribute value, quoting strings that contain
// whitespace or separators so world folder names like "Random Speedrun #12"
// stay readable as a single value.
func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if s == "" || strings.ContainsAny(s, " \t\r\n,|=\"") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a new Handler with the given attributes pre-applied.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new Handler whose keys are prefixed with name
// (e.g., "discovery.instance").
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: h.attrs, group: newGroup}
}

// ///////////////////////////////////////////////
// Logger Constructors
// ///////////////////////////////////////////////

// Options configures [NewLogger].
type Options struct {
	// Path is the log file; it is rotated by size.
	Path string
	// Level is the minimum severity written.
	Level slog.Level
	// MaxSizeMB is the rotation threshold.
	MaxSizeMB int
	// Console, when non-nil, receives a copy of every line (used by
	// `runtracker run --foreground`).
	Console io.Writer
}

// NewLogger creates a slog.Logger that writes to a rotating log file and,
// optionally, a console writer. The returned io.Closer flushes and closes
// the log file.
func NewLogger(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.Path == "" {
		return nil, nil, fmt.Errorf("log path is empty")
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}

	var w io.Writer = lj
	if opts.Console != nil {
		w = io.MultiWriter(lj, opts.Console)
	}
	return slog.New(NewHandler(w, opts.Level)), lj, nil
}

// NewConsole creates a slog.Logger for short-lived CLI commands that write
// only to w (normally stderr).
func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

// ///////////////////////////////////////////////
// Helper Functions
// ///////////////////////////////////////////////

// Trace logs a message at LevelTrace.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Fail logs a message at LevelFail.
func Fail(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelFail, msg, args...)
}

// ///////////////////////////////////////////////
// ReadTail
// ///////////////////////////////////////////////

// ReadTail returns the last n lines of the file at path, oldest first.
func ReadTail(path string, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ring[count%n] = strings.TrimRight(scanner.Text(), "\r")
		count++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading log file: %w", err)
	}

	if count <= n {
		return strings.Join(ring[:count], "\n"), nil
	}
	start := count % n
	return strings.Join(append(ring[start:], ring[:start]...), "\n"), nil
}
