package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/magiconair/properties"

	"tools.zach/dev/runtracker/internal/paths"
)

// ///////////////////////////////////////////////
// Layout
// ///////////////////////////////////////////////

// Layout describes where an instance keeps its attempt counter and worlds.
// Relative paths are resolved against the instance directory.
type Layout struct {
	// AttemptsFile is a Java properties file holding the attempt counter.
	AttemptsFile string
	// AttemptsKey is the property carrying the counter.
	AttemptsKey string
	// SavesDir holds one folder per world.
	SavesDir string
	// WorldNameFormat is a fmt template taking the attempt index.
	WorldNameFormat string
	// RecordPath is the record file relative to a world folder.
	RecordPath string
}

// DefaultLayout returns the layout used by the atum world generator.
func DefaultLayout() Layout {
	return Layout{
		AttemptsFile:    paths.AttemptsFile,
		AttemptsKey:     paths.AttemptsKey,
		SavesDir:        paths.SavesDir,
		WorldNameFormat: paths.WorldNameFormat,
		RecordPath:      paths.WorldRecordFile,
	}
}

// RecordFor returns the record path of world i in instance.
func (l Layout) RecordFor(instance string, i int64) string {
	world := fmt.Sprintf(l.WorldNameFormat, i)
	return filepath.Join(instance, l.SavesDir, world, filepath.FromSlash(l.RecordPath))
}

// ErrNoAttempts is returned by [ReadAttempts] when the counter is missing or
// not an integer.
var ErrNoAttempts = errors.New("attempt counter unavailable")

// ReadAttempts returns the attempt counter of instance.
func ReadAttempts(instance string, l Layout) (int64, error) {
	path := filepath.Join(instance, filepath.FromSlash(l.AttemptsFile))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	raw, ok := p.Get(l.AttemptsKey)
	if !ok {
		return 0, fmt.Errorf("%s in %s: %w", l.AttemptsKey, path, ErrNoAttempts)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s in %s: %w", l.AttemptsKey, path, ErrNoAttempts)
	}
	return n, nil
}

// ///////////////////////////////////////////////
// Polling
// ///////////////////////////////////////////////

// Cursor maps an instance directory to the highest world index already
// considered. It lives only in memory.
type Cursor map[string]int64

// Polling discovers records by following each instance's attempt counter.
// World n is the one currently being played while the counter reads n, so
// only indexes below the counter are scanned.
type Polling struct {
	layout Layout

	mu     sync.Mutex
	cursor Cursor
}

// NewPolling returns a polling source for layout.
func NewPolling(layout Layout) *Polling {
	return &Polling{layout: layout, cursor: make(Cursor)}
}

// Discover scans every instance for worlds finished since the last pass.
// An instance seen for the first time only initializes its cursor.
func (p *Polling) Discover(instances []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var found []string
	for _, inst := range instances {
		attempts, err := ReadAttempts(inst, p.layout)
		if err != nil {
			slog.Debug("skipping instance", "instance", inst, "error", err)
			continue
		}
		last := attempts - 1

		cur, seen := p.cursor[inst]
		if !seen {
			p.cursor[inst] = last
			slog.Debug("tracking instance", "instance", inst, "cursor", last)
			continue
		}

		for i := cur + 1; i <= last; i++ {
			path := p.layout.RecordFor(inst, i)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			found = append(found, path)
		}
		p.cursor[inst] = max(last, cur)
	}
	return found
}

// Drain forgets every cursor so the next pass re-initializes each instance
// at its current counter without scanning.
func (p *Polling) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cursor)
}

// Position returns the cursor of instance.
func (p *Polling) Position(instance string) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.cursor[instance]
	return v, ok
}

// Close is a no-op; polling holds no resources.
func (p *Polling) Close() error { return nil }
