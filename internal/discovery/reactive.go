package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Reactive
// ///////////////////////////////////////////////

// DefaultQueueLimit bounds the pending path queue of a [Reactive] source.
const DefaultQueueLimit = 256

// Reactive watches the shared records directory for newly created record
// files using fsnotify, falling back to listing the directory when fsnotify is
// unavailable or fails.
type Reactive struct {
	// dir is the directory being watched.
	dir string
	// done is closed by [Reactive.Close] to stop goroutines.
	done chan struct{}
	// once makes [Reactive.Close] idempotent.
	once sync.Once
	// polling is true once the source has fallen back to directory listing.
	polling atomic.Bool
	// pollInterval is the listing period in polling mode.
	pollInterval time.Duration

	mu sync.Mutex
	// fsw is nil when polling.
	fsw *fsnotify.Watcher
	// queue holds paths not yet returned by Discover, oldest first.
	queue []string
	limit int
}

// NewReactive starts watching dir. It never fails: when dir cannot be watched
// the source lists it periodically instead, so records show up once the
// directory exists.
func NewReactive(dir string) *Reactive {
	return newReactive(dir, 2*time.Second, DefaultQueueLimit)
}

func newReactive(dir string, pollInterval time.Duration, limit int) *Reactive {
	r := &Reactive{
		dir:          dir,
		done:         make(chan struct{}),
		pollInterval: pollInterval,
		limit:        limit,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, falling back to directory polling", "error", err)
		r.startPolling()
		return r
	}
	if err := fsw.Add(dir); err != nil {
		slog.Info("cannot watch records directory, falling back to polling", "path", dir, "error", err)
		fsw.Close()
		r.startPolling()
		return r
	}

	r.fsw = fsw
	go r.watch(fsw)
	return r
}

// isRecordFile reports whether name looks like a record document.
func isRecordFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

// watch forwards CREATE events for record files to the queue. On an fsnotify
// error it closes the native watcher and switches to polling.
func (r *Reactive) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && isRecordFile(event.Name) {
				r.push(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to directory polling", "error", err)
			r.mu.Lock()
			r.fsw = nil
			r.mu.Unlock()
			fsw.Close()
			r.startPolling()
			return
		}
	}
}

func (r *Reactive) startPolling() {
	r.polling.Store(true)
	go r.poll(r.listRecords())
}

// poll lists the directory every pollInterval and queues names not present in
// the previous listing. Files that existed when polling began are not queued.
func (r *Reactive) poll(seen map[string]struct{}) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			current := r.listRecords()
			for name := range current {
				if _, ok := seen[name]; !ok {
					r.push(name)
				}
			}
			seen = current
		}
	}
}

// listRecords returns the absolute paths of record files currently in dir.
func (r *Reactive) listRecords() map[string]struct{} {
	out := make(map[string]struct{})
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if e.IsDir() || !isRecordFile(e.Name()) {
			continue
		}
		out[filepath.Join(r.dir, e.Name())] = struct{}{}
	}
	return out
}

// push appends path to the queue, dropping the oldest entry when full.
func (r *Reactive) push(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) >= r.limit {
		slog.Warn("record queue full, dropping oldest", "dropped", r.queue[0])
		r.queue = r.queue[1:]
	}
	r.queue = append(r.queue, path)
}

// Discover returns and clears the pending paths. instances is unused; the
// records directory is shared by every instance.
func (r *Reactive) Discover(instances []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.queue
	r.queue = nil
	return out
}

// Drain discards pending paths.
func (r *Reactive) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = nil
}

// Pending returns the number of queued paths.
func (r *Reactive) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Polling reports whether the source has fallen back to directory listing.
func (r *Reactive) Polling() bool {
	return r.polling.Load()
}

// Close stops the source and releases resources.
func (r *Reactive) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		fsw := r.fsw
		r.fsw = nil
		r.mu.Unlock()
		if fsw != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}
