package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"tools.zach/dev/runtracker/internal/atomicfile"
	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/migrate"
	"tools.zach/dev/runtracker/internal/paths"
)

// ErrIO wraps every read, write and delete failure reported by [Store].
var ErrIO = errors.New("session i/o failure")

// ErrRecovery is wrapped when a session document is unreadable. [Store.Load]
// also sets the file aside as "<file>.corrupted".
var ErrRecovery = errors.New("session recovery failure")

// DefaultResumeWindow is how recently a prior session must have been saved to
// be resumed.
const DefaultResumeWindow = 5 * time.Minute

// CorruptedSuffix is appended to unreadable session files.
const CorruptedSuffix = ".corrupted"

func init() {
	migrate.Session.Register(migrate.Migration{
		Version:     2,
		Description: "version stamp and complete counter and series keys",
		Upgrade:     migrate.JSONObject(upgradeV2),
	})
}

// upgradeV2 fills counters and series that legacy files omitted or wrote as
// null, and defaults the end and activity times to the start time.
func upgradeV2(doc map[string]any) error {
	for _, b := range classify.AllBuckets() {
		if v, ok := doc[b.String()]; !ok || v == nil {
			doc[b.String()] = 0
		}
	}
	for _, x := range classify.AllSeries() {
		if v, ok := doc[x.String()]; !ok || v == nil {
			doc[x.String()] = []any{}
		}
	}
	if v, ok := doc["breaks"]; !ok || v == nil {
		doc["breaks"] = []any{}
	}
	start, ok := doc["sessionStartTime"]
	if !ok {
		return fmt.Errorf("missing sessionStartTime")
	}
	for _, k := range []string{"sessionEndTime", "lastActivity"} {
		if v, ok := doc[k]; !ok || v == nil {
			doc[k] = start
		}
	}
	doc["$version"] = 2
	return nil
}

// ///////////////////////////////////////////////
// Store
// ///////////////////////////////////////////////

// Store persists sessions under a data directory.
type Store struct {
	dir          paths.DataDir
	resumeWindow int64
}

// NewStore returns a store rooted at dir. A non-positive resumeWindow selects
// [DefaultResumeWindow].
func NewStore(dir paths.DataDir, resumeWindow time.Duration) *Store {
	if resumeWindow <= 0 {
		resumeWindow = DefaultResumeWindow
	}
	return &Store{dir: dir, resumeWindow: resumeWindow.Milliseconds()}
}

// Dir returns the data directory the store writes to.
func (st *Store) Dir() paths.DataDir { return st.dir }

// Load returns the session to continue at now. The prior current session is
// resumed when it was saved less than the resume window ago; otherwise, or
// when it cannot be read, a fresh session starts. Failures are logged, never returned.
func (st *Store) Load(now int64) *Session {
	path := st.dir.Current()
	s, err := readSession(path)
	if errors.Is(err, ErrRecovery) {
		err = recoverCorrupted(path, err)
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("no previous session, starting fresh")
		return New(now)
	case err != nil:
		slog.Warn("cannot load previous session, starting fresh", "path", path, "error", err)
		return New(now)
	}

	if age := now - s.EndTime; age >= st.resumeWindow {
		slog.Info("previous session ended too long ago, starting fresh", "id", s.ID(), "age_ms", age)
		return New(now)
	}
	slog.Info("resuming session", "id", s.ID(), "resets", s.Resets)
	return s
}

// Save stamps s with EndTime = now and writes it atomically to the current
// file and to its historical file.
func (st *Store) Save(s *Session, now int64) error {
	s.EndTime = now
	s.Version = migrate.Session.CurrentVersion
	s.normalize()

	if err := atomicfile.WriteJSON(st.dir.Current(), s, 0o644); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrIO, st.dir.Current(), err)
	}
	hist := st.dir.Session(s.StartTime)
	if err := atomicfile.WriteJSON(hist, s, 0o644); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrIO, hist, err)
	}
	return nil
}

// Clear ends s and returns a fresh session started at now. The current file is
// deleted; the historical file is deleted only when s never recorded a gold
// run. Deletion failures are joined and wrapped in [ErrIO], but the fresh
// session is always returned.
func (st *Store) Clear(s *Session, now int64) (*Session, error) {
	var errs []error
	if s != nil && s.RunsWithGold == 0 {
		if err := removeIfExists(st.dir.Session(s.StartTime)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := removeIfExists(st.dir.Current()); err != nil {
		errs = append(errs, err)
	}
	fresh := New(now)
	if len(errs) > 0 {
		return fresh, fmt.Errorf("%w: clearing session: %w", ErrIO, errors.Join(errs...))
	}
	return fresh, nil
}

// ListHistorical returns the ids of all historical sessions in ascending
// order. Only "<digits>.json" names are considered. A missing sessions
// directory yields an empty list.
func (st *Store) ListHistorical() ([]int64, error) {
	entries, err := os.ReadDir(st.dir.Sessions())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ErrIO, st.dir.Sessions(), err)
	}

	var ids []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseSessionName(e.Name())
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LoadCurrent reads the current session file as-is, without the resume rule.
// An unreadable file is reported as [ErrRecovery] and left in place.
func (st *Store) LoadCurrent() (*Session, error) {
	return readSession(st.dir.Current())
}

// LoadHistorical reads the historical session id. An unreadable file is
// reported as [ErrRecovery] and left in place.
func (st *Store) LoadHistorical(id int64) (*Session, error) {
	return readSession(st.dir.Session(id))
}

// Neighbor returns the historical id delta steps away from id. When id has no
// historical file it is placed where it would sort.
func (st *Store) Neighbor(id int64, delta int) (int64, bool, error) {
	ids, err := st.ListHistorical()
	if err != nil {
		return 0, false, err
	}
	idx := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	present := idx < len(ids) && ids[idx] == id

	var target int
	switch {
	case delta == 0:
		return id, present, nil
	case delta < 0:
		target = idx + delta
	case present:
		target = idx + delta
	default:
		target = idx + delta - 1
	}
	if target < 0 || target >= len(ids) {
		return 0, false, nil
	}
	return ids[target], true, nil
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

func parseSessionName(name string) (int64, bool) {
	stem, ok := strings.CutSuffix(name, paths.SessionExt)
	if !ok || stem == "" {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// readSession reads, migrates and decodes the session at path. An undecodable
// document is reported as [ErrRecovery] and left in place.
func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrIO, path, err)
	}
	s, err := decodeSession(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRecovery, path, err)
	}
	return s, nil
}

func decodeSession(data []byte) (*Session, error) {
	version, err := migrate.PeekJSONVersion(data)
	if err != nil {
		return nil, err
	}
	reg := migrate.Session
	if version > reg.CurrentVersion {
		slog.Warn("future session version, reading as current", "version", version, "current", reg.CurrentVersion)
	} else if reg.NeedsMigration(version) {
		if data, _, err = reg.Run(data, version); err != nil {
			return nil, err
		}
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	s.Version = reg.CurrentVersion
	s.normalize()
	return &s, nil
}

// recoverCorrupted moves the unreadable file at path out of the way. Only the
// startup load does this; every other reader leaves the file untouched.
func recoverCorrupted(path string, cause error) error {
	dst := path + CorruptedSuffix
	slog.Warn("corrupted session file, setting aside", "path", path, "backup", dst, "error", cause)
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("%w (backup failed: %v)", cause, err)
	}
	return fmt.Errorf("%w (moved to %s)", cause, dst)
}
