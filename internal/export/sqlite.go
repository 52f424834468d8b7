package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/session"
)

// ///////////////////////////////////////////////
// SQLite Archive
// ///////////////////////////////////////////////

// SQLiteArchive stores sessions with their counters, series and breaks.
// Writing a session replaces everything previously stored under its id.
type SQLiteArchive struct {
	db *sql.DB
}

// ArchivedSession is one row of the sessions table.
type ArchivedSession struct {
	ID        int64
	EndTime   int64
	Resets    int64
	Played    int64
	Gold      int64
	UpdatedAt string
}

// OpenArchive opens or creates the database at dbPath.
func OpenArchive(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	a := &SQLiteArchive{db: db}
	if err := a.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *SQLiteArchive) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY,
  end_time INTEGER NOT NULL,
  last_activity INTEGER NOT NULL,
  resets INTEGER NOT NULL,
  played_ms INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
  session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  bucket TEXT NOT NULL,
  count INTEGER NOT NULL,
  PRIMARY KEY (session_id, bucket)
);
CREATE TABLE IF NOT EXISTS series_times (
  session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  series TEXT NOT NULL,
  idx INTEGER NOT NULL,
  millis INTEGER NOT NULL,
  PRIMARY KEY (session_id, series, idx)
);
CREATE TABLE IF NOT EXISTS breaks (
  session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  idx INTEGER NOT NULL,
  millis INTEGER NOT NULL,
  PRIMARY KEY (session_id, idx)
);
`
	if _, err := a.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create archive tables: %w", err)
	}
	return nil
}

// Upsert writes s in a single transaction.
func (a *SQLiteArchive) Upsert(ctx context.Context, s *session.Session) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const stmt = `
INSERT INTO sessions (id, end_time, last_activity, resets, played_ms, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  end_time=excluded.end_time,
  last_activity=excluded.last_activity,
  resets=excluded.resets,
  played_ms=excluded.played_ms,
  updated_at=excluded.updated_at;
`
	id := s.ID()
	if _, err := tx.ExecContext(ctx, stmt,
		id,
		s.EndTime,
		s.LastActivity,
		s.Resets,
		s.TimePlayed(s.EndTime),
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upsert session %d: %w", id, err)
	}

	for _, table := range []string{"counters", "series_times", "breaks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("clear %s for session %d: %w", table, id, err)
		}
	}

	for _, b := range classify.AllBuckets() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counters (session_id, bucket, count) VALUES (?, ?, ?)`,
			id, b.String(), s.Count(b),
		); err != nil {
			return fmt.Errorf("insert counter %s: %w", b, err)
		}
	}
	for _, x := range classify.AllSeries() {
		for i, ms := range s.Times(x) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO series_times (session_id, series, idx, millis) VALUES (?, ?, ?, ?)`,
				id, x.String(), i, ms,
			); err != nil {
				return fmt.Errorf("insert %s time: %w", x, err)
			}
		}
	}
	for i, ms := range s.Breaks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO breaks (session_id, idx, millis) VALUES (?, ?, ?)`,
			id, i, ms,
		); err != nil {
			return fmt.Errorf("insert break: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %d: %w", id, err)
	}
	return nil
}

// Sessions lists archived sessions in id order along with their gold count.
func (a *SQLiteArchive) Sessions(ctx context.Context) ([]ArchivedSession, error) {
	const query = `
SELECT s.id, s.end_time, s.resets, s.played_ms, COALESCE(c.count, 0), s.updated_at
FROM sessions s
LEFT JOIN counters c ON c.session_id = s.id AND c.bucket = ?
ORDER BY s.id;
`
	rows, err := a.db.QueryContext(ctx, query, classify.BucketGold.String())
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []ArchivedSession
	for rows.Next() {
		var r ArchivedSession
		if err := rows.Scan(&r.ID, &r.EndTime, &r.Resets, &r.Played, &r.Gold, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Times returns the archived values of one series for session id.
func (a *SQLiteArchive) Times(ctx context.Context, id int64, x classify.Series) ([]int64, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT millis FROM series_times WHERE session_id = ? AND series = ? ORDER BY idx`,
		id, x.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", x, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan %s: %w", x, err)
		}
		out = append(out, ms)
	}
	return out, rows.Err()
}

// Close closes the database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// ArchiveAll copies every historical session in st into a. Sessions that
// cannot be read are logged and skipped. It returns the number archived.
func ArchiveAll(ctx context.Context, st *session.Store, a *SQLiteArchive) (int, error) {
	ids, err := st.ListHistorical()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		s, err := st.LoadHistorical(id)
		if err != nil {
			slog.Warn("skipping unreadable session", "id", id, "error", err)
			continue
		}
		if err := a.Upsert(ctx, s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
