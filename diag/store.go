package diag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("diagnostics store closed")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	started TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sends (
	session    TEXT NOT NULL,
	class      TEXT NOT NULL,
	selector   TEXT NOT NULL,
	class_side INTEGER NOT NULL,
	count      INTEGER NOT NULL,
	PRIMARY KEY (session, class, selector, class_side)
);
CREATE TABLE IF NOT EXISTS unimplemented (
	session    TEXT NOT NULL,
	class      TEXT NOT NULL,
	selector   TEXT NOT NULL,
	class_side INTEGER NOT NULL,
	count      INTEGER NOT NULL,
	PRIMARY KEY (session, class, selector, class_side)
);`

// Store persists recorder snapshots to SQLite. Each Store is one session.
type Store struct {
	db      *sql.DB
	session string
}

// Open opens (creating if needed) the database at path and starts a new
// session.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	s := &Store{db: db, session: uuid.New().String()}
	_, err = db.ExecContext(ctx,
		"INSERT INTO sessions (id, started) VALUES (?, ?)",
		s.session, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("starting session: %w", err)
	}
	log.Debugf("diagnostics session %s in %s", s.session, path)
	return s, nil
}

// Session returns this store's session identifier.
func (s *Store) Session() string {
	return s.session
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Flush writes the recorder's current counters for this session,
// replacing whatever an earlier Flush stored.
func (s *Store) Flush(ctx context.Context, r *Recorder) error {
	if s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning flush: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(ctx, tx, "sends", s.session, r.Sends()); err != nil {
		return err
	}
	if err := upsert(ctx, tx, "unimplemented", s.session, r.UnimplementedHits()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing flush: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, table, session string, counts []Count) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+
		" (session, class, selector, class_side, count) VALUES (?, ?, ?, ?, ?)"+
		" ON CONFLICT (session, class, selector, class_side) DO UPDATE SET count = excluded.count")
	if err != nil {
		return fmt.Errorf("preparing %s upsert: %w", table, err)
	}
	defer stmt.Close()

	for _, c := range counts {
		if _, err := stmt.ExecContext(ctx, session, c.Class, c.Selector, c.ClassSide, c.N); err != nil {
			return fmt.Errorf("saving %s %s: %w", table, c.Key, err)
		}
	}
	return nil
}

// Unimplemented returns every stubbed selector recorded in the database,
// across all sessions, with counts summed, most frequent first.
func (s *Store) Unimplemented(ctx context.Context) ([]Count, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT class, selector, class_side, SUM(count) AS total
		FROM unimplemented
		GROUP BY class, selector, class_side
		ORDER BY total DESC, class, selector`)
	if err != nil {
		return nil, fmt.Errorf("querying unimplemented: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Class, &c.Selector, &c.ClassSide, &c.N); err != nil {
			return nil, fmt.Errorf("scanning unimplemented: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sessions returns the number of sessions recorded in the database.
func (s *Store) Sessions(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
