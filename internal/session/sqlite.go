package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	speaker    TEXT NOT NULL,
	conference TEXT NOT NULL DEFAULT '',
	idea_count INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions(updated_at);
`

// SQLiteStore keeps sessions in a single SQLite file. The session body is
// stored as JSON; the listing columns are denormalised for cheap summaries.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session: sqlite path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("session: resolve sqlite path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("session: ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(abs))
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN builds a URI filename for an absolute path. Path characters
// such as '?', '#' and '%' are escaped so they stay part of the file name.
func sqliteDSN(abs string) string {
	dsn := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
	}
	return dsn.String()
}

func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session: id is required")
	}
	payload, err := encode(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, speaker, conference, idea_count, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Profile.Name, sess.Profile.Conference, len(sess.Ideas), string(payload),
		sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("session: insert %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	return decode([]byte(payload))
}

func (s *SQLiteStore) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session: nil session")
	}
	payload, err := encode(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET speaker = ?, conference = ?, idea_count = ?, payload = ?, updated_at = ? WHERE id = ?`,
		sess.Profile.Name, sess.Profile.Conference, len(sess.Ideas), string(payload), sess.UpdatedAt.UnixNano(), sess.ID)
	if err != nil {
		return fmt.Errorf("session: update %s: %w", sess.ID, err)
	}
	return expectOneRow(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return expectOneRow(res)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, speaker, conference, idea_count, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Speaker, &sum.Conference, &sum.IdeaCount, &updated); err != nil {
			return nil, fmt.Errorf("session: scan: %w", err)
		}
		sum.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
