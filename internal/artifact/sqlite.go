package artifact

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/abandonsearch/place-rater/internal/model"
)

// SQLiteLog implements Log using modernc.org/sqlite.
type SQLiteLog struct {
	db       *sql.DB
	nowFunc  func() time.Time
	readOnly bool
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteLog{db: db, nowFunc: time.Now}, nil
}

// OpenSQLiteReadOnly opens an existing database without creating or
// migrating it. A missing file yields an error matching os.ErrNotExist; a
// database without the artifacts table reads as empty.
func OpenSQLiteReadOnly(path string) (*SQLiteLog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "sqlite: stat %s", path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open read-only")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA busy_timeout=5000")
	}
	return &SQLiteLog{db: db, nowFunc: time.Now, readOnly: true}, nil
}

// hasTable reports whether the artifacts table exists. Only read-only logs
// can lack it.
func (s *SQLiteLog) hasTable(ctx context.Context) (bool, error) {
	if !s.readOnly {
		return true, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'artifacts'`).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: inspect schema")
	}
	return n > 0, nil
}

// created_at holds unix nanoseconds so ordering does not depend on the
// driver's time text format.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artifacts (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	idx        INTEGER NOT NULL,
	provider   TEXT NOT NULL DEFAULT '',
	model      TEXT NOT NULL DEFAULT '',
	attempt    INTEGER NOT NULL DEFAULT 0,
	raw        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_idx_created ON artifacts(idx, created_at);
`

// Migrate creates the artifacts table.
func (s *SQLiteLog) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteLog) Write(ctx context.Context, a Artifact) error {
	at := a.WrittenAt
	if at.IsZero() {
		at = s.nowFunc()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, idx, provider, model, attempt, raw, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), a.Index, a.Backend.Provider, a.Backend.Model, a.Attempt, a.Raw, at.UTC().UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert artifact for index %d", a.Index)
}

func (s *SQLiteLog) Indices(ctx context.Context) ([]int, error) {
	if ok, err := s.hasTable(ctx); err != nil || !ok {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT idx FROM artifacts ORDER BY idx`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artifact indices")
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact index")
		}
		out = append(out, idx)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list artifact indices iterate")
}

func (s *SQLiteLog) Latest(ctx context.Context, index int) (*Artifact, error) {
	if ok, err := s.hasTable(ctx); err != nil || !ok {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT idx, provider, model, attempt, raw, created_at FROM artifacts
		 WHERE idx = ?
		 ORDER BY created_at DESC, seq DESC LIMIT 1`,
		index,
	)

	var a Artifact
	var b model.Backend
	var createdAt int64
	err := row.Scan(&a.Index, &b.Provider, &b.Model, &a.Attempt, &a.Raw, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest artifact for index %d", index)
	}
	a.Backend = b
	a.WrittenAt = time.Unix(0, createdAt).UTC()
	return &a, nil
}
