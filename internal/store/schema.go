package store

import (
	"context"
	"database/sql"
)

// Migrate brings the schema up to date, tracking the version in PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  platform TEXT NOT NULL DEFAULT '',
  date_posted TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT 'Unknown',
  salary TEXT NOT NULL DEFAULT 'NULL',
  link TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_jobs_position
ON jobs(position);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  role TEXT NOT NULL,
  location TEXT NOT NULL,
  raw_count INTEGER NOT NULL,
  valid_count INTEGER NOT NULL,
  deduped_count INTEGER NOT NULL,
  final_count INTEGER NOT NULL,
  new_count INTEGER NOT NULL,
  sources TEXT NOT NULL DEFAULT '{}'
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
