package capture

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func migrate(ctx context.Context, db *sql.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init session index pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS idcap_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("create session index meta: %w", err)
	}

	current, err := currentSchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for current < schemaVersion {
		next := current + 1
		if err := applyMigration(ctx, db, next); err != nil {
			return err
		}
		if err := setSchemaVersion(ctx, db, next); err != nil {
			return err
		}
		current = next
	}
	return nil
}

func currentSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM idcap_meta WHERE key = 'schema_version'`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	var n int
	_, _ = fmt.Sscanf(v, "%d", &n)
	return n, nil
}

func setSchemaVersion(ctx context.Context, db *sql.DB, v int) error {
	if _, err := db.ExecContext(ctx, `
INSERT INTO idcap_meta(key, value) VALUES('schema_version', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, fmt.Sprintf("%d", v)); err != nil {
		return fmt.Errorf("write schema_version: %w", err)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, toVersion int) error {
	switch toVersion {
	case 1:
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS idcap_sessions (
  id TEXT PRIMARY KEY,
  operation TEXT NOT NULL,
  device_udid TEXT,
  path TEXT NOT NULL,
  started_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  artifact_count INTEGER NOT NULL DEFAULT 0,
  warnings TEXT
);`,
			`CREATE INDEX IF NOT EXISTS idx_idcap_sessions_started ON idcap_sessions(started_at);`,
			`CREATE INDEX IF NOT EXISTS idx_idcap_sessions_operation ON idcap_sessions(operation, started_at);`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration v1: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown session index schema version %d", toVersion)
	}
}
