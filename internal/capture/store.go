package capture

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the local sqlite index of past capture sessions. One row per
// finished operation; the artifacts themselves stay on the filesystem.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the session index at path.
func OpenStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("session index path is required")
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finished session.
func (s *Store) Record(ctx context.Context, res *Result) error {
	id, err := randomID()
	if err != nil {
		return err
	}
	warnings := ""
	if len(res.Warnings) > 0 {
		raw, err := json.Marshal(res.Warnings)
		if err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}
		warnings = string(raw)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO idcap_sessions (id, operation, device_udid, path, started_at, duration_ms, artifact_count, warnings)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.Operation, res.DeviceUDID, res.Path,
		res.StartedAt.UTC().Format(time.RFC3339), res.Duration.Milliseconds(),
		len(res.Artifacts), warnings)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// SessionRow is one indexed capture session.
type SessionRow struct {
	ID            string
	Operation     string
	DeviceUDID    string
	Path          string
	StartedAt     time.Time
	Duration      time.Duration
	ArtifactCount int
	Warnings      []string
}

// List returns up to limit sessions, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]SessionRow, error) {
	query := `
SELECT id, operation, device_udid, path, started_at, duration_ms, artifact_count, warnings
FROM idcap_sessions
ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var out []SessionRow
	for rows.Next() {
		var (
			row        SessionRow
			startedAt  string
			durationMS int64
			warnings   string
		)
		if err := rows.Scan(&row.ID, &row.Operation, &row.DeviceUDID, &row.Path, &startedAt, &durationMS, &row.ArtifactCount, &warnings); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			row.StartedAt = ts
		}
		row.Duration = time.Duration(durationMS) * time.Millisecond
		if warnings != "" {
			_ = json.Unmarshal([]byte(warnings), &row.Warnings)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func randomID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
