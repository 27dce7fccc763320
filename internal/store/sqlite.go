package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps every collection as JSON documents in a single table. It is
// meant for local runs without Firestore credentials.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path. ":memory:"
// opens a private in-memory database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) get(ctx context.Context, collection, id string, v any) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func (s *SQLite) put(ctx context.Context, collection, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (collection, id, body) VALUES (?, ?, ?)",
		collection, id, string(body),
	)
	return err
}

func (s *SQLite) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	var settings GuildSettings
	if err := s.get(ctx, GuildsCollection, guildID, &settings); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLite) SaveGuildSettings(ctx context.Context, guildID string, settings GuildSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return s.put(ctx, GuildsCollection, guildID, settings)
}

func (s *SQLite) DeleteGuildSettings(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?", GuildsCollection, guildID)
	return err
}

const bumpCounter = `INSERT INTO documents (collection, id, body)
VALUES (?, ?, json_object('count', 1, 'last_used', ?))
ON CONFLICT (collection, id) DO UPDATE SET body = json_set(
	body,
	'$.count', coalesce(json_extract(body, '$.count'), 0) + 1,
	'$.last_used', excluded.body ->> '$.last_used'
)`

func (s *SQLite) RecordUsage(ctx context.Context, command, userID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, bumpCounter, UsageCollection, command, now); err != nil {
		return fmt.Errorf("failed to record command usage: %w", err)
	}
	if userID != "" {
		if _, err := tx.ExecContext(ctx, bumpCounter, UsersCollection, userID, now); err != nil {
			return fmt.Errorf("failed to record user usage: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) TopUsage(ctx context.Context, n int) ([]UsageCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM documents
		WHERE collection = ?
		ORDER BY json_extract(body, '$.count') DESC, id
		LIMIT ?`, UsageCollection, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageCount
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var u UsageCount
		if err := json.Unmarshal([]byte(body), &u); err != nil {
			return nil, err
		}
		u.ID = id
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLite) Snapshot(ctx context.Context, collection string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		doc := map[string]any{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, err
		}
		doc[IDField] = id
		out = append(out, doc)
	}
	return out, rows.Err()
}
