// Package store persists guild settings and usage counters and produces the
// collection snapshots used by backups.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Collection names.
const (
	GuildsCollection = "guilds"
	UsageCollection  = "usage"
	UsersCollection  = "users"
)

// IDField carries a document's ID inside snapshot entries.
const IDField = "_id"

// GuildSettings is the per-guild settings document.
type GuildSettings struct {
	Prefix    string    `firestore:"prefix,omitempty" json:"prefix,omitempty"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// UsageCount is one counter document of the usage or users collection.
type UsageCount struct {
	ID       string    `firestore:"-" json:"-"`
	Count    int64     `firestore:"count" json:"count"`
	LastUsed time.Time `firestore:"last_used" json:"last_used"`
}

// Store is the document store boundary. Firestore backs production and
// SQLite backs local runs.
type Store interface {
	// GetGuildSettings returns ErrNotFound for guilds that never saved any.
	GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)
	SaveGuildSettings(ctx context.Context, guildID string, settings GuildSettings) error
	DeleteGuildSettings(ctx context.Context, guildID string) error

	// RecordUsage bumps the counter of the command and of the user.
	RecordUsage(ctx context.Context, command, userID string) error
	// TopUsage returns the n most used commands, most used first.
	TopUsage(ctx context.Context, n int) ([]UsageCount, error)

	// Snapshot returns every document of a collection with its ID under IDField.
	Snapshot(ctx context.Context, collection string) ([]map[string]any, error)

	Close() error
}
