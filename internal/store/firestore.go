package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the production Store.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore initializes a Firestore client using application default credentials.
func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// Close closes the Firestore client.
func (s *Firestore) Close() error {
	return s.client.Close()
}

// --- Guild Settings ---

func (s *Firestore) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	doc, err := s.client.Collection(GuildsCollection).Doc(guildID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	var settings GuildSettings
	if err := doc.DataTo(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode guild settings: %w", err)
	}
	return &settings, nil
}

func (s *Firestore) SaveGuildSettings(ctx context.Context, guildID string, settings GuildSettings) error {
	settings.UpdatedAt = time.Now()
	_, err := s.client.Collection(GuildsCollection).Doc(guildID).Set(ctx, settings)
	return err
}

func (s *Firestore) DeleteGuildSettings(ctx context.Context, guildID string) error {
	_, err := s.client.Collection(GuildsCollection).Doc(guildID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// --- Usage ---

func (s *Firestore) RecordUsage(ctx context.Context, command, userID string) error {
	bump := map[string]interface{}{
		"count":     firestore.Increment(1),
		"last_used": time.Now(),
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(s.client.Collection(UsageCollection).Doc(command), bump, firestore.MergeAll); err != nil {
			return err
		}
		if userID == "" {
			return nil
		}
		return tx.Set(s.client.Collection(UsersCollection).Doc(userID), bump, firestore.MergeAll)
	})
}

func (s *Firestore) TopUsage(ctx context.Context, n int) ([]UsageCount, error) {
	iter := s.client.Collection(UsageCollection).
		OrderBy("count", firestore.Desc).
		Limit(n).
		Documents(ctx)
	defer iter.Stop()

	var out []UsageCount
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var u UsageCount
		if err := doc.DataTo(&u); err != nil {
			return nil, err
		}
		u.ID = doc.Ref.ID
		out = append(out, u)
	}
	return out, nil
}

// --- Snapshots ---

func (s *Firestore) Snapshot(ctx context.Context, collection string) ([]map[string]any, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var out []map[string]any
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", collection, err)
		}
		data := doc.Data()
		data[IDField] = doc.Ref.ID
		out = append(out, data)
	}
	return out, nil
}
