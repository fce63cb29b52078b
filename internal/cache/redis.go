// Package cache provides the durable local cache: the last-known-good
// reconciled dataset plus its save timestamp, and the admin write
// credential. A populated cache lets an unsynced draft survive a restart.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"aviationclub/api/internal/club"

	"github.com/redis/go-redis/v9"
)

const (
	keyDataset    = "aviation:data"
	keySavedAt    = "aviation:savedAt"
	keyCredential = "aviation:adminToken"
)

// Entry is one cached dataset with the time it was saved.
type Entry struct {
	Data    *club.Dataset
	SavedAt time.Time
}

// Store implements the local cache on Redis.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreWithClient creates a store from an existing Redis client.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Load reads the cached dataset and its save timestamp. A missing or
// malformed entry is treated as absent: logged, (nil, nil) returned, never
// fatal. Only a transport failure is returned as an error, and callers
// treat that as absent too.
func (s *Store) Load(ctx context.Context) (*Entry, error) {
	raw, err := s.client.Get(ctx, keyDataset).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached dataset: %w", err)
	}

	data, err := club.Decode(raw)
	if err != nil {
		log.Printf("cache: discarding malformed cached dataset: %v", err)
		return nil, nil
	}

	savedRaw, err := s.client.Get(ctx, keySavedAt).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read cache timestamp: %w", err)
	}
	savedAt, parseErr := time.Parse(time.RFC3339, savedRaw)
	if parseErr != nil {
		log.Printf("cache: discarding entry with unreadable save time %q", savedRaw)
		return nil, nil
	}

	return &Entry{Data: data, SavedAt: savedAt}, nil
}

// Save writes the dataset and its save timestamp. Entries do not expire;
// each save is a full overwrite.
func (s *Store) Save(ctx context.Context, data *club.Dataset, savedAt time.Time) error {
	payload, err := club.Encode(data)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyDataset, payload, 0).Err(); err != nil {
		return fmt.Errorf("write cached dataset: %w", err)
	}
	if err := s.client.Set(ctx, keySavedAt, savedAt.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("write cache timestamp: %w", err)
	}
	return nil
}

// Credential returns the stored admin write credential, or "" when unset.
// The token is stored in cleartext; a known limitation.
func (s *Store) Credential(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, keyCredential).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return token, nil
}

// SaveCredential stores the admin write credential.
func (s *Store) SaveCredential(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, keyCredential, token, 0).Err(); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
