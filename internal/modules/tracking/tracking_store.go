package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boadwuma-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// StoreInterface defines the contract for the tracking registry store.
type StoreInterface interface {
	// Put creates or overwrites the entry for a request.
	Put(ctx context.Context, entry *models.TrackingEntry) error
	// Get returns the entry or models.ErrNotFound.
	Get(ctx context.Context, requestID string) (*models.TrackingEntry, error)
	// Deactivate flips IsActive off and arms the eviction TTL. Missing
	// entries are a no-op.
	Deactivate(ctx context.Context, requestID string) error
}

// Store keeps tracking entries in Redis. Active entries live without a TTL;
// deactivated ones are left readable until the TTL evicts them, so the
// registry never grows without bound.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Redis-backed tracking store.
func NewStore(rdb *redis.Client, ttl time.Duration) StoreInterface {
	return &Store{rdb: rdb, ttl: ttl}
}

func trackingKey(requestID string) string {
	return "tracking:" + requestID
}

func (s *Store) Put(ctx context.Context, entry *models.TrackingEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("store.Put: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, trackingKey(entry.RequestID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store.Put: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, requestID string) (*models.TrackingEntry, error) {
	payload, err := s.rdb.Get(ctx, trackingKey(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("store.Get: %w", err)
	}
	var entry models.TrackingEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("store.Get: unmarshal: %w", err)
	}
	return &entry, nil
}

func (s *Store) Deactivate(ctx context.Context, requestID string) error {
	entry, err := s.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("store.Deactivate: %w", err)
	}
	entry.IsActive = false

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("store.Deactivate: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, trackingKey(requestID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store.Deactivate: %w", err)
	}
	return nil
}
