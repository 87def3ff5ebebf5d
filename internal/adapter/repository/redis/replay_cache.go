package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/walletledger/internal/domain"
)

// ReplayCache implements usecase.ReplayCache using Redis. It only holds
// succeeded records and never decides an attempt on its own.
type ReplayCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewReplayCache creates a new ReplayCache. Entries expire together with the
// idempotency record they mirror.
func NewReplayCache(client *redis.Client, ttl time.Duration) *ReplayCache {
	if ttl <= 0 {
		ttl = domain.IdempotencyTTL
	}

	return &ReplayCache{
		client: client,
		prefix: "idempotency:",
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type cachedRecord struct {
	Digest      string    `json:"digest"`
	ReferenceID string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *ReplayCache) key(key domain.IdempotencyKey) string {
	return fmt.Sprintf("%s%d:%s:%s", c.prefix, len(key.OwnerID), key.OwnerID, key.Token)
}

// Lookup returns the cached succeeded record for key, or nil on a miss.
func (c *ReplayCache) Lookup(ctx context.Context, key domain.IdempotencyKey) (*domain.IdempotencyRecord, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}

	return &domain.IdempotencyRecord{
		Key:           key,
		PayloadDigest: cached.Digest,
		Status:        domain.IdempotencySucceeded,
		ReferenceID:   cached.ReferenceID,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.CreatedAt,
	}, nil
}

// Remember stores a succeeded record until its retention window ends.
func (c *ReplayCache) Remember(ctx context.Context, record *domain.IdempotencyRecord) error {
	if record.Status != domain.IdempotencySucceeded {
		return nil
	}

	remaining := record.CreatedAt.Add(c.ttl).Sub(c.now())
	if remaining <= 0 {
		return nil
	}

	raw, err := json.Marshal(cachedRecord{
		Digest:      record.PayloadDigest,
		ReferenceID: record.ReferenceID,
		CreatedAt:   record.CreatedAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(record.Key), raw, remaining).Err()
}
