package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 30 * 24 * time.Hour

// keyStore is the part of the Redis client the replay store needs.
type keyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ScanDedup remembers redeemed QR payload digests so a receipt counts once.
// Key format: scan:payload:<sha256 hex>
type ScanDedup struct {
	client keyStore
	ttl    time.Duration
}

// NewScanDedup wraps client. A non-positive ttl selects 30 days.
func NewScanDedup(client *redis.Client, ttl time.Duration) *ScanDedup {
	return newScanDedup(client, ttl)
}

func newScanDedup(client keyStore, ttl time.Duration) *ScanDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &ScanDedup{client: client, ttl: ttl}
}

// Claim atomically marks digest as used. It returns true only for the first
// caller.
func (d *ScanDedup) Claim(ctx context.Context, digest string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(digest), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

// Release removes the mark set by Claim.
func (d *ScanDedup) Release(ctx context.Context, digest string) error {
	if err := d.client.Del(ctx, d.key(digest)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

func (d *ScanDedup) key(digest string) string {
	return "scan:payload:" + digest
}
