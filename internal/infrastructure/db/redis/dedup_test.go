package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeKeyStore struct {
	keys   map[string]time.Duration
	err    error
	lastNX string
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{keys: make(map[string]time.Duration)}
}

func (f *fakeKeyStore) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	f.lastNX = key
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, exists := f.keys[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeKeyStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestScanDedup_ClaimOnce(t *testing.T) {
	store := newFakeKeyStore()
	d := newScanDedup(store, time.Hour)

	first, err := d.Claim(context.Background(), "abc")
	if err != nil || !first {
		t.Fatalf("expected first claim to win, got (%v, %v)", first, err)
	}
	second, err := d.Claim(context.Background(), "abc")
	if err != nil || second {
		t.Fatalf("expected second claim to lose, got (%v, %v)", second, err)
	}
	if store.lastNX != "scan:payload:abc" {
		t.Fatalf("unexpected key: %s", store.lastNX)
	}
	if store.keys["scan:payload:abc"] != time.Hour {
		t.Fatalf("expected ttl to be applied")
	}
}

func TestScanDedup_Release(t *testing.T) {
	store := newFakeKeyStore()
	d := newScanDedup(store, 0)

	if _, err := d.Claim(context.Background(), "abc"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if store.keys["scan:payload:abc"] != defaultDedupTTL {
		t.Fatalf("expected default ttl")
	}
	if err := d.Release(context.Background(), "abc"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	again, err := d.Claim(context.Background(), "abc")
	if err != nil || !again {
		t.Fatalf("expected claim after release to win, got (%v, %v)", again, err)
	}
}

func TestScanDedup_Errors(t *testing.T) {
	store := newFakeKeyStore()
	store.err = errors.New("connection refused")
	d := newScanDedup(store, time.Hour)

	if _, err := d.Claim(context.Background(), "abc"); err == nil {
		t.Fatalf("expected claim error")
	}
	if err := d.Release(context.Background(), "abc"); err == nil {
		t.Fatalf("expected release error")
	}
}
