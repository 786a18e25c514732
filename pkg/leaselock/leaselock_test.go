package leaselock

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lantern-kg/lantern/pkg/flow"
)

type fakeKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string][]byte)}
}

func (f *fakeKV) KVGet(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return nil, flow.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (f *fakeKV) KVPut(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) KVDelete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func seedLease(t *testing.T, kv *fakeKV, key string, token string, expiresAt time.Time) {
	t.Helper()
	data, err := json.Marshal(record{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("encode lease: %v", err)
	}
	if err := kv.KVPut(context.Background(), keyPrefix+key, data); err != nil {
		t.Fatalf("seed lease: %v", err)
	}
}

func TestAcquireAndRelease(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx := context.Background()

	lease, err := client.Acquire(ctx, "library/default/rec1", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if lease.Token == "" {
		t.Fatal("expected a token")
	}
	if _, err := kv.KVGet(ctx, "locks/library/default/rec1"); err != nil {
		t.Fatalf("lease not stored: %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := kv.KVGet(ctx, "locks/library/default/rec1"); !errors.Is(err, flow.ErrNotFound) {
		t.Fatalf("lease still stored after release, err = %v", err)
	}
}

func TestAcquireEmptyKey(t *testing.T) {
	client := New(newFakeKV())
	if _, err := client.Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestAcquireBusy(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx := context.Background()

	first, err := client.Acquire(ctx, "job", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.Release(ctx)

	if _, err := client.Acquire(ctx, "job", Options{TTL: time.Minute}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	second, err := client.Acquire(ctx, "job", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.Release(ctx)
}

func TestAcquireTakesOverExpiredLease(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx := context.Background()

	seedLease(t, kv, "job", "stale-holder", time.Now().Add(-time.Second))

	lease, err := client.Acquire(ctx, "job", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("acquire over expired lease: %v", err)
	}
	defer lease.Release(ctx)

	if lease.Token == "stale-holder" {
		t.Fatal("expected a fresh token")
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	seedLease(t, kv, "job", "other", time.Now().Add(50*time.Millisecond))

	lease, err := client.Acquire(ctx, "job", Options{
		TTL:          time.Minute,
		Wait:         true,
		WaitInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("waiting acquire: %v", err)
	}
	lease.Release(context.Background())
}

func TestWithLease(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx := context.Background()

	called := false
	err := client.WithLease(ctx, "job", Options{TTL: time.Minute}, func(ctx context.Context) error {
		called = true
		if ctx.Err() != nil {
			t.Fatalf("lease context already done: %v", ctx.Err())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with lease: %v", err)
	}
	if !called {
		t.Fatal("expected fn to run")
	}
	if _, err := kv.KVGet(ctx, "locks/job"); !errors.Is(err, flow.ErrNotFound) {
		t.Fatal("lease not released after fn")
	}
}

func TestWithLeasePropagatesError(t *testing.T) {
	client := New(newFakeKV())
	wantErr := errors.New("work failed")

	err := client.WithLease(context.Background(), "job", Options{TTL: time.Minute}, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected work error, got %v", err)
	}
}

func TestRenewLossCancelsLeaseContext(t *testing.T) {
	kv := newFakeKV()
	client := New(kv)
	ctx := context.Background()

	lease, err := client.Acquire(ctx, "job", Options{
		TTL:        10 * time.Second,
		RenewEvery: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release(ctx)

	seedLease(t, kv, "job", "thief", time.Now().Add(time.Minute))

	select {
	case <-lease.Context.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("lease context not cancelled after losing the lock")
	}
	if cause := context.Cause(lease.Context); !errors.Is(cause, ErrLost) {
		t.Fatalf("expected ErrLost cause, got %v", cause)
	}
}
