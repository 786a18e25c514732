// Package leaselock provides TTL leases on keys in the flow service's
// KV store. A lease is held by a token and renewed in the background
// until released; losing a renewal cancels the lease context.
//
// The KV store has no compare-and-swap, so Acquire narrows but cannot
// close the window in which two holders both observe an expired lease.
// Leases guard against duplicate work, they are not a correctness
// primitive.
package leaselock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lantern-kg/lantern/pkg/flow"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

const keyPrefix = "locks/"

type kvStore interface {
	KVGet(ctx context.Context, key string) ([]byte, error)
	KVPut(ctx context.Context, key string, value []byte) error
	KVDelete(ctx context.Context, key string) error
}

type record struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Client struct {
	kv  kvStore
	now func() time.Time
}

type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration

	TokenPrefix string
}

type Lease struct {
	Key   string
	Token string

	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(kv kvStore) *Client {
	return &Client{kv: kv, now: time.Now}
}

func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}

	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.RenewEvery <= 0 {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	if opts.WaitJitter < 0 {
		opts.WaitJitter = 0
	}

	tok, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	token := opts.TokenPrefix + tok

	for {
		ok, err := c.acquireOnce(ctx, key, token, opts.TTL)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:     key,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	go l.renewLoop(opts)

	return l, nil
}

// acquireOnce claims the key when it is free, expired or already ours,
// then reads the claim back to detect a racing writer.
func (c *Client) acquireOnce(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	current, err := c.load(ctx, key)
	if err != nil {
		return false, err
	}
	if current != nil && current.Token != token && current.ExpiresAt.After(c.now()) {
		return false, nil
	}

	if err := c.store(ctx, key, record{Token: token, ExpiresAt: c.now().Add(ttl)}); err != nil {
		return false, err
	}

	stored, err := c.load(ctx, key)
	if err != nil {
		return false, err
	}
	return stored != nil && stored.Token == token, nil
}

func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	current, err := l.client.load(ctx, l.Key)
	if err != nil {
		return err
	}
	if current == nil || current.Token != l.Token {
		return nil
	}
	return l.client.kv.KVDelete(ctx, keyPrefix+l.Key)
}

func (l *Lease) renewLoop(opts Options) {
	t := time.NewTicker(opts.RenewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(opts.TTL); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttl time.Duration) error {
	for attempt := range 3 {
		renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
		current, err := l.client.load(renewCtx, l.Key)
		if err == nil {
			if current == nil || current.Token != l.Token {
				cancel()
				return ErrLost
			}
			err = l.client.store(renewCtx, l.Key, record{Token: l.Token, ExpiresAt: l.client.now().Add(ttl)})
		}
		cancel()
		if err == nil {
			return nil
		}
		if attempt == 2 {
			return err
		}
		if err := sleepWithJitter(l.Context, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

// load returns nil without error when no lease is stored for the key.
func (c *Client) load(ctx context.Context, key string) (*record, error) {
	data, err := c.kv.KVGet(ctx, keyPrefix+key)
	if errors.Is(err, flow.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode lease %s: %w", key, err)
	}
	return &rec, nil
}

func (c *Client) store(ctx context.Context, key string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode lease %s: %w", key, err)
	}
	return c.kv.KVPut(ctx, keyPrefix+key, data)
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
