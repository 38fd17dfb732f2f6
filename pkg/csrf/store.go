package csrf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store records accepted tokens for single-use mode. Consume returns true
// the first time a token is seen within ttl.
type Store interface {
	Consume(ctx context.Context, token string, ttl time.Duration) (bool, error)
}

// MemoryStore keeps used tokens in process memory. Expired entries are
// removed by the cleanup loop started with Start or Run.
type MemoryStore struct {
	mu   sync.Mutex
	used map[string]time.Time

	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time

	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired tokens are dropped.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// WithMemoryStoreClock replaces time.Now, for tests.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		used:            make(map[string]time.Time),
		cleanupInterval: time.Minute,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

func (ms *MemoryStore) Consume(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	if exp, ok := ms.used[token]; ok && now.Before(exp) {
		return false, nil
	}
	ms.used[token] = now.Add(ttl)
	return true, nil
}

// Len returns the number of tracked tokens.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.used)
}

// Start runs the cleanup loop until ctx is cancelled or Stop is called.
func (ms *MemoryStore) Start(ctx context.Context) error {
	if ms.cleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup interval must be > 0, got %v", ErrInvalidConfig, ms.cleanupInterval)
	}

	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return errors.New("csrf: memory store already started")
	}
	ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ctx, "csrf memory store cleanup started",
		slog.Duration("cleanup_interval", ms.cleanupInterval))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ms.wg.Add(1)
			ms.removeExpired()
			ms.wg.Done()
		}
	}
}

// Stop cancels the cleanup loop and waits for a running sweep.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return errors.New("csrf: memory store not started")
	}
	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(ms.shutdownTimeout):
		return fmt.Errorf("csrf: memory store shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run returns a function for errgroup-style lifecycle management.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// IsRunning reports whether the cleanup loop is active.
func (ms *MemoryStore) IsRunning() bool {
	return ms.running.Load()
}

func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for token, exp := range ms.used {
		if !now.Before(exp) {
			delete(ms.used, token)
			removed++
		}
	}
	if removed > 0 {
		ms.logger.Debug("csrf memory store removed expired tokens", slog.Int("count", removed))
	}
}

// DefaultRedisKeyPrefix namespaces used-token keys.
const DefaultRedisKeyPrefix = "csrf:used:"

// RedisStore records used tokens with SET NX and a TTL, so replay
// protection holds across instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix uses
// DefaultRedisKeyPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Consume(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.Key(token), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("csrf: redis setnx: %w", err)
	}
	return ok, nil
}

// Key returns the redis key for token. Tokens are hashed to keep keys short.
func (s *RedisStore) Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + hex.EncodeToString(sum[:])
}
