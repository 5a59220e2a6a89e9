package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cafe-gateway/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	ordersKey  = "gateway:kitchen:orders"
	versionKey = "gateway:kitchen:orders:version"
)

// Store caches the latest kitchen-orders snapshot in Redis with a monotonic
// version. Refreshes race freely; Save discards any result older than what
// is already stored, so a slow fetch can never clobber a newer one.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	mu      sync.Mutex
	counter uint64
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// NextVersion hands out the version for a refresh about to start.
func (s *Store) NextVersion() uint64 {
	return atomic.AddUint64(&s.counter, 1)
}

// stale reports whether a refresh result carrying version has been
// superseded by what is already stored. Equal versions count as stale so a
// duplicate write never bumps the TTL without new data.
func stale(stored uint64, found bool, version uint64) bool {
	return found && stored >= version
}

// Save stores a snapshot unless a newer version has already been written.
// Returns false when the snapshot was stale and discarded.
func (s *Store) Save(ctx context.Context, version uint64, orders []domain.KitchenOrder) (bool, error) {
	payload, err := json.Marshal(orders)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.rdb.Get(ctx, versionKey).Uint64()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("read snapshot version: %w", err)
	}
	if stale(stored, err == nil, version) {
		return false, nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, ordersKey, payload, s.ttl)
	pipe.Set(ctx, versionKey, version, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	return true, nil
}

// Load returns the cached snapshot and its version. A missing snapshot
// returns (nil, 0, nil).
func (s *Store) Load(ctx context.Context) ([]domain.KitchenOrder, uint64, error) {
	payload, err := s.rdb.Get(ctx, ordersKey).Bytes()
	if err == redis.Nil {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot: %w", err)
	}
	version, err := s.rdb.Get(ctx, versionKey).Uint64()
	if err != nil && err != redis.Nil {
		return nil, 0, fmt.Errorf("read snapshot version: %w", err)
	}
	var orders []domain.KitchenOrder
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	return orders, version, nil
}
