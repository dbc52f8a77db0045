package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vecthare/vecthare/internal/types"
)

// ErrGateBusy is returned by AcquireSyncGate when another process already
// holds the lock for a collection (spec §4.9's IDLE/BUSY state machine).
var ErrGateBusy = errors.New("registry: sync gate busy")

// ActivationStore records per-hash activation frequency/cooldown (spec
// §4.8 step 9's per-chunk tracking), backed by Redis hashes so multiple
// pipeline instances share the same counters.
type ActivationStore struct {
	rdb    *redis.Client
	prefix string
}

// NewActivationStore wraps an already-connected redis client.
func NewActivationStore(rdb *redis.Client) *ActivationStore {
	return &ActivationStore{rdb: rdb, prefix: "vecthare:activation:"}
}

func (s *ActivationStore) key(hash types.ContentHash) string {
	return fmt.Sprintf("%s%d", s.prefix, hash)
}

// RecordActivation increments a chunk's activation count and stamps the
// current time as its last activation.
func (s *ActivationStore) RecordActivation(ctx context.Context, hash types.ContentHash, at time.Time) error {
	key := s.key(hash)
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "count", 1)
	pipe.HSet(ctx, key, "lastActivation", at.Unix())
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns a chunk's ActivationRecord, zero-valued if never recorded.
func (s *ActivationStore) Get(ctx context.Context, hash types.ContentHash) (types.ActivationRecord, error) {
	res, err := s.rdb.HGetAll(ctx, s.key(hash)).Result()
	if err != nil {
		return types.ActivationRecord{}, err
	}
	if len(res) == 0 {
		return types.ActivationRecord{}, nil
	}
	var rec types.ActivationRecord
	fmt.Sscanf(res["count"], "%d", &rec.Count)
	fmt.Sscanf(res["lastActivation"], "%d", &rec.LastActivation)
	return rec, nil
}

// SyncGate implements the distributed IDLE/BUSY lock from spec §4.9's
// sync-gate state machine, one lock per collection so concurrent syncs
// of different collections never contend.
type SyncGate struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSyncGate builds a SyncGate with a lock TTL (a crashed holder must
// not wedge a collection's sync state forever).
func NewSyncGate(rdb *redis.Client, ttl time.Duration) *SyncGate {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SyncGate{rdb: rdb, ttl: ttl}
}

func (g *SyncGate) key(collectionID types.CollectionID) string {
	return "vecthare:syncgate:" + collectionID.String()
}

// Acquire transitions a collection from IDLE to BUSY. Returns
// ErrGateBusy if another sync is already in flight.
func (g *SyncGate) Acquire(ctx context.Context, collectionID types.CollectionID) error {
	ok, err := g.rdb.SetNX(ctx, g.key(collectionID), "busy", g.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrGateBusy
	}
	return nil
}

// Release transitions a collection back to IDLE.
func (g *SyncGate) Release(ctx context.Context, collectionID types.CollectionID) error {
	return g.rdb.Del(ctx, g.key(collectionID)).Err()
}

// IsBusy reports whether a collection's gate is currently held.
func (g *SyncGate) IsBusy(ctx context.Context, collectionID types.CollectionID) (bool, error) {
	n, err := g.rdb.Exists(ctx, g.key(collectionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
