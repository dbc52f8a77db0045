// Package registry implements the collection registry and metadata store
// (spec component F): the ordered set of registry keys that are
// candidates for "which collections might be queried", plus the
// per-collection and per-chunk metadata key-value contract.
package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vecthare/vecthare/internal/types"
)

// ErrNotFound is returned by MetadataStore lookups with no entry.
var ErrNotFound = errors.New("registry: not found")

// MetadataStore is the narrow key-value contract spec §4.6 calls an
// "arbitrary key-value map". internal/registry ships a Postgres-backed
// reference implementation (postgres_store.go); any other store can
// satisfy this interface.
type MetadataStore interface {
	GetCollectionMeta(ctx context.Context, key types.RegistryKey) (types.CollectionMeta, bool, error)
	PutCollectionMeta(ctx context.Context, key types.RegistryKey, meta types.CollectionMeta) error
	DeleteCollectionMeta(ctx context.Context, key types.RegistryKey) error
	ListCollectionMeta(ctx context.Context) (map[types.RegistryKey]types.CollectionMeta, error)

	GetChunkMeta(ctx context.Context, hash types.ContentHash) (types.ChunkMeta, bool, error)
	PutChunkMeta(ctx context.Context, hash types.ContentHash, meta types.ChunkMeta) error
	DeleteChunkMeta(ctx context.Context, hash types.ContentHash) error
	ListChunkMetaHashes(ctx context.Context) ([]types.ContentHash, error)
}

// Registry is the in-process ordered set of known registry keys, backed
// by a MetadataStore for the actual metadata. It is rebuilt wholesale by
// discovery sweeps (spec §4.6: "replaces the registry with the ground
// truth set").
type Registry struct {
	store MetadataStore

	mu   sync.RWMutex
	keys []types.RegistryKey
}

// New builds a Registry over store. The registry starts empty until
// Refresh or Replace is called.
func New(store MetadataStore) *Registry {
	return &Registry{store: store}
}

// Keys returns a snapshot of the current registry key set, in stable
// (lexical) order.
func (r *Registry) Keys() []types.RegistryKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.RegistryKey, len(r.keys))
	copy(out, r.keys)
	return out
}

// Replace atomically swaps the registry's key set, dropping stale
// entries and adding new ones (spec §4.6: discovery "replaces the
// registry with the ground truth set"). Metadata for removed keys is
// left in the store — a collection can be rediscovered later without
// losing its settings.
func (r *Registry) Replace(keys []types.RegistryKey) {
	sorted := make([]types.RegistryKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	r.mu.Lock()
	r.keys = sorted
	r.mu.Unlock()
}

// Add inserts key if not already present.
func (r *Registry) Add(key types.RegistryKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k == key {
			return
		}
	}
	r.keys = append(r.keys, key)
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i].String() < r.keys[j].String() })
}

// Meta resolves a collection's metadata with the lookup precedence spec
// §4.6 calls for: by registry key first (provider-qualified), falling
// back to the plain collection ID shared across providers.
func (r *Registry) Meta(ctx context.Context, key types.RegistryKey) (types.CollectionMeta, bool, error) {
	meta, ok, err := r.store.GetCollectionMeta(ctx, key)
	if err != nil {
		return types.CollectionMeta{}, false, err
	}
	if ok {
		return meta, true, nil
	}
	bare := types.RegistryKey{Provider: "", CollectionID: key.CollectionID}
	return r.store.GetCollectionMeta(ctx, bare)
}

// Store exposes the underlying MetadataStore for callers (sync engine,
// pipeline) that need direct chunk-meta access.
func (r *Registry) Store() MetadataStore {
	return r.store
}
