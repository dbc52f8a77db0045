package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

type fakeStore struct {
	collections map[types.RegistryKey]types.CollectionMeta
	chunks      map[types.ContentHash]types.ChunkMeta
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: map[types.RegistryKey]types.CollectionMeta{},
		chunks:      map[types.ContentHash]types.ChunkMeta{},
	}
}

func (s *fakeStore) GetCollectionMeta(_ context.Context, key types.RegistryKey) (types.CollectionMeta, bool, error) {
	m, ok := s.collections[key]
	return m, ok, nil
}
func (s *fakeStore) PutCollectionMeta(_ context.Context, key types.RegistryKey, meta types.CollectionMeta) error {
	s.collections[key] = meta
	return nil
}
func (s *fakeStore) DeleteCollectionMeta(_ context.Context, key types.RegistryKey) error {
	delete(s.collections, key)
	return nil
}
func (s *fakeStore) ListCollectionMeta(_ context.Context) (map[types.RegistryKey]types.CollectionMeta, error) {
	return s.collections, nil
}
func (s *fakeStore) GetChunkMeta(_ context.Context, hash types.ContentHash) (types.ChunkMeta, bool, error) {
	m, ok := s.chunks[hash]
	return m, ok, nil
}
func (s *fakeStore) PutChunkMeta(_ context.Context, hash types.ContentHash, meta types.ChunkMeta) error {
	s.chunks[hash] = meta
	return nil
}
func (s *fakeStore) DeleteChunkMeta(_ context.Context, hash types.ContentHash) error {
	delete(s.chunks, hash)
	return nil
}
func (s *fakeStore) ListChunkMetaHashes(_ context.Context) ([]types.ContentHash, error) {
	out := make([]types.ContentHash, 0, len(s.chunks))
	for h := range s.chunks {
		out = append(out, h)
	}
	return out, nil
}

func key(provider, sourceID string) types.RegistryKey {
	return types.RegistryKey{Provider: provider, CollectionID: types.CollectionID{Type: types.CollectionTypeChat, SourceID: sourceID}}
}

func TestRegistryReplaceIsOrderedAndDeduplicatedOnAdd(t *testing.T) {
	reg := New(newFakeStore())
	reg.Replace([]types.RegistryKey{key("p", "b"), key("p", "a")})
	keys := reg.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].CollectionID.SourceID)
	assert.Equal(t, "b", keys[1].CollectionID.SourceID)

	reg.Add(key("p", "a")) // duplicate, no-op
	assert.Len(t, reg.Keys(), 2)

	reg.Add(key("p", "c"))
	assert.Len(t, reg.Keys(), 3)
}

func TestRegistryReplaceDropsStaleEntries(t *testing.T) {
	reg := New(newFakeStore())
	reg.Replace([]types.RegistryKey{key("p", "a"), key("p", "b")})
	reg.Replace([]types.RegistryKey{key("p", "b"), key("p", "c")})
	keys := reg.Keys()
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.NotEqual(t, "a", k.CollectionID.SourceID)
	}
}

func TestRegistryMetaFallsBackToBareCollectionID(t *testing.T) {
	store := newFakeStore()
	bare := types.RegistryKey{Provider: "", CollectionID: types.CollectionID{Type: types.CollectionTypeChat, SourceID: "shared"}}
	store.collections[bare] = types.CollectionMeta{Enabled: true, DisplayName: "shared default"}

	reg := New(store)
	meta, ok, err := reg.Meta(context.Background(), key("providerA", "shared"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shared default", meta.DisplayName)
}

func TestRegistryMetaPrefersExactRegistryKey(t *testing.T) {
	store := newFakeStore()
	exact := key("providerA", "shared")
	store.collections[exact] = types.CollectionMeta{DisplayName: "exact"}
	bare := types.RegistryKey{Provider: "", CollectionID: exact.CollectionID}
	store.collections[bare] = types.CollectionMeta{DisplayName: "bare"}

	reg := New(store)
	meta, ok, err := reg.Meta(context.Background(), exact)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "exact", meta.DisplayName)
}
