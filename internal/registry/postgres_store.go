package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vecthare/vecthare/internal/types"
)

// collectionMetaRow is the nested-layout row the migration in
// internal/registry/migrations moves the old scattered-key data into:
// one row per registry key, metadata stored as a JSON blob rather than
// one column per CollectionMeta field, since the shape evolves with the
// spec faster than a migration-per-field would be worth.
type collectionMetaRow struct {
	RegistryKey string `gorm:"primaryKey;column:registry_key"`
	Metadata    []byte `gorm:"column:metadata"`
	UpdatedAt   time.Time
}

func (collectionMetaRow) TableName() string { return "vecthare_collection_meta" }

// chunkMetaRow backs the per-chunk metadata keyed by
// vecthare_chunk_meta_{hash} (spec §3/§4.6).
type chunkMetaRow struct {
	Hash      uint32 `gorm:"primaryKey;column:hash"`
	Metadata  []byte `gorm:"column:metadata"`
	UpdatedAt time.Time
}

func (chunkMetaRow) TableName() string { return "vecthare_chunk_meta" }

// PostgresStore is the reference MetadataStore implementation, grounded
// on the teacher's gorm repository convention (db.WithContext(ctx), one
// struct per table, gorm.ErrRecordNotFound translated to a package
// sentinel).
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an already-connected *gorm.DB. AutoMigrate is
// not called here — internal/registry/migrations owns schema evolution.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetCollectionMeta(ctx context.Context, key types.RegistryKey) (types.CollectionMeta, bool, error) {
	var row collectionMetaRow
	err := s.db.WithContext(ctx).Where("registry_key = ?", key.String()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.CollectionMeta{}, false, nil
	}
	if err != nil {
		return types.CollectionMeta{}, false, err
	}
	var meta types.CollectionMeta
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return types.CollectionMeta{}, false, fmt.Errorf("decode collection meta %s: %w", key.String(), err)
	}
	return meta, true, nil
}

func (s *PostgresStore) PutCollectionMeta(ctx context.Context, key types.RegistryKey, meta types.CollectionMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	row := collectionMetaRow{RegistryKey: key.String(), Metadata: payload, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *PostgresStore) DeleteCollectionMeta(ctx context.Context, key types.RegistryKey) error {
	return s.db.WithContext(ctx).Where("registry_key = ?", key.String()).Delete(&collectionMetaRow{}).Error
}

func (s *PostgresStore) ListCollectionMeta(ctx context.Context) (map[types.RegistryKey]types.CollectionMeta, error) {
	var rows []collectionMetaRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[types.RegistryKey]types.CollectionMeta, len(rows))
	for _, row := range rows {
		key, err := types.ParseRegistryKey(row.RegistryKey)
		if err != nil {
			continue // orphaned / pre-migration key shape, skip rather than fail the whole list
		}
		var meta types.CollectionMeta
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			continue
		}
		out[key] = meta
	}
	return out, nil
}

func (s *PostgresStore) GetChunkMeta(ctx context.Context, hash types.ContentHash) (types.ChunkMeta, bool, error) {
	var row chunkMetaRow
	err := s.db.WithContext(ctx).Where("hash = ?", uint32(hash)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ChunkMeta{}, false, nil
	}
	if err != nil {
		return types.ChunkMeta{}, false, err
	}
	var meta types.ChunkMeta
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return types.ChunkMeta{}, false, fmt.Errorf("decode chunk meta %d: %w", hash, err)
	}
	return meta, true, nil
}

func (s *PostgresStore) PutChunkMeta(ctx context.Context, hash types.ContentHash, meta types.ChunkMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	row := chunkMetaRow{Hash: uint32(hash), Metadata: payload, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *PostgresStore) DeleteChunkMeta(ctx context.Context, hash types.ContentHash) error {
	return s.db.WithContext(ctx).Where("hash = ?", uint32(hash)).Delete(&chunkMetaRow{}).Error
}

func (s *PostgresStore) ListChunkMetaHashes(ctx context.Context) ([]types.ContentHash, error) {
	var hashes []uint32
	if err := s.db.WithContext(ctx).Model(&chunkMetaRow{}).Pluck("hash", &hashes).Error; err != nil {
		return nil, err
	}
	out := make([]types.ContentHash, len(hashes))
	for i, h := range hashes {
		out[i] = types.ContentHash(h)
	}
	return out, nil
}

// ReclaimOrphans deletes chunk-meta rows whose hash is no longer present
// in backendHashes (spec §4.6: "orphan entries... must be reclaimable").
func (s *PostgresStore) ReclaimOrphans(ctx context.Context, backendHashes map[types.ContentHash]bool) (int, error) {
	all, err := s.ListChunkMetaHashes(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, h := range all {
		if backendHashes[h] {
			continue
		}
		if err := s.DeleteChunkMeta(ctx, h); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
