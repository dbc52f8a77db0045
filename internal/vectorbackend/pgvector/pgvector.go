// Package pgvector is the secondary vectorbackend.Client implementation,
// backed by Postgres + pgvector via gorm, selectable via
// settings.vector_backend.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// Embedder mirrors vectorbackend/qdrant's local dependency: this package
// embeds query text itself rather than importing internal/models/embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type chunkRow struct {
	CollectionID string    `gorm:"primaryKey;column:collection_id"`
	Hash         uint32    `gorm:"primaryKey;column:hash"`
	Text         string    `gorm:"column:text"`
	ChunkIndex   int       `gorm:"column:chunk_index"`
	Metadata     []byte    `gorm:"column:metadata"` // JSONB
	Embedding    pgv.Vector `gorm:"column:embedding;type:vector(1536)"`
}

func (chunkRow) TableName() string { return "vecthare_chunks" }

// Backend implements vectorbackend.Client against a single shared table,
// partitioned logically by collection_id — the natural pgvector shape
// since Postgres doesn't have Qdrant's per-collection namespace concept.
type Backend struct {
	db       *gorm.DB
	embedder Embedder
}

func New(db *gorm.DB, embedder Embedder) *Backend {
	return &Backend{db: db, embedder: embedder}
}

func toRow(collectionID string, item vectorbackend.Item) (chunkRow, error) {
	raw, err := json.Marshal(item.Metadata)
	if err != nil {
		return chunkRow{}, fmt.Errorf("pgvector: marshal metadata: %w", err)
	}
	return chunkRow{
		CollectionID: collectionID,
		Hash:         uint32(item.Hash),
		Text:         item.Text,
		ChunkIndex:   item.Index,
		Metadata:     raw,
		Embedding:    pgv.NewVector(item.Vector),
	}, nil
}

func (r chunkRow) toHit(score float64) (vectorbackend.Hit, error) {
	var meta types.ChunkMetadata
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &meta); err != nil {
			return vectorbackend.Hit{}, fmt.Errorf("pgvector: unmarshal metadata: %w", err)
		}
	}
	return vectorbackend.Hit{
		Hash:     types.ContentHash(r.Hash),
		Score:    score,
		Text:     r.Text,
		Index:    r.ChunkIndex,
		Metadata: meta,
	}, nil
}

func (b *Backend) ListHashes(ctx context.Context, collectionID string) ([]types.ContentHash, error) {
	var hashes []uint32
	err := b.db.WithContext(ctx).Model(&chunkRow{}).
		Where("collection_id = ?", collectionID).
		Pluck("hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector: list hashes: %w", err)
	}
	out := make([]types.ContentHash, len(hashes))
	for i, h := range hashes {
		out[i] = types.ContentHash(h)
	}
	return out, nil
}

func (b *Backend) ListHashesWithMetadata(ctx context.Context, collectionID string) ([]vectorbackend.Hit, error) {
	var rows []chunkRow
	if err := b.db.WithContext(ctx).Where("collection_id = ?", collectionID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgvector: list with metadata: %w", err)
	}
	out := make([]vectorbackend.Hit, 0, len(rows))
	for _, r := range rows {
		hit, err := r.toHit(0)
		if err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, nil
}

func (b *Backend) Insert(ctx context.Context, collectionID string, items []vectorbackend.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(items))
	for i, item := range items {
		row, err := toRow(collectionID, item)
		if err != nil {
			return err
		}
		rows[i] = row
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_id"}, {Name: "hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "chunk_index", "metadata", "embedding"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("pgvector: upsert: %w", err)
	}
	return nil
}

func (b *Backend) Query(ctx context.Context, collectionID, text string, topK int) ([]vectorbackend.Hit, error) {
	vector, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("pgvector: embed query: %w", err)
	}
	queryVec := pgv.NewVector(vector)

	var rows []struct {
		chunkRow
		Distance float64 `gorm:"column:distance"`
	}
	err = b.db.WithContext(ctx).Model(&chunkRow{}).
		Select("*, embedding <=> ? AS distance", queryVec).
		Where("collection_id = ?", collectionID).
		Order("distance ASC").
		Limit(topK).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector: query: %w", err)
	}

	out := make([]vectorbackend.Hit, 0, len(rows))
	for _, r := range rows {
		// cosine_distance = 1 - cosine_similarity; invert so higher = better,
		// matching spec §4.7's "score (cosine or equivalent, higher = better)".
		hit, err := r.chunkRow.toHit(1 - r.Distance)
		if err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, nil
}

func (b *Backend) QueryMultiple(ctx context.Context, collectionIDs []string, text string, topK int, threshold float64) (map[string]vectorbackend.CollectionResult, error) {
	return vectorbackend.QueryMultipleSequential(ctx, collectionIDs, text, topK, threshold, b.Query), nil
}

func (b *Backend) Delete(ctx context.Context, collectionID string, hashes []types.ContentHash) error {
	if len(hashes) == 0 {
		return nil
	}
	raw := make([]uint32, len(hashes))
	for i, h := range hashes {
		raw[i] = uint32(h)
	}
	err := b.db.WithContext(ctx).
		Where("collection_id = ? AND hash IN ?", collectionID, raw).
		Delete(&chunkRow{}).Error
	if err != nil {
		return fmt.Errorf("pgvector: delete: %w", err)
	}
	return nil
}

func (b *Backend) Purge(ctx context.Context, collectionID string) (bool, error) {
	err := b.db.WithContext(ctx).Where("collection_id = ?", collectionID).Delete(&chunkRow{}).Error
	if err != nil {
		return false, fmt.Errorf("pgvector: purge: %w", err)
	}
	return true, nil
}

func (b *Backend) UpdateText(ctx context.Context, collectionID string, hash types.ContentHash, newText string) error {
	// pgvector has no server-side re-embedding, so UpdateText recomputes the
	// embedding itself via the configured Embedder — the closest equivalent
	// to "triggers re-embedding on the backend side" (spec §4.7) a
	// self-hosted Postgres backend can offer.
	vector, err := b.embedder.Embed(ctx, newText)
	if err != nil {
		return fmt.Errorf("pgvector: re-embed on text update: %w", err)
	}
	err = b.db.WithContext(ctx).Model(&chunkRow{}).
		Where("collection_id = ? AND hash = ?", collectionID, uint32(hash)).
		Updates(map[string]any{"text": newText, "embedding": pgv.NewVector(vector)}).Error
	if err != nil {
		return fmt.Errorf("pgvector: update text: %w", err)
	}
	return nil
}

func (b *Backend) UpdateMetadata(ctx context.Context, collectionID string, hash types.ContentHash, metadata types.ChunkMetadata) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("pgvector: marshal metadata: %w", err)
	}
	err = b.db.WithContext(ctx).Model(&chunkRow{}).
		Where("collection_id = ? AND hash = ?", collectionID, uint32(hash)).
		Update("metadata", raw).Error
	if err != nil {
		return fmt.Errorf("pgvector: update metadata: %w", err)
	}
	return nil
}

var _ vectorbackend.Client = (*Backend)(nil)
