// Package qdrant is the primary vectorbackend.Client implementation,
// backed by Qdrant via its native gRPC client.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"

	qdrantgo "github.com/qdrant/go-client/qdrant"

	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// Embedder is the narrow dependency this backend needs from
// internal/models/embedding to turn query text into a vector — kept as a
// local interface so this package doesn't import models/embedding
// directly (it would otherwise be the only vectorbackend adapter with an
// upward dependency on a models/ package).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Backend implements vectorbackend.Client against a Qdrant cluster, one
// Qdrant collection per vecthare collection ID.
type Backend struct {
	client   *qdrantgo.Client
	embedder Embedder
	// VectorSize is used only to lazily create a collection on first
	// insert; Qdrant collections are otherwise schemaless from our side.
	VectorSize uint64
}

// New dials Qdrant's gRPC endpoint. embedder turns Query's text argument
// into the vector Qdrant actually searches on.
func New(host string, port int, useTLS bool, embedder Embedder) (*Backend, error) {
	client, err := qdrantgo.NewClient(&qdrantgo.Config{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial: %w", err)
	}
	return &Backend{client: client, embedder: embedder, VectorSize: 1536}, nil
}

func (b *Backend) ensureCollection(ctx context.Context, collectionID string) error {
	exists, err := b.client.CollectionExists(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("qdrant: collection exists check: %w", err)
	}
	if exists {
		return nil
	}
	return b.client.CreateCollection(ctx, &qdrantgo.CreateCollection{
		CollectionName: collectionID,
		VectorsConfig: qdrantgo.NewVectorsConfig(&qdrantgo.VectorParams{
			Size:     b.VectorSize,
			Distance: qdrantgo.Distance_Cosine,
		}),
	})
}

func pointID(hash types.ContentHash) *qdrantgo.PointId {
	return qdrantgo.NewIDNum(uint64(hash))
}

func metadataPayload(text string, index int, meta types.ChunkMetadata) (map[string]*qdrantgo.Value, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("qdrant: marshal metadata: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("qdrant: unmarshal metadata: %w", err)
	}
	payload := qdrantgo.NewValueMap(asMap)
	payload["text"] = qdrantgo.NewValueString(text)
	payload["index"] = qdrantgo.NewValueInt(int64(index))
	return payload, nil
}

func unpackHit(p *qdrantgo.RetrievedPoint, score float64) (vectorbackend.Hit, error) {
	fields := p.GetPayload()
	text := fields["text"].GetStringValue()
	index := int(fields["index"].GetIntegerValue())

	delete(fields, "text")
	delete(fields, "index")
	raw, err := json.Marshal(fieldsToMap(fields))
	if err != nil {
		return vectorbackend.Hit{}, fmt.Errorf("qdrant: marshal payload back: %w", err)
	}
	var meta types.ChunkMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return vectorbackend.Hit{}, fmt.Errorf("qdrant: unmarshal payload into metadata: %w", err)
	}

	return vectorbackend.Hit{
		Hash:     types.ContentHash(p.GetId().GetNum()),
		Score:    score,
		Text:     text,
		Index:    index,
		Metadata: meta,
	}, nil
}

func fieldsToMap(fields map[string]*qdrantgo.Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v.AsInterface()
	}
	return out
}

func (b *Backend) ListHashes(ctx context.Context, collectionID string) ([]types.ContentHash, error) {
	hits, err := b.ListHashesWithMetadata(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	out := make([]types.ContentHash, len(hits))
	for i, h := range hits {
		out[i] = h.Hash
	}
	return out, nil
}

func (b *Backend) ListHashesWithMetadata(ctx context.Context, collectionID string) ([]vectorbackend.Hit, error) {
	exists, err := b.client.CollectionExists(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("qdrant: collection exists check: %w", err)
	}
	if !exists {
		return nil, nil
	}

	var out []vectorbackend.Hit
	var offset *qdrantgo.PointId
	for {
		points, next, err := b.client.Scroll(ctx, &qdrantgo.ScrollPoints{
			CollectionName: collectionID,
			Offset:         offset,
			WithPayload:    qdrantgo.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: scroll: %w", err)
		}
		for _, p := range points {
			hit, err := unpackHit(&qdrantgo.RetrievedPoint{Id: p.GetId(), Payload: p.GetPayload()}, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, hit)
		}
		if next == nil {
			break
		}
		offset = next
	}
	return out, nil
}

func (b *Backend) Insert(ctx context.Context, collectionID string, items []vectorbackend.Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := b.ensureCollection(ctx, collectionID); err != nil {
		return err
	}

	points := make([]*qdrantgo.PointStruct, len(items))
	for i, item := range items {
		payload, err := metadataPayload(item.Text, item.Index, item.Metadata)
		if err != nil {
			return err
		}
		points[i] = &qdrantgo.PointStruct{
			Id:      pointID(item.Hash),
			Vectors: qdrantgo.NewVectors(item.Vector...),
			Payload: payload,
		}
	}

	_, err := b.client.Upsert(ctx, &qdrantgo.UpsertPoints{
		CollectionName: collectionID,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

func (b *Backend) queryEmbedded(ctx context.Context, collectionID string, vector []float32, topK int) ([]vectorbackend.Hit, error) {
	exists, err := b.client.CollectionExists(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("qdrant: collection exists check: %w", err)
	}
	if !exists {
		return nil, nil
	}

	limit := uint64(topK)
	points, err := b.client.Query(ctx, &qdrantgo.QueryPoints{
		CollectionName: collectionID,
		Query:          qdrantgo.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrantgo.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	out := make([]vectorbackend.Hit, 0, len(points))
	for _, p := range points {
		hit, err := unpackHit(&qdrantgo.RetrievedPoint{Id: p.GetId(), Payload: p.GetPayload()}, float64(p.GetScore()))
		if err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, nil
}

// Query embeds text via the configured Embedder, then searches on the
// resulting vector.
func (b *Backend) Query(ctx context.Context, collectionID, text string, topK int) ([]vectorbackend.Hit, error) {
	vector, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}
	return b.queryEmbedded(ctx, collectionID, vector, topK)
}

func (b *Backend) QueryMultiple(ctx context.Context, collectionIDs []string, text string, topK int, threshold float64) (map[string]vectorbackend.CollectionResult, error) {
	return vectorbackend.QueryMultipleSequential(ctx, collectionIDs, text, topK, threshold, b.Query), nil
}

func (b *Backend) Delete(ctx context.Context, collectionID string, hashes []types.ContentHash) error {
	if len(hashes) == 0 {
		return nil
	}
	ids := make([]*qdrantgo.PointId, len(hashes))
	for i, h := range hashes {
		ids[i] = pointID(h)
	}
	_, err := b.client.Delete(ctx, &qdrantgo.DeletePoints{
		CollectionName: collectionID,
		Points:         qdrantgo.NewPointsSelector(ids...),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete: %w", err)
	}
	return nil
}

func (b *Backend) Purge(ctx context.Context, collectionID string) (bool, error) {
	if err := b.client.DeleteCollection(ctx, collectionID); err != nil {
		return false, fmt.Errorf("qdrant: delete collection: %w", err)
	}
	return true, nil
}

func (b *Backend) UpdateText(ctx context.Context, collectionID string, hash types.ContentHash, newText string) error {
	_, err := b.client.SetPayload(ctx, &qdrantgo.SetPayloadPoints{
		CollectionName: collectionID,
		Payload:        map[string]*qdrantgo.Value{"text": qdrantgo.NewValueString(newText)},
		PointsSelector: qdrantgo.NewPointsSelector(pointID(hash)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: update text: %w", err)
	}
	return nil
}

func (b *Backend) UpdateMetadata(ctx context.Context, collectionID string, hash types.ContentHash, metadata types.ChunkMetadata) error {
	payload, err := metadataPayload("", 0, metadata)
	if err != nil {
		return err
	}
	delete(payload, "text")
	delete(payload, "index")
	_, err = b.client.OverwritePayload(ctx, &qdrantgo.SetPayloadPoints{
		CollectionName: collectionID,
		Payload:        payload,
		PointsSelector: qdrantgo.NewPointsSelector(pointID(hash)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: update metadata: %w", err)
	}
	return nil
}

var _ vectorbackend.Client = (*Backend)(nil)
