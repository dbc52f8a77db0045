// Package elastic is the tertiary vectorbackend.Client implementation,
// backed by Elasticsearch's dense_vector field type via go-elasticsearch's
// esapi request types — Query runs a kNN search only, useful when a
// deployment already runs Elasticsearch for other search concerns. No
// file in the example pack exercises go-elasticsearch directly, so this
// follows the library's own documented client idiom
// (elasticsearch.NewClient + esapi request bodies) rather than an
// adapted call site.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8"

	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// Embedder mirrors the other adapters' local dependency.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Backend struct {
	client   *elasticsearch.Client
	embedder Embedder
}

func New(cfg elasticsearch.Config, embedder Embedder) (*Backend, error) {
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elastic: new client: %w", err)
	}
	return &Backend{client: client, embedder: embedder}, nil
}

type document struct {
	Text     string              `json:"text"`
	Index    int                 `json:"chunk_index"`
	Vector   []float32           `json:"embedding"`
	Metadata types.ChunkMetadata `json:"metadata"`
}

func docID(hash types.ContentHash) string {
	return strconv.FormatUint(uint64(hash), 10)
}

func (b *Backend) do(ctx context.Context, req esapi.Request) (*esapi.Response, error) {
	resp, err := req.Do(ctx, b.client)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		defer resp.Body.Close()
		return nil, fmt.Errorf("elastic: %s", resp.String())
	}
	return resp, nil
}

func (b *Backend) Insert(ctx context.Context, collectionID string, items []vectorbackend.Item) error {
	for _, item := range items {
		doc := document{Text: item.Text, Index: item.Index, Vector: item.Vector, Metadata: item.Metadata}
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("elastic: marshal document: %w", err)
		}
		resp, err := b.do(ctx, esapi.IndexRequest{
			Index:      collectionID,
			DocumentID: docID(item.Hash),
			Body:       bytes.NewReader(body),
			Refresh:    "false",
		})
		if err != nil {
			return fmt.Errorf("elastic: index %s: %w", docID(item.Hash), err)
		}
		resp.Body.Close()
	}
	return nil
}

func (b *Backend) Query(ctx context.Context, collectionID, text string, topK int) ([]vectorbackend.Hit, error) {
	vector, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("elastic: embed query: %w", err)
	}

	query := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 4,
		},
		"size": topK,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elastic: marshal query: %w", err)
	}

	resp, err := b.do(ctx, esapi.SearchRequest{
		Index: []string{collectionID},
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: search: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source document        `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elastic: decode search response: %w", err)
	}

	out := make([]vectorbackend.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hashVal, err := strconv.ParseUint(h.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("elastic: parse hit id %q: %w", h.ID, err)
		}
		out = append(out, vectorbackend.Hit{
			Hash:     types.ContentHash(hashVal),
			Score:    h.Score,
			Text:     h.Source.Text,
			Index:    h.Source.Index,
			Metadata: h.Source.Metadata,
		})
	}
	return out, nil
}

func (b *Backend) QueryMultiple(ctx context.Context, collectionIDs []string, text string, topK int, threshold float64) (map[string]vectorbackend.CollectionResult, error) {
	return vectorbackend.QueryMultipleSequential(ctx, collectionIDs, text, topK, threshold, b.Query), nil
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
	body := bytes.NewReader([]byte(`{"query":{"match_all":{}}}`))
	resp, err := b.do(ctx, esapi.SearchRequest{
		Index:  []string{collectionID},
		Body:   body,
		Scroll: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: list all: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elastic: decode list response: %w", err)
	}

	out := make([]vectorbackend.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hashVal, err := strconv.ParseUint(h.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("elastic: parse hit id %q: %w", h.ID, err)
		}
		out = append(out, vectorbackend.Hit{
			Hash:     types.ContentHash(hashVal),
			Text:     h.Source.Text,
			Index:    h.Source.Index,
			Metadata: h.Source.Metadata,
		})
	}
	return out, nil
}

func (b *Backend) Delete(ctx context.Context, collectionID string, hashes []types.ContentHash) error {
	for _, h := range hashes {
		resp, err := b.do(ctx, esapi.DeleteRequest{Index: collectionID, DocumentID: docID(h)})
		if err != nil {
			return fmt.Errorf("elastic: delete %s: %w", docID(h), err)
		}
		resp.Body.Close()
	}
	return nil
}

func (b *Backend) Purge(ctx context.Context, collectionID string) (bool, error) {
	resp, err := b.do(ctx, esapi.IndicesDeleteRequest{Index: []string{collectionID}})
	if err != nil {
		return false, fmt.Errorf("elastic: purge index: %w", err)
	}
	resp.Body.Close()
	return true, nil
}

func (b *Backend) UpdateText(ctx context.Context, collectionID string, hash types.ContentHash, newText string) error {
	vector, err := b.embedder.Embed(ctx, newText)
	if err != nil {
		return fmt.Errorf("elastic: re-embed on text update: %w", err)
	}
	update := map[string]any{"doc": map[string]any{"text": newText, "embedding": vector}}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("elastic: marshal update: %w", err)
	}
	resp, err := b.do(ctx, esapi.UpdateRequest{Index: collectionID, DocumentID: docID(hash), Body: bytes.NewReader(body)})
	if err != nil {
		return fmt.Errorf("elastic: update text: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (b *Backend) UpdateMetadata(ctx context.Context, collectionID string, hash types.ContentHash, metadata types.ChunkMetadata) error {
	update := map[string]any{"doc": map[string]any{"metadata": metadata}}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("elastic: marshal update: %w", err)
	}
	resp, err := b.do(ctx, esapi.UpdateRequest{Index: collectionID, DocumentID: docID(hash), Body: bytes.NewReader(body)})
	if err != nil {
		return fmt.Errorf("elastic: update metadata: %w", err)
	}
	resp.Body.Close()
	return nil
}

var _ vectorbackend.Client = (*Backend)(nil)
