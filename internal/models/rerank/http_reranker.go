package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vecthare/vecthare/internal/logger"
)

// HTTPReranker is grounded on the teacher's JinaReranker: a plain
// POST .../rerank with a bearer key, no vendor SDK, since cross-encoder
// rerank endpoints don't share one standard client library the way chat
// and embeddings do.
type HTTPReranker struct {
	modelName string
	apiKey    string
	baseURL   string
	client    *http.Client
}

// NewHTTPReranker builds an HTTPReranker.
func NewHTTPReranker(cfg Config) *HTTPReranker {
	return &HTTPReranker{
		modelName: cfg.ModelName,
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		client:    &http.Client{},
	}
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	ReturnDocuments bool     `json:"return_documents,omitempty"`
}

type rerankResponse struct {
	Results []RankResult `json:"results"`
}

// Rerank implements Reranker.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string) ([]RankResult, error) {
	body, err := json.Marshal(rerankRequest{Model: r.modelName, Query: query, Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("rerank: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rerank: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rerank: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger(ctx).Errorf("rerank endpoint error: status %s body %s", resp.Status, string(respBody))
		return nil, fmt.Errorf("rerank: endpoint returned %s", resp.Status)
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("rerank: unmarshal response: %w", err)
	}
	return parsed.Results, nil
}
