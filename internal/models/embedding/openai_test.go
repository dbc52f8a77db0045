package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderBatchEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
				{"object": "embedding", "index": 1, "embedding": []float32{0.3, 0.4}},
			},
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
	defer srv.Close()

	e, err := New(Config{Source: SourceOpenAI, BaseURL: srv.URL, ModelName: "text-embedding-3-small", Dimensions: 2})
	require.NoError(t, err)

	vecs, err := e.BatchEmbed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vecs[0])
	assert.Equal(t, 2, e.Dimensions())
}

func TestNewRejectsEmptyModelName(t *testing.T) {
	_, err := New(Config{Source: SourceOpenAI})
	assert.Error(t, err)
}
