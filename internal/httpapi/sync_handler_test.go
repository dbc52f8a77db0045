package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/hashing"
	"github.com/vecthare/vecthare/internal/registry"
	syncengine "github.com/vecthare/vecthare/internal/sync"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{0.1}, nil }

type fakeBackend struct{ hashes []types.ContentHash }

func (b *fakeBackend) ListHashes(context.Context, string) ([]types.ContentHash, error) {
	return b.hashes, nil
}
func (b *fakeBackend) ListHashesWithMetadata(context.Context, string) ([]vectorbackend.Hit, error) {
	return nil, nil
}
func (b *fakeBackend) Insert(_ context.Context, _ string, items []vectorbackend.Item) error {
	for _, it := range items {
		b.hashes = append(b.hashes, it.Hash)
	}
	return nil
}
func (b *fakeBackend) Query(context.Context, string, string, int) ([]vectorbackend.Hit, error) {
	return nil, nil
}
func (b *fakeBackend) QueryMultiple(context.Context, []string, string, int, float64) (map[string]vectorbackend.CollectionResult, error) {
	return nil, nil
}
func (b *fakeBackend) Delete(context.Context, string, []types.ContentHash) error { return nil }
func (b *fakeBackend) Purge(context.Context, string) (bool, error)               { return true, nil }
func (b *fakeBackend) UpdateText(context.Context, string, types.ContentHash, string) error {
	return nil
}
func (b *fakeBackend) UpdateMetadata(context.Context, string, types.ContentHash, types.ChunkMetadata) error {
	return nil
}

func TestSyncHandlerRunBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher := hashing.NewHasher(hashing.Default, 100)
	cid := types.CollectionID{Type: types.CollectionTypeChat, SourceID: "chat1"}
	msg := types.Message{ID: 1, Text: "hello", Speaker: "user", Hash: hasher.Hash("hello")}

	backend := &fakeBackend{}
	engine := syncengine.New(syncengine.Deps{
		Gate:     registry.NewSyncGate(rdb, 0),
		Backend:  func(types.VectorBackendKind) (vectorbackend.Client, error) { return backend, nil },
		Hasher:   hasher,
		Embedder: fakeEmbedder{},
	})

	source := func(context.Context, types.CollectionID) ([]types.Message, bool, types.Settings, error) {
		return []types.Message{msg}, true, types.DefaultSettings(), nil
	}

	h := NewSyncHandler(engine, source)
	r := gin.New()
	r.POST("/sync/:collectionId", h.RunBatch)

	req := httptest.NewRequest(http.MethodPost, "/sync/"+cid.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"chunksCreated":1`)
}

func TestSyncHandlerBadCollectionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			c.JSON(400, gin.H{"error": c.Errors.Last().Error()})
		}
	})
	h := NewSyncHandler(nil, nil)
	r.POST("/sync/:collectionId", h.RunBatch)

	req := httptest.NewRequest(http.MethodPost, "/sync/not-a-valid-id", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
}
