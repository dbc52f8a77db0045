package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vecthare/vecthare/internal/errors"
	syncengine "github.com/vecthare/vecthare/internal/sync"
	"github.com/vecthare/vecthare/internal/types"
)

// SyncHandler exposes one sync-engine batch per request, per spec §6's
// "backend HTTP surface" sketch: "POST /sync/{collectionId} (drives one
// sync-engine batch)". A host polling for "fully synced" calls this
// repeatedly until the response's remaining is 0 or -1, the same loop
// internal/sync.Driver runs as a background job.
type SyncHandler struct {
	engine *syncengine.Engine
	source syncengine.MessageSource
}

// NewSyncHandler builds a SyncHandler. source loads the current message
// set, enabled flag, and settings for a collection — normally backed by
// the host's own message store plus internal/registry's CollectionMeta.
func NewSyncHandler(engine *syncengine.Engine, source syncengine.MessageSource) *SyncHandler {
	return &SyncHandler{engine: engine, source: source}
}

// RunBatch handles POST /sync/:collectionId.
func (h *SyncHandler) RunBatch(c *gin.Context) {
	ctx := c.Request.Context()

	collectionID, err := types.ParseCollectionID(c.Param("collectionId"))
	if err != nil {
		c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	messages, enabled, settings, err := h.source(ctx, collectionID)
	if err != nil {
		c.Error(errors.Wrap(errors.KindInternal, "loading sync source", err))
		return
	}

	result, err := h.engine.Sync(ctx, syncengine.Request{
		CollectionID: collectionID,
		Enabled:      enabled,
		Messages:     messages,
		Settings:     settings,
	})
	if err != nil {
		c.Error(errors.Wrap(errors.KindInternal, "sync batch failed", err))
		return
	}

	c.JSON(200, gin.H{
		"remaining":         result.Remaining,
		"messagesProcessed": result.MessagesProcessed,
		"chunksCreated":     result.ChunksCreated,
		"itemsFailed":       result.ItemsFailed,
	})
}
