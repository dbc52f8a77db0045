package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vecthare/vecthare/internal/errors"
	"github.com/vecthare/vecthare/internal/registry"
)

// RegistryHandler exposes the known collection set and each one's
// activation status, per spec §6's "GET /registry (lists registry keys +
// activation status)".
type RegistryHandler struct {
	registry *registry.Registry
}

func NewRegistryHandler(reg *registry.Registry) *RegistryHandler {
	return &RegistryHandler{registry: reg}
}

// registryEntry is one row of the /registry response.
type registryEntry struct {
	Key         string `json:"key"`
	Enabled     bool   `json:"enabled"`
	AutoSync    bool   `json:"autoSync"`
	DisplayName string `json:"displayName"`
	QueryCount  int    `json:"queryCount"`
}

// List handles GET /registry.
func (h *RegistryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	keys := h.registry.Keys()

	entries := make([]registryEntry, 0, len(keys))
	for _, key := range keys {
		meta, found, err := h.registry.Meta(ctx, key)
		if err != nil {
			c.Error(errors.Wrap(errors.KindInternal, "loading collection meta", err))
			return
		}
		if !found {
			entries = append(entries, registryEntry{Key: key.String()})
			continue
		}
		entries = append(entries, registryEntry{
			Key:         key.String(),
			Enabled:     meta.Enabled,
			AutoSync:    meta.AutoSync,
			DisplayName: meta.DisplayName,
			QueryCount:  meta.QueryCount,
		})
	}

	c.JSON(200, gin.H{"collections": entries})
}
