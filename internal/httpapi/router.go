// Package httpapi is the thin admin/debug HTTP surface spec §6 sketches
// for hosts that run vecthare as a standalone service rather than an
// in-process library: a sync trigger, the last debug trace, and a
// registry listing. It carries no business logic of its own — every
// handler delegates straight to internal/sync, internal/trace, or
// internal/registry, the same handler-is-a-thin-adapter shape the
// teacher's internal/handler package uses.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vecthare/vecthare/internal/errors"
)

// Config controls the router's auth and CORS posture.
type Config struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter builds the gin engine wiring sync/debug/registry handlers
// behind CORS, JWT auth, and the shared AppError-rendering middleware.
func NewRouter(cfg Config, sync *SyncHandler, debug *DebugHandler, reg *RegistryHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSConfig(cfg.AllowedOrigins))
	r.Use(errors.Middleware())

	schemas := NewConditionSchemaHandler()

	admin := r.Group("/", AuthMiddleware(cfg.JWTSecret))
	admin.POST("/sync/:collectionId", sync.RunBatch)
	admin.GET("/debug/last-trace", debug.LastTrace)
	admin.GET("/registry", reg.List)
	admin.GET("/condition-rules/schema", schemas.List)

	return r
}
