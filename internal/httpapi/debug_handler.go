package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vecthare/vecthare/internal/errors"
	oteltracing "github.com/vecthare/vecthare/internal/trace"
)

// DebugHandler publishes the most recent pipeline run's full debug
// record, per spec §6's "GET /debug/last-trace (publishes the most
// recent DebugData)".
type DebugHandler struct {
	recorder *oteltracing.Recorder
}

func NewDebugHandler(recorder *oteltracing.Recorder) *DebugHandler {
	return &DebugHandler{recorder: recorder}
}

// LastTrace handles GET /debug/last-trace.
func (h *DebugHandler) LastTrace(c *gin.Context) {
	data, ok := h.recorder.LastTrace()
	if !ok {
		c.Error(errors.NewNotFoundError("no trace recorded yet"))
		return
	}
	c.JSON(200, data)
}
