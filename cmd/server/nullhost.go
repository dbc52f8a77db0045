package main

import (
	"context"
	"sync"

	"github.com/vecthare/vecthare/internal/logger"
)

// NullHost is the standalone-process stand-in for pipeline.Host: a real
// deployment embeds vecthare inside a chat frontend or agent runtime
// that owns an actual prompt slot to clear/write/read. Running vecthare
// as its own service (cmd/server) has no such slot, so NullHost keeps
// the last written text per tag in memory and logs writes, giving
// /debug/last-trace something to report against without a frontend.
type NullHost struct {
	mu   sync.Mutex
	text map[string]string
}

func NewNullHost() *NullHost {
	return &NullHost{text: make(map[string]string)}
}

func (h *NullHost) ClearSlot(ctx context.Context, tag string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.text, tag)
	return nil
}

func (h *NullHost) WriteSlot(ctx context.Context, tag, text, position string, depth int) error {
	h.mu.Lock()
	h.text[tag] = text
	h.mu.Unlock()
	logger.Infof(ctx, "nullhost: wrote %d chars to slot %q at %s/%d", len(text), tag, position, depth)
	return nil
}

func (h *NullHost) ReadSlot(ctx context.Context, tag string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.text[tag], nil
}
