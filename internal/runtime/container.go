// Package runtime wraps a single process-wide dig container used to wire
// the pipeline, sync engine, and their collaborators (vector backend,
// metadata store, rerank client) at startup.
package runtime

import (
	"sync"

	"go.uber.org/dig"
)

var (
	once      sync.Once
	container *dig.Container
)

// GetContainer returns the process-wide dig container, building it lazily
// on first use.
func GetContainer() *dig.Container {
	once.Do(func() {
		container = dig.New()
	})
	return container
}

// Reset replaces the container with a fresh one. Tests use this to avoid
// cross-test provider leakage.
func Reset() {
	container = dig.New()
	once = sync.Once{}
}
