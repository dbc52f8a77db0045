// Package sync implements component I, the background vectorization
// engine from spec §4.9: a gated, batch-at-a-time protocol that walks a
// chat's messages, groups them per the configured chunking strategy, and
// inserts whatever the backend doesn't already have.
package sync

import (
	"context"
	"errors"

	"github.com/vecthare/vecthare/internal/hashing"
	"github.com/vecthare/vecthare/internal/registry"
	oteltracing "github.com/vecthare/vecthare/internal/trace"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// Embedder mirrors the local interface each vectorbackend adapter
// declares — the sync engine needs it directly because Insert's vector
// must be computed before the item ever reaches G.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BackendResolver selects a vectorbackend.Client by settings.vector_backend,
// the same indirection internal/pipeline uses to avoid hard-wiring one backend.
type BackendResolver func(types.VectorBackendKind) (vectorbackend.Client, error)

// Deps bundles the sync engine's collaborators.
type Deps struct {
	Gate     *registry.SyncGate
	Backend  BackendResolver
	Hasher   *hashing.Hasher
	Embedder Embedder
}

// Request describes one sync batch call.
type Request struct {
	CollectionID types.CollectionID
	Enabled      bool // CollectionMeta.AutoSync
	Messages     []types.Message
	Settings     types.Settings
	BatchSize    int // items processed this call; DefaultSyncBatchSize if zero
}

// Result is spec §4.9 step 6's return shape.
type Result struct {
	Remaining        int
	MessagesProcessed int
	ChunksCreated    int
	ItemsFailed      int
}

// DefaultSyncBatchSize bounds how many new chunks one Sync call inserts
// when Request.BatchSize is unset.
const DefaultSyncBatchSize = 20

// Disabled is the step-1 sentinel: {remaining: -1}.
var Disabled = Result{Remaining: -1}

// Busy is the sentinel returned when the gate is already held by another
// sync pass — spec §4.9's "BUSY rejects concurrent entry with the -1
// sentinel".
var Busy = Result{Remaining: -1}

// Engine runs the sync protocol for one collection at a time.
type Engine struct {
	deps Deps
}

// New builds an Engine.
func New(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// Sync runs one batch of spec §4.9's six-step protocol.
func (e *Engine) Sync(ctx context.Context, req Request) (Result, error) {
	ctx, span := oteltracing.StartSpan(ctx, "sync.batch")
	defer span.End()

	if !req.Enabled {
		return Disabled, nil
	}

	if err := e.deps.Gate.Acquire(ctx, req.CollectionID); err != nil {
		if errors.Is(err, registry.ErrGateBusy) {
			return Busy, nil
		}
		return Result{}, err
	}
	defer e.deps.Gate.Release(ctx, req.CollectionID)

	client, err := e.deps.Backend(req.Settings.VectorBackend)
	if err != nil {
		return Result{}, err
	}

	existing, err := client.ListHashes(ctx, req.CollectionID.String())
	if err != nil {
		return Result{}, err
	}
	have := make(map[types.ContentHash]bool, len(existing))
	for _, h := range existing {
		have[h] = true
	}

	nonSystem := make([]types.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Speaker == "system" {
			continue
		}
		nonSystem = append(nonSystem, m)
	}

	grouped := group(nonSystem, req.Settings, e.deps.Hasher)

	queue := make([]types.Chunk, 0, len(grouped))
	for _, c := range grouped {
		if !have[c.Hash] {
			queue = append(queue, c)
		}
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultSyncBatchSize
	}
	batch := queue
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	items := make([]vectorbackend.Item, 0, len(batch))
	messageIdentities := make(map[types.ContentHash]bool)
	itemsFailed := 0

	for _, c := range batch {
		vec, embedErr := e.deps.Embedder.Embed(ctx, c.Text)
		if embedErr != nil {
			itemsFailed++
			continue
		}
		items = append(items, vectorbackend.Item{
			Hash: c.Hash, Text: c.Text, Index: c.Index, Vector: vec, Metadata: c.Metadata,
		})
		for _, mh := range messageIdentity(c) {
			messageIdentities[mh] = true
		}
	}

	chunksCreated := 0
	if len(items) > 0 {
		if insertErr := client.Insert(ctx, req.CollectionID.String(), items); insertErr != nil {
			itemsFailed += len(items)
		} else {
			chunksCreated = len(items)
		}
	}

	result := Result{
		Remaining:        len(queue) - len(batch),
		MessagesProcessed: len(messageIdentities),
		ChunksCreated:    chunksCreated,
		ItemsFailed:      itemsFailed,
	}
	return result, nil
}

// messageIdentity returns the hash(es) that identify the source message(s)
// behind one produced chunk, so the caller can dedup a grouped/split chunk
// back down to a count of distinct messages.
func messageIdentity(c types.Chunk) []types.ContentHash {
	if len(c.Metadata.MessageHashes) > 0 {
		return c.Metadata.MessageHashes
	}
	return []types.ContentHash{c.Metadata.OriginalMessageHash}
}

// group dispatches to the configured chunking strategy (spec §4.1).
func group(messages []types.Message, settings types.Settings, hasher *hashing.Hasher) []types.Chunk {
	switch settings.ChunkingStrategy {
	case types.GroupConversationTurns:
		return hashing.GroupConversationTurns(messages, hasher)
	case types.GroupMessageBatch:
		return hashing.GroupMessageBatch(messages, hasher, settings.BatchSize)
	default:
		return hashing.GroupPerMessage(messages, hasher)
	}
}
