package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vecthare/vecthare/internal/common"
	"github.com/vecthare/vecthare/internal/types"
)

// TaskTypeBatch is the asynq task type one Driver enqueues per collection.
// The teacher's TaskHandler interface is the only pack touchpoint for
// asynq; no call site shows client/server wiring, so this follows the
// library's own documented NewClient/ServeMux idiom directly.
const TaskTypeBatch = "sync:batch"

// batchPayload is TaskTypeBatch's task payload.
type batchPayload struct {
	CollectionID types.CollectionID `json:"collectionId"`
}

// MessageSource loads the messages a sync batch should consider. The
// driver calls it fresh on every batch since the protocol re-reads the
// backend's hash set each time rather than keeping persistent sync state
// (spec §4.9: "No persistent sync state").
type MessageSource func(ctx context.Context, collectionID types.CollectionID) ([]types.Message, bool, types.Settings, error)

// Driver loops an Engine call until remaining reaches 0 or -1, per spec
// §4.9: "The caller (a batch driver) loops until remaining == 0 or -1,
// updating a progress indicator between batches."
type Driver struct {
	engine  *Engine
	client  *asynq.Client
	source  MessageSource
	onBatch func(types.CollectionID, Result)
}

// NewDriver builds a Driver around an asynq redis target.
func NewDriver(engine *Engine, redisOpt asynq.RedisConnOpt, source MessageSource, onBatch func(types.CollectionID, Result)) *Driver {
	return &Driver{
		engine:  engine,
		client:  asynq.NewClient(redisOpt),
		source:  source,
		onBatch: onBatch,
	}
}

// Enqueue schedules one sync run for a collection.
func (d *Driver) Enqueue(ctx context.Context, collectionID types.CollectionID) error {
	payload, err := json.Marshal(batchPayload{CollectionID: collectionID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTypeBatch, payload)
	_, err = d.client.EnqueueContext(ctx, task)
	return err
}

// HandleTask implements the teacher's TaskHandler shape
// (interfaces.TaskHandler): it loops the engine across batches for one
// collection until the protocol signals done or busy.
func (d *Driver) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload batchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("sync: bad task payload: %w", err)
	}

	for {
		messages, enabled, settings, err := d.source(ctx, payload.CollectionID)
		if err != nil {
			return err
		}

		result, err := d.engine.Sync(ctx, Request{
			CollectionID: payload.CollectionID,
			Enabled:      enabled,
			Messages:     messages,
			Settings:     settings,
		})
		if err != nil {
			return err
		}
		if d.onBatch != nil {
			d.onBatch(payload.CollectionID, result)
		}
		common.PipelineInfo(ctx, "sync", "batch_complete", map[string]interface{}{
			"collection":        payload.CollectionID.String(),
			"remaining":         result.Remaining,
			"chunksCreated":     result.ChunksCreated,
			"messagesProcessed": result.MessagesProcessed,
			"itemsFailed":       result.ItemsFailed,
		})

		if result.Remaining == 0 || result.Remaining == -1 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Mux builds the asynq.ServeMux a worker process runs, per the library's
// documented server pattern.
func (d *Driver) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeBatch, d.HandleTask)
	return mux
}
