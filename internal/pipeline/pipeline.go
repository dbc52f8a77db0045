// Package pipeline implements the retrieval pipeline (spec §4.8,
// component H) — the 12-step core that turns a generation event into an
// injected RAG prompt addition. Each step logs through
// internal/common's PipelineInfo/Warn/Error, the same stage-logging idiom
// the teacher's chat_pipline plugins use, though here as a single fixed
// sequence rather than an event-dispatched plugin chain: spec §4.8 has no
// branching between event types, just twelve steps that always run in
// order, so the teacher's EventManager indirection would add a layer of
// dispatch this pipeline never needs.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vecthare/vecthare/internal/common"
	"github.com/vecthare/vecthare/internal/groups"
	"github.com/vecthare/vecthare/internal/hashing"
	"github.com/vecthare/vecthare/internal/registry"
	oteltracing "github.com/vecthare/vecthare/internal/trace"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// Host is the narrow set of operations the pipeline needs from whatever
// embeds it (a chat frontend, an agent runtime, ...): a single named
// prompt slot it can clear, write, and read back.
type Host interface {
	ClearSlot(ctx context.Context, tag string) error
	WriteSlot(ctx context.Context, tag, text, position string, depth int) error
	ReadSlot(ctx context.Context, tag string) (string, error)
}

// Reranker is the capability internal/models/rerank provides; kept as a
// local interface so this package doesn't import models/rerank when
// reranking is disabled.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]RerankResult, error)
}

// RerankResult is one (index, score) pair the rerank endpoint returns,
// positionally matched back to the texts slice passed in.
type RerankResult struct {
	Index int
	Score float64
}

// BackendResolver returns the vectorbackend.Client for a given backend
// kind, as configured by settings.vector_backend.
type BackendResolver func(types.VectorBackendKind) (vectorbackend.Client, error)

// Deps bundles every collaborator the pipeline needs. Reranker and
// LinkStore are optional (nil disables rerank / link-graph force-include
// respectively).
type Deps struct {
	Registry        *registry.Registry
	Backend         BackendResolver
	Reranker        Reranker
	Hasher          *hashing.Hasher
	ActivationStore *registry.ActivationStore
	LinkStore       groups.LinkStore
	Host            Host
	Tag             string // the host prompt-slot tag this pipeline instance owns
}

// Request is everything the pipeline needs about the current turn: the
// live chat context, which collection (if any) is the "current chat"
// collection, and the settings record governing this run.
type Request struct {
	GenerationType         types.GenerationType
	ChatMessages            []types.Message // full live context, oldest first, including system messages
	CurrentChatCollectionID string          // "" if chat vectorization is disabled
	Settings                types.Settings
	Scenes                  *types.SceneIndex
	SearchContext           types.SearchContext // caller fills in every field, RecentMessages/MessageCount/Timestamp included; Run uses it as given and sets none of its fields
}

// Pipeline runs the fixed 12-step retrieval sequence over one Deps set.
type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run executes spec §4.8 end to end, returning the debug record
// regardless of whether an injection happened (an early exit still
// produces a minimal DebugData so /debug/last-trace has something to
// show).
func (p *Pipeline) Run(ctx context.Context, req Request) (*types.DebugData, error) {
	ctx, span := oteltracing.StartSpan(ctx, "pipeline.run")
	defer span.End()

	trace := newTraceCollector(req.Settings)

	// Step 1: clear prior slot.
	if err := p.deps.Host.ClearSlot(ctx, p.deps.Tag); err != nil {
		common.PipelineWarn(ctx, "pipeline", "clear_slot_failed", map[string]interface{}{"error": err.Error()})
	}

	if req.GenerationType == types.GenerationQuiet {
		trace.info("early_exit", "quiet generation type")
		return trace.finish(), nil
	}
	if len(req.ChatMessages) < req.Settings.Protect {
		trace.info("early_exit", "chat shorter than settings.protect")
		return trace.finish(), nil
	}

	// Step 2: assemble candidate collections.
	collections, err := p.assembleCollections(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pipeline: assemble collections: %w", err)
	}
	if len(collections) == 0 {
		trace.info("early_exit", "no active collections")
		return trace.finish(), nil
	}
	trace.data.CollectionsQueried = collections

	// Step 3: build query text.
	queryText := buildQueryText(req.ChatMessages, req.Settings.Query)
	if queryText == "" {
		trace.info("early_exit", "empty query text after filtering system messages")
		return trace.finish(), nil
	}
	trace.data.Query = queryText

	// Step 4: per-collection query, overfetch -> boost -> trim.
	scored := p.queryCollections(ctx, collections, queryText, req.Settings, trace)

	// Step 5: merge & cap.
	scored = mergeAndCap(scored, req.Settings.Insert)
	trace.data.Stages.Initial = types.CloneAll(scored)

	// Step 6: optional rerank.
	if req.Settings.BananabreadRerank && p.deps.Reranker != nil {
		scored = p.rerank(ctx, queryText, scored, trace)
	}
	trace.data.Stages.AfterRerank = types.CloneAll(scored)

	// Step 7: threshold.
	scored = applyThreshold(scored, req.Settings.ScoreThreshold, trace)
	trace.data.Stages.AfterThreshold = types.CloneAll(scored)

	// Step 8: temporal decay + re-threshold.
	scored = p.applyDecay(ctx, req, scored, trace)
	trace.data.Stages.AfterDecay = types.CloneAll(scored)

	// Step 9: per-chunk conditional filter + activation tracking.
	scored = p.applyConditions(ctx, req, scored, trace)
	trace.data.Stages.AfterConditions = types.CloneAll(scored)

	// Step 10: live-context dedup.
	toInject := p.dedupLiveContext(req.ChatMessages, scored, trace)

	// Step 11: formatting & injection.
	injection := p.inject(ctx, req.Settings, toInject, trace)
	trace.data.Injection = injection
	trace.data.Stages.Injected = types.CloneAll(toInject)

	// Step 12: trace finalize.
	trace.complete(len(scored), len(toInject))
	return trace.finish(), nil
}

// buildQueryText implements spec §4.8 step 3: the last n non-system
// messages, newest first, joined by newline and trimmed.
func buildQueryText(messages []types.Message, n int) string {
	nonSystem := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		if m.Speaker == "system" {
			continue
		}
		nonSystem = append(nonSystem, m)
	}
	if n <= 0 || n > len(nonSystem) {
		n = len(nonSystem)
	}
	window := nonSystem[len(nonSystem)-n:]

	lines := make([]string, len(window))
	for i, m := range window {
		lines[len(window)-1-i] = m.Text // reverse into newest-first order
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// mergeAndCap implements spec §4.8 step 5: concatenate, stable-sort by
// score descending, truncate to insert.
func mergeAndCap(chunks []types.ScoredChunk, insert int) []types.ScoredChunk {
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if insert > 0 && len(chunks) > insert {
		chunks = chunks[:insert]
	}
	return chunks
}

// applyThreshold implements spec §4.8 step 7.
func applyThreshold(chunks []types.ScoredChunk, threshold float64, trace *traceCollector) []types.ScoredChunk {
	out := chunks[:0:0]
	for _, sc := range chunks {
		if sc.Score < threshold {
			trace.fate(sc.Hash, "threshold", types.VerdictDropped, "below score_threshold", map[string]interface{}{
				"score": sc.Score, "threshold": threshold,
			})
			continue
		}
		out = append(out, sc)
	}
	return out
}
