package pipeline

import (
	"context"

	"github.com/vecthare/vecthare/internal/activation"
	"github.com/vecthare/vecthare/internal/condition"
	"github.com/vecthare/vecthare/internal/types"
)

// assembleCollections implements spec §4.8 step 2: the current chat
// collection (if configured) union every other registry collection whose
// metadata is enabled, each filtered through the activation gate (§4.5).
func (p *Pipeline) assembleCollections(ctx context.Context, req Request) ([]string, error) {
	window := recentMessageWindow(req.ChatMessages, 20)
	condCtx := condition.Context{Search: req.SearchContext}

	var out []string
	seen := make(map[string]bool)

	add := func(key types.RegistryKey, meta types.CollectionMeta) {
		id := key.CollectionID.String()
		if seen[id] {
			return
		}
		if !meta.Enabled {
			return
		}
		if activation.Decide(meta, window, condCtx) {
			out = append(out, id)
			seen[id] = true
		}
	}

	if req.CurrentChatCollectionID != "" {
		cid, err := types.ParseCollectionID(req.CurrentChatCollectionID)
		if err == nil {
			key := types.RegistryKey{CollectionID: cid}
			meta, ok, err := p.deps.Registry.Meta(ctx, key)
			if err == nil && ok {
				add(key, meta)
			} else if err == nil && !ok {
				// Unregistered current chat: still a candidate, defaulted enabled.
				add(key, types.NewCollectionMeta(types.ChunkSourceChat))
			}
		}
	}

	for _, key := range p.deps.Registry.Keys() {
		meta, ok, err := p.deps.Registry.Meta(ctx, key)
		if err != nil || !ok {
			continue
		}
		add(key, meta)
	}

	return out, nil
}

// recentMessageWindow returns up to n of the most recent messages' text,
// oldest first within the window, for trigger/keyword scanning.
func recentMessageWindow(messages []types.Message, n int) []string {
	if n > len(messages) {
		n = len(messages)
	}
	window := messages[len(messages)-n:]
	out := make([]string, len(window))
	for i, m := range window {
		out[i] = m.Text
	}
	return out
}
