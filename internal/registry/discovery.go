package registry

import (
	"context"

	"github.com/vecthare/vecthare/internal/logger"
	"github.com/vecthare/vecthare/internal/types"
)

// DiscoveryPlugin is the capability a host can supply to enumerate the
// collections it actually knows about (chat IDs, lorebook IDs, document
// IDs), sidestepping the heuristic probe entirely. Absence of a plugin
// is normal, not an error — spec §4.6's fallback path exists for exactly
// that case.
type DiscoveryPlugin interface {
	KnownChatIDs(ctx context.Context) ([]string, error)
	KnownLorebookIDs(ctx context.Context) ([]string, error)
	KnownDocIDs(ctx context.Context) ([]string, error)
}

// Discoverer produces the ground-truth registry key set for a sweep.
type Discoverer interface {
	Discover(ctx context.Context) ([]types.RegistryKey, error)
}

// pluginDiscoverer is the capability-based strategy: when a
// DiscoveryPlugin is available, its answer is authoritative.
type pluginDiscoverer struct {
	provider string
	plugin   DiscoveryPlugin
}

// NewPluginDiscoverer wraps a DiscoveryPlugin as a Discoverer.
func NewPluginDiscoverer(provider string, plugin DiscoveryPlugin) Discoverer {
	return &pluginDiscoverer{provider: provider, plugin: plugin}
}

func (d *pluginDiscoverer) Discover(ctx context.Context) ([]types.RegistryKey, error) {
	var keys []types.RegistryKey

	chats, err := d.plugin.KnownChatIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range chats {
		keys = append(keys, types.RegistryKey{Provider: d.provider, CollectionID: types.CollectionID{Type: types.CollectionTypeChat, SourceID: id}})
	}

	lorebooks, err := d.plugin.KnownLorebookIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range lorebooks {
		keys = append(keys, types.RegistryKey{Provider: d.provider, CollectionID: types.CollectionID{Type: types.CollectionTypeLorebook, SourceID: id}})
	}

	docs, err := d.plugin.KnownDocIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range docs {
		keys = append(keys, types.RegistryKey{Provider: d.provider, CollectionID: types.CollectionID{Type: types.CollectionTypeDoc, SourceID: id}})
	}

	return keys, nil
}

// HeuristicProbe is the narrow capability the fallback strategy needs
// from a vector backend: "does this collection id exist at all".
type HeuristicProbe interface {
	CollectionExists(ctx context.Context, collectionID string) (bool, error)
}

// heuristicDiscoverer is the fallback strategy (spec §4.6): when no
// plugin is available, it probes a handful of heuristically derived IDs
// per collection type, including the legacy id forms so collections
// created before the registry-key migration are still found.
type heuristicDiscoverer struct {
	provider  string
	probe     HeuristicProbe
	candidates []string // raw IDs (sourceId or legacy form) to probe
}

// NewHeuristicDiscoverer builds the fallback strategy over a set of
// candidate source IDs (typically the host's own chat/lorebook/doc ID
// list, independent of whether a DiscoveryPlugin exists for it).
func NewHeuristicDiscoverer(provider string, probe HeuristicProbe, candidates []string) Discoverer {
	return &heuristicDiscoverer{provider: provider, probe: probe, candidates: candidates}
}

func (d *heuristicDiscoverer) Discover(ctx context.Context) ([]types.RegistryKey, error) {
	var keys []types.RegistryKey
	for _, candidate := range d.candidates {
		cid, ok := resolveCandidate(candidate)
		if !ok {
			continue
		}
		exists, err := d.probe.CollectionExists(ctx, cid.String())
		if err != nil {
			logger.Warnf(ctx, "registry: heuristic probe failed for %s: %v", cid, err)
			continue
		}
		if exists {
			keys = append(keys, types.RegistryKey{Provider: d.provider, CollectionID: cid})
		}
	}
	return keys, nil
}

// resolveCandidate accepts either an already-canonical "vh:..." id, a
// legacy id form, or a bare source id (assumed chat, the most common
// case for a heuristic probe seeded from the host's chat list).
func resolveCandidate(raw string) (types.CollectionID, bool) {
	if cid, err := types.ParseCollectionID(raw); err == nil {
		return cid, true
	}
	if cid, ok := types.LegacyCollectionID(raw); ok {
		return cid, true
	}
	if raw == "" {
		return types.CollectionID{}, false
	}
	return types.CollectionID{Type: types.CollectionTypeChat, SourceID: raw}, true
}

// Sweep runs discoverer and replaces reg's key set with the result,
// implementing spec §4.6's "replaces the registry with the ground truth
// set (stale entries removed, new entries added)".
func Sweep(ctx context.Context, reg *Registry, discoverer Discoverer) error {
	keys, err := discoverer.Discover(ctx)
	if err != nil {
		return err
	}
	reg.Replace(keys)
	logger.Infof(ctx, "registry: discovery sweep found %d collections", len(keys))
	return nil
}
