package types

import (
	"fmt"
	"strings"
)

// ContentHash identifies a chunk's normalized text. Equality of text implies
// equality of hash; collisions are treated as identity (semantic dedup is
// intentional, per spec §3).
type ContentHash uint32

// CollectionType is the closed-ish set of collection type tags recognized in
// the collection_id grammar. Unknown identifiers are accepted verbatim so
// new source kinds don't require a code change.
type CollectionType string

const (
	CollectionTypeChat      CollectionType = "chat"
	CollectionTypeLorebook  CollectionType = "lorebook"
	CollectionTypeDoc       CollectionType = "doc"
)

// CollectionID is the bit-exact grammar from spec §6:
//
//	collection_id := "vh:" type ":" source_id
//	type         := "chat" | "lorebook" | "doc" | identifier
//	source_id    := any non-empty string; may contain ":"
type CollectionID struct {
	Type     CollectionType
	SourceID string
}

// String renders the collection ID back to its canonical wire form.
func (c CollectionID) String() string {
	return fmt.Sprintf("vh:%s:%s", c.Type, c.SourceID)
}

// ParseCollectionID parses the "vh:{type}:{sourceId}" grammar. sourceId may
// itself contain colons, so parsing splits on the first two colons only.
func ParseCollectionID(raw string) (CollectionID, error) {
	const prefix = "vh:"
	if !strings.HasPrefix(raw, prefix) {
		return CollectionID{}, fmt.Errorf("collection id %q: missing %q prefix", raw, prefix)
	}
	rest := raw[len(prefix):]
	idx := strings.IndexByte(rest, ':')
	if idx < 0 {
		return CollectionID{}, fmt.Errorf("collection id %q: missing type separator", raw)
	}
	typ := rest[:idx]
	sourceID := rest[idx+1:]
	if typ == "" || sourceID == "" {
		return CollectionID{}, fmt.Errorf("collection id %q: empty type or source id", raw)
	}
	return CollectionID{Type: CollectionType(typ), SourceID: sourceID}, nil
}

// RegistryKey disambiguates a collection ID by embedding provider, used when
// the same collection ID may exist under more than one provider:
//
//	registry_key := provider ":" collection_id
type RegistryKey struct {
	Provider     string
	CollectionID CollectionID
}

func (k RegistryKey) String() string {
	return fmt.Sprintf("%s:%s", k.Provider, k.CollectionID)
}

// ParseRegistryKey splits a "{provider}:{collectionId}" registry key, where
// collectionId is itself the "vh:{type}:{sourceId}" grammar.
func ParseRegistryKey(raw string) (RegistryKey, error) {
	idx := strings.Index(raw, "vh:")
	if idx <= 0 {
		return RegistryKey{}, fmt.Errorf("registry key %q: missing provider prefix", raw)
	}
	provider := strings.TrimSuffix(raw[:idx], ":")
	cid, err := ParseCollectionID(raw[idx:])
	if err != nil {
		return RegistryKey{}, fmt.Errorf("registry key %q: %w", raw, err)
	}
	return RegistryKey{Provider: provider, CollectionID: cid}, nil
}

// LegacyCollectionID recognizes the pre-migration collection-id forms that
// must still be accepted read-only for discovery (spec §6):
//
//	vecthare_chat_{chatId}
//	carrotkernel_char_{name}
//	ragbooks_lorebook_{...}
func LegacyCollectionID(raw string) (CollectionID, bool) {
	switch {
	case strings.HasPrefix(raw, "vecthare_chat_"):
		return CollectionID{Type: CollectionTypeChat, SourceID: strings.TrimPrefix(raw, "vecthare_chat_")}, true
	case strings.HasPrefix(raw, "carrotkernel_char_"):
		return CollectionID{Type: "char", SourceID: strings.TrimPrefix(raw, "carrotkernel_char_")}, true
	case strings.HasPrefix(raw, "ragbooks_lorebook_"):
		return CollectionID{Type: CollectionTypeLorebook, SourceID: strings.TrimPrefix(raw, "ragbooks_lorebook_")}, true
	default:
		return CollectionID{}, false
	}
}

// ChunkMetaKey returns the metadata-store key for a chunk's ChunkMeta
// record, per spec §4.6: "vecthare_chunk_meta_{hash}".
func ChunkMetaKey(hash ContentHash) string {
	return fmt.Sprintf("vecthare_chunk_meta_%d", hash)
}
