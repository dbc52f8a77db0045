package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/hashing"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// S1: basic recall — threshold drops the weakest hit, the rest inject in
// score order under the configured template.
func TestScenarioBasicRecall(t *testing.T) {
	store := newFakeMetaStore()
	cid := types.CollectionID{Type: types.CollectionTypeChat, SourceID: "u1"}
	key := types.RegistryKey{CollectionID: cid}
	store.collections[key] = types.CollectionMeta{Enabled: true, AlwaysActive: true}

	backend := &fakeBackend{hits: map[string][]vectorbackend.Hit{
		cid.String(): {
			{Hash: 1, Text: "Aria found the blue key in the garden", Score: 0.82, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 3}},
			{Hash: 2, Text: "They ate dinner silently", Score: 0.18, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 5}},
			{Hash: 3, Text: "The tower was locked", Score: 0.41, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 7}},
		},
	}}
	host := &fakeHost{}
	p := newTestPipeline(store, backend, host)

	settings := types.DefaultSettings()
	settings.Insert = 5
	settings.ScoreThreshold = 0.25
	settings.Protect = 4
	settings.Template = "Relevant: {{text}}"

	live := make([]types.Message, 8)
	for i := range live {
		live[i] = msg("user", "live message filler")
	}

	data, err := p.Run(context.Background(), Request{
		GenerationType:          types.GenerationNormal,
		ChatMessages:            live,
		CurrentChatCollectionID: cid.String(),
		Settings:                settings,
	})
	require.NoError(t, err)

	assert.Equal(t, "Relevant: Aria found the blue key in the garden\n\nThe tower was locked", host.slot)
	assert.Equal(t, types.VerdictInjected, data.ChunkFates[1][len(data.ChunkFates[1])-1].Verdict)
	assert.Equal(t, types.VerdictInjected, data.ChunkFates[3][len(data.ChunkFates[3])-1].Verdict)
	assert.Equal(t, types.VerdictDropped, data.ChunkFates[2][0].Verdict)
}

// S2: a keyword boost reorders two otherwise-close hits.
func TestScenarioKeywordBoostSurfacing(t *testing.T) {
	store := newFakeMetaStore()
	cid := types.CollectionID{Type: types.CollectionTypeLorebook, SourceID: "book1"}
	key := types.RegistryKey{CollectionID: cid}
	store.collections[key] = types.CollectionMeta{Enabled: true, AlwaysActive: true}

	backend := &fakeBackend{hits: map[string][]vectorbackend.Hit{
		cid.String(): {
			{Hash: 10, Text: "X: an ordinary object", Score: 0.55, Metadata: types.ChunkMetadata{Source: types.ChunkSourceLorebook}},
			{Hash: 20, Text: "Y: something unusual", Score: 0.50, Metadata: types.ChunkMetadata{
				Source:   types.ChunkSourceLorebook,
				Keywords: []types.Keyword{{Text: "magic", Weight: 2.0}},
			}},
		},
	}}

	host := &fakeHost{}
	p := newTestPipeline(store, backend, host)

	settings := types.DefaultSettings()
	settings.Insert = 2
	settings.ScoreThreshold = 0

	data, err := p.Run(context.Background(), Request{
		GenerationType: types.GenerationNormal,
		ChatMessages: []types.Message{
			msg("user", "tell me about"),
			msg("user", "a magic trick"),
			msg("user", "please"),
			msg("user", "now"),
		},
		Settings: settings,
	})
	require.NoError(t, err)

	require.Len(t, data.Stages.Initial, 2)
	assert.Equal(t, types.ContentHash(20), data.Stages.Initial[0].Hash, "Y's keyword boost puts it ahead of X")
	assert.InDelta(t, 1.0, data.Stages.Initial[0].Score, 1e-9)
}

// S3: a candidate that duplicates live context is skipped, not injected.
func TestScenarioDedupAgainstLiveContext(t *testing.T) {
	store := newFakeMetaStore()
	cid := types.CollectionID{Type: types.CollectionTypeLorebook, SourceID: "book1"}
	key := types.RegistryKey{CollectionID: cid}
	store.collections[key] = types.CollectionMeta{Enabled: true, AlwaysActive: true}

	hasher := hashing.NewHasher(hashing.Default, 100)
	liveText := "a line that was already said"
	hHash := hasher.Hash(liveText)

	backend := &fakeBackend{hits: map[string][]vectorbackend.Hit{
		cid.String(): {
			{Hash: hHash, Text: liveText, Score: 0.9, Metadata: types.ChunkMetadata{Source: types.ChunkSourceLorebook}},
			{Hash: 99, Text: "a line never said before", Score: 0.7, Metadata: types.ChunkMetadata{Source: types.ChunkSourceLorebook}},
		},
	}}
	host := &fakeHost{}
	p := newTestPipeline(store, backend, host)
	p.deps.Hasher = hasher

	settings := types.DefaultSettings()
	settings.ScoreThreshold = 0.1

	data, err := p.Run(context.Background(), Request{
		GenerationType: types.GenerationNormal,
		ChatMessages: []types.Message{
			msg("user", liveText),
			msg("user", "go on"),
		},
		Settings: settings,
	})
	require.NoError(t, err)

	assert.Equal(t, "a line never said before", host.slot)
	assert.Equal(t, types.VerdictSkipped, data.ChunkFates[hHash][len(data.ChunkFates[hHash])-1].Verdict)
}

// Pipeline completeness: every hash step 4 returns ends up in exactly one
// terminal bucket — injected, skipped (in context), or dropped.
func TestPipelineCompletenessInvariant(t *testing.T) {
	store := newFakeMetaStore()
	cid := types.CollectionID{Type: types.CollectionTypeChat, SourceID: "u2"}
	key := types.RegistryKey{CollectionID: cid}
	store.collections[key] = types.CollectionMeta{Enabled: true, AlwaysActive: true}

	hasher := hashing.NewHasher(hashing.Default, 100)
	dupeText := "the exact line repeated in chat"
	dupeHash := hasher.Hash(dupeText)

	backend := &fakeBackend{hits: map[string][]vectorbackend.Hit{
		cid.String(): {
			{Hash: 1, Text: "Aria found the key", Score: 0.82, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat}},
			{Hash: 2, Text: "a weak, unrelated hit", Score: 0.10, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat}},
			{Hash: dupeHash, Text: dupeText, Score: 0.50, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat}},
		},
	}}
	host := &fakeHost{}
	p := newTestPipeline(store, backend, host)
	p.deps.Hasher = hasher

	settings := types.DefaultSettings()
	settings.ScoreThreshold = 0.25

	data, err := p.Run(context.Background(), Request{
		GenerationType:          types.GenerationNormal,
		ChatMessages:            []types.Message{msg("user", dupeText), msg("user", "what happened next")},
		CurrentChatCollectionID: cid.String(),
		Settings:                settings,
	})
	require.NoError(t, err)

	candidates := []types.ContentHash{1, 2, dupeHash}
	for _, h := range candidates {
		fates, ok := data.ChunkFates[h]
		require.True(t, ok, "hash %d missing a terminal fate", h)
		require.Len(t, fates, 1, "hash %d recorded in more than one terminal bucket", h)
	}
	assert.Equal(t, types.VerdictInjected, data.ChunkFates[1][0].Verdict)
	assert.Equal(t, types.VerdictDropped, data.ChunkFates[2][0].Verdict)
	assert.Equal(t, types.VerdictSkipped, data.ChunkFates[dupeHash][0].Verdict)
}
