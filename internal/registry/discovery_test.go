package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

type fakePlugin struct {
	chats, lorebooks, docs []string
}

func (p fakePlugin) KnownChatIDs(context.Context) ([]string, error)     { return p.chats, nil }
func (p fakePlugin) KnownLorebookIDs(context.Context) ([]string, error) { return p.lorebooks, nil }
func (p fakePlugin) KnownDocIDs(context.Context) ([]string, error)      { return p.docs, nil }

func TestPluginDiscovererEnumeratesAllThreeKinds(t *testing.T) {
	d := NewPluginDiscoverer("host", fakePlugin{
		chats:     []string{"c1"},
		lorebooks: []string{"l1", "l2"},
		docs:      []string{"d1"},
	})
	keys, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 4)
}

type fakeProbe struct {
	exists map[string]bool
}

func (p fakeProbe) CollectionExists(_ context.Context, collectionID string) (bool, error) {
	return p.exists[collectionID], nil
}

func TestHeuristicDiscovererProbesCandidatesAndLegacyForms(t *testing.T) {
	canonical := types.CollectionID{Type: types.CollectionTypeChat, SourceID: "abc"}.String()
	legacy := types.CollectionID{Type: types.CollectionTypeChat, SourceID: "legacy-id"}.String()

	probe := fakeProbe{exists: map[string]bool{
		canonical: true,
		legacy:    true,
	}}
	d := NewHeuristicDiscoverer("host", probe, []string{
		"vh:chat:abc",
		"vecthare_chat_legacy-id",
		"bare-id-that-does-not-exist",
	})
	keys, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestSweepReplacesRegistry(t *testing.T) {
	reg := New(newFakeStore())
	reg.Replace([]types.RegistryKey{key("old", "stale")})

	d := NewPluginDiscoverer("host", fakePlugin{chats: []string{"new"}})
	err := Sweep(context.Background(), reg, d)
	require.NoError(t, err)

	keys := reg.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "new", keys[0].CollectionID.SourceID)
}
