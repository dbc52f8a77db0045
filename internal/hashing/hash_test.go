package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

func TestDefaultIsDeterministic(t *testing.T) {
	a := Default("the quick brown fox")
	b := Default("the quick brown fox")
	assert.Equal(t, a, b, "hash of identical text must be stable across calls")

	c := Default("the quick brown fox.")
	assert.NotEqual(t, a, c, "different text should (almost certainly) hash differently")
}

func TestHasherCachesRepeatedText(t *testing.T) {
	calls := 0
	fn := func(text string) types.ContentHash {
		calls++
		return Default(text)
	}
	h := NewHasher(fn, 4)

	h.Hash("a")
	h.Hash("a")
	h.Hash("a")
	assert.Equal(t, 1, calls, "repeated hashing of the same text should hit the cache")
}

func TestHasherEvictsLRU(t *testing.T) {
	h := NewHasher(Default, 2)
	h.Hash("one")
	h.Hash("two")
	h.Hash("three") // evicts "one"
	require.Equal(t, 2, h.Len())

	h.Hash("two")
	assert.Equal(t, 2, h.Len())
}

func TestNewHasherDefaultsZeroCapacity(t *testing.T) {
	h := NewHasher(nil, 0)
	h.Hash("x")
	assert.Equal(t, 1, h.Len())
}
