// Package hashing computes the stable ContentHash identity used across
// sync and retrieval, and splits raw chat/lorebook/document text into
// chunks.
package hashing

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/vecthare/vecthare/internal/types"
)

// DefaultCacheSize bounds the hash LRU: re-hashing the same chunk text on
// every sync pass (most messages are unchanged between runs) would
// otherwise cost an xxhash pass per call.
const DefaultCacheSize = 10000

// Func computes a ContentHash for a chunk's text. The production Func is
// xxhash-backed (Default below); tests may substitute a deterministic
// stub to assert on exact hash values without depending on the real
// digest.
type Func func(text string) types.ContentHash

// Default hashes text with xxhash64 and folds it into 32 bits. xxhash is
// non-cryptographic but collision-resistant enough for content
// addressing, and is already pulled in transitively by the module's
// storage stack — promoting it to a direct dependency here keeps one
// hash family in use rather than adding a second.
func Default(text string) types.ContentHash {
	sum := xxhash.Sum64String(text)
	return types.ContentHash(uint32(sum) ^ uint32(sum>>32))
}

// Hasher wraps a Func with an LRU cache, since the same chunk text is
// re-hashed on every sync pass for any message that hasn't changed.
type Hasher struct {
	fn       Func
	capacity int

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
}

type entry struct {
	key string
	val types.ContentHash
}

// NewHasher builds a Hasher over fn, caching up to capacity distinct
// texts. capacity <= 0 uses DefaultCacheSize.
func NewHasher(fn Func, capacity int) *Hasher {
	if fn == nil {
		fn = Default
	}
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Hasher{
		fn:       fn,
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Hash returns the ContentHash for text, serving from cache when possible.
func (h *Hasher) Hash(text string) types.ContentHash {
	h.mu.Lock()
	if el, ok := h.items[text]; ok {
		h.ll.MoveToFront(el)
		v := el.Value.(*entry).val
		h.mu.Unlock()
		return v
	}
	h.mu.Unlock()

	v := h.fn(text)

	h.mu.Lock()
	defer h.mu.Unlock()
	if el, ok := h.items[text]; ok {
		h.ll.MoveToFront(el)
		return el.Value.(*entry).val
	}
	el := h.ll.PushFront(&entry{key: text, val: v})
	h.items[text] = el
	if h.ll.Len() > h.capacity {
		oldest := h.ll.Back()
		if oldest != nil {
			h.ll.Remove(oldest)
			delete(h.items, oldest.Value.(*entry).key)
		}
	}
	return v
}

// Len reports the number of cached entries, for tests and metrics.
func (h *Hasher) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ll.Len()
}
