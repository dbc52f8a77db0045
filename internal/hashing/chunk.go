package hashing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yanyiwu/gojieba"

	"github.com/vecthare/vecthare/internal/types"
)

// delimiters is the recursive splitter's priority list. The trailing ""
// is the character-level fallback that guarantees termination even for
// text with no whitespace at all (a wall of CJK characters, a minified
// blob, ...).
var delimiters = []string{"\n\n", "\n", " ", ""}

// MessageSplitThreshold is the combined-length cutoff past which a chat
// message (or grouped set of messages) is split into sub-chunks rather
// than embedded whole.
const MessageSplitThreshold = 2000

// DefaultBatchSize is the group size used by the message_batch strategy
// when Settings.BatchSize is zero.
const DefaultBatchSize = 4

var jiebaOnce struct {
	seg *gojieba.Jieba
}

// segmenter lazily constructs the shared jieba instance. gojieba loads a
// multi-megabyte dictionary on first use, so it's built once and reused
// rather than per-call.
func segmenter() *gojieba.Jieba {
	if jiebaOnce.seg == nil {
		jiebaOnce.seg = gojieba.NewJieba()
	}
	return jiebaOnce.seg
}

// Split recursively breaks text into pieces no longer than chunkSize,
// trying each delimiter in turn and only descending to a finer one when
// a piece is still too large. chunkSize <= 0 returns text unchunked.
func Split(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}
	return splitText(text, chunkSize, delimiters)
}

func splitText(text string, chunkSize int, delims []string) []string {
	if len(text) <= chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(delims) == 0 {
		return []string{text}
	}

	delim := delims[0]
	rest := delims[1:]

	var pieces []string
	switch {
	case delim == "":
		pieces = charBoundaryPieces(text)
	default:
		pieces = strings.Split(text, delim)
	}

	var chunks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for i, p := range pieces {
		piece := p
		if delim != "" && i < len(pieces)-1 {
			piece += delim
		}
		if len(piece) > chunkSize {
			flush()
			chunks = append(chunks, splitText(piece, chunkSize, rest)...)
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(piece) > chunkSize {
			flush()
		}
		cur.WriteString(piece)
	}
	flush()
	return chunks
}

// charBoundaryPieces is the character-level fallback. For CJK-heavy text
// (the case that motivates it — a block of Chinese/Japanese/Korean prose
// has no space delimiters for the " " level to act on) it cuts on jieba
// word boundaries instead of raw runes, so a chunk boundary doesn't land
// mid-word. Non-CJK text with no spaces (a long token, a URL) falls back
// to one-piece-per-rune, which the caller's greedy merge reassembles up
// to chunkSize.
func charBoundaryPieces(text string) []string {
	if isCJKHeavy(text) {
		words := segmenter().Cut(text, true)
		if len(words) > 0 {
			return words
		}
	}
	runes := []rune(text)
	pieces := make([]string, len(runes))
	for i, r := range runes {
		pieces[i] = string(r)
	}
	return pieces
}

// isCJKHeavy reports whether a majority of the runes sampled from text
// fall in the CJK unified ideograph / hiragana / katakana / hangul
// ranges.
func isCJKHeavy(text string) bool {
	runes := []rune(text)
	if len(runes) == 0 {
		return false
	}
	n := len(runes)
	if n > 200 {
		n = 200
	}
	cjk := 0
	for _, r := range runes[:n] {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		}
	}
	return cjk*2 > n
}

// splitOversized turns one logical unit (a message, a merged group) into
// one or more chunks, applying Split only when the combined text exceeds
// MessageSplitThreshold. Every produced chunk carries originalHash so the
// source can be located regardless of whether it was split.
func splitOversized(text string, originalHash types.ContentHash, hasher *Hasher) []types.Chunk {
	if len(text) <= MessageSplitThreshold {
		return []types.Chunk{{
			Hash: originalHash,
			Text: text,
			Metadata: types.ChunkMetadata{
				TotalChunks:         1,
				OriginalMessageHash: originalHash,
			},
		}}
	}
	pieces := Split(text, MessageSplitThreshold)
	chunks := make([]types.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, types.Chunk{
			Hash: hasher.Hash(p),
			Text: p,
			Metadata: types.ChunkMetadata{
				ChunkIndex:          i,
				TotalChunks:         len(pieces),
				OriginalMessageHash: originalHash,
			},
		})
	}
	return chunks
}

// GroupPerMessage implements the per_message strategy (spec §4.1): one
// chunk per message, hash taken from the message's own text.
func GroupPerMessage(messages []types.Message, hasher *Hasher) []types.Chunk {
	var out []types.Chunk
	for _, m := range messages {
		hash := hasher.Hash(m.Text)
		for _, c := range splitOversized(m.Text, hash, hasher) {
			c.Metadata.Source = types.ChunkSourceChat
			c.Metadata.MessageID = m.ID
			c.Metadata.Speaker = m.Speaker
			c.Metadata.IsUser = m.IsUser
			out = append(out, c)
		}
	}
	return out
}

// GroupConversationTurns implements the conversation_turns strategy:
// consecutive message pairs (nominally user+character) are combined into
// one role-labelled block and hashed as a unit. A trailing unpaired
// message forms its own one-member group.
func GroupConversationTurns(messages []types.Message, hasher *Hasher) []types.Chunk {
	var out []types.Chunk
	for i := 0; i < len(messages); i += 2 {
		group := messages[i:min(i+2, len(messages))]
		out = append(out, groupedChunk(group, hasher)...)
	}
	return out
}

// GroupMessageBatch implements the message_batch strategy: fixed-size
// consecutive groups of batchSize messages (default DefaultBatchSize).
func GroupMessageBatch(messages []types.Message, hasher *Hasher, batchSize int) []types.Chunk {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var out []types.Chunk
	for i := 0; i < len(messages); i += batchSize {
		group := messages[i:min(i+batchSize, len(messages))]
		out = append(out, groupedChunk(group, hasher)...)
	}
	return out
}

// groupedChunk combines a run of messages into role-labelled text and
// hashes the combination, recording the member message hashes for later
// injection lookup (spec §4.1: "metadata stores messageHashes[]").
func groupedChunk(group []types.Message, hasher *Hasher) []types.Chunk {
	var b strings.Builder
	hashes := make([]types.ContentHash, len(group))
	for i, m := range group {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", roleLabel(m), m.Text)
		hashes[i] = m.Hash
		if hashes[i] == 0 {
			hashes[i] = hasher.Hash(m.Text)
		}
	}
	combined := b.String()
	hash := hasher.Hash(combined)

	chunks := splitOversized(combined, hash, hasher)
	for i := range chunks {
		chunks[i].Metadata.Source = types.ChunkSourceChat
		chunks[i].Metadata.MessageHashes = hashes
		if len(group) > 0 {
			chunks[i].Metadata.MessageID = group[0].ID
			chunks[i].Metadata.Speaker = group[0].Speaker
		}
	}
	return chunks
}

func roleLabel(m types.Message) string {
	if m.IsUser {
		return "User"
	}
	if m.Speaker != "" {
		return m.Speaker
	}
	return "Character"
}
