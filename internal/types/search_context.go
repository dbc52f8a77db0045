package types

import "time"

// GenerationType is the host-supplied reason a generation was fired.
type GenerationType string

const (
	GenerationNormal      GenerationType = "normal"
	GenerationSwipe       GenerationType = "swipe"
	GenerationRegenerate  GenerationType = "regenerate"
	GenerationContinue    GenerationType = "continue"
	GenerationImpersonate GenerationType = "impersonate"
	GenerationQuiet       GenerationType = "quiet"
)

// LorebookEntryRef is a minimal reference to an active lorebook entry, used
// by the lorebookActive condition rule.
type LorebookEntryRef struct {
	Key string
	UID string
}

// SearchContext is built once per retrieval (spec §3) and threaded through
// activation gating, per-chunk condition evaluation, and decay.
type SearchContext struct {
	RecentMessages        []string
	LastSpeaker            string
	MessageCount           int
	MessageSpeakers         []string
	ActiveChunks            []ContentHash
	Timestamp               time.Time
	GenerationType          GenerationType
	SwipeCount              int
	ActiveLorebookEntries   []LorebookEntryRef
	IsGroupChat             bool
	CurrentCharacter        string
	CurrentMessageID        int
	CharacterExpressions    map[string]string // character name -> cached expression label
}

// Scene is a contiguous range of message IDs declared by the host.
type Scene struct {
	Start int
	End   int // may be math.MaxInt for an open-ended current scene
}

// SceneIndex resolves a message ID to the scene containing it. The caller
// builds it from the scene ranges the host declares and hands it to the
// pipeline as Request.Scenes; nothing in this module derives it from chunk
// metadata (isScene/sceneStart/sceneEnd).
type SceneIndex struct {
	scenes []Scene
}

// NewSceneIndex builds an index from a set of scene ranges, kept in the
// order given (not sorted); where ranges overlap, SceneFor returns the
// first listed range that contains the message ID.
func NewSceneIndex(scenes []Scene) *SceneIndex {
	cp := make([]Scene, len(scenes))
	copy(cp, scenes)
	return &SceneIndex{scenes: cp}
}

// SceneFor returns the scene containing messageID, if any.
func (s *SceneIndex) SceneFor(messageID int) (Scene, bool) {
	if s == nil {
		return Scene{}, false
	}
	for _, sc := range s.scenes {
		if messageID >= sc.Start && messageID <= sc.End {
			return sc, true
		}
	}
	return Scene{}, false
}
