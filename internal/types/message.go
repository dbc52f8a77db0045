package types

import "time"

// Message is one turn of a chat history, as handed to the sync engine and
// to query-text assembly (spec §4.8 step 1, §4.9).
type Message struct {
	ID        int       `json:"id"`
	Hash      ContentHash `json:"hash"`
	Text      string    `json:"text"`
	Speaker   string    `json:"speaker"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	SwipeCount int      `json:"swipeCount,omitempty"`
}
