package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation. Reference, when set, owns a full
// copy of the reply ancestor as resolved at construction or load time; it
// is not a shared handle into another conversation slot. Context marks a
// message as transient scaffolding that is never persisted.
type Message struct {
	UUID        string           `json:"uuid"`
	Content     string           `json:"content"`
	Author      Person           `json:"author"`
	Timestamp   int64            `json:"timestamp"` // unix milliseconds
	Context     bool             `json:"context,omitempty"`
	Reference   *Message         `json:"reference,omitempty"`
	Attachments []Attachment     `json:"-"`
	Moderation  ModerationResult `json:"moderation"`
}

// NewMessage creates a message authored now.
func NewMessage(content string, author Person) *Message {
	return &Message{
		UUID:      uuid.New().String(),
		Content:   content,
		Author:    author,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewSystemMessage creates a message authored by the system persona.
// System messages are skipped by the moderation driver.
func NewSystemMessage(content, authorName string) *Message {
	return NewMessage(content, NewPerson(authorName, ""))
}
