package domain

import "sort"

// Conversation is the time-ordered message history of one channel. It is
// keyed externally by the channel id; Messages stays sorted ascending by
// timestamp after every insertion.
type Conversation struct {
	Messages []*Message `json:"messages"`
}

// AddMessage inserts a message and keeps ascending timestamp order. The
// sort is stable, so messages with equal timestamps keep insertion order.
func (c *Conversation) AddMessage(m *Message) {
	c.Messages = append(c.Messages, m)
	sort.SliceStable(c.Messages, func(i, j int) bool {
		return c.Messages[i].Timestamp < c.Messages[j].Timestamp
	})
}

// ClearContext drops every message marked as context. Calling it on an
// already clean conversation is a no-op.
func (c *Conversation) ClearContext() {
	kept := c.Messages[:0]
	for _, m := range c.Messages {
		if !m.Context {
			kept = append(kept, m)
		}
	}
	c.Messages = kept
}
