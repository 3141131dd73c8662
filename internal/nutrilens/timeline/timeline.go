// Package timeline holds the append-only message log of a logging session.
package timeline

import "fmt"

// Timeline is an ordered log of messages. Entries are never reordered or
// removed; the only mutation after Append is MarkRevealed.
//
// Timeline is not safe for concurrent use. The session controller owns it and
// serializes access.
type Timeline struct {
	messages []Message
	index    map[string]int
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{index: make(map[string]int)}
}

// Append adds messages at the end of the log. The batch is checked first and
// either every message is appended or none is.
func (t *Timeline) Append(ms ...Message) error {
	seen := make(map[string]bool, len(ms))
	for _, m := range ms {
		if m.ID == "" {
			return fmt.Errorf("message has no id")
		}
		if _, ok := t.index[m.ID]; ok || seen[m.ID] {
			return fmt.Errorf("duplicate message id: %s", m.ID)
		}
		seen[m.ID] = true
	}
	for _, m := range ms {
		t.index[m.ID] = len(t.messages)
		t.messages = append(t.messages, m)
	}
	return nil
}

// MarkRevealed flags the message as fully revealed. It returns true only when
// the call changed the message; unknown ids and already revealed messages are
// left untouched.
func (t *Timeline) MarkRevealed(id string) bool {
	i, ok := t.index[id]
	if !ok || t.messages[i].Revealed {
		return false
	}
	t.messages[i].Revealed = true
	return true
}

// Get returns the message with the given id.
func (t *Timeline) Get(id string) (Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i], true
}

// NextPending returns the first message, in insertion order, that still needs
// its reveal.
func (t *Timeline) NextPending() (Message, bool) {
	for _, m := range t.messages {
		if m.Pending() {
			return m, true
		}
	}
	return Message{}, false
}

// Messages returns a copy of the log in insertion order.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	return len(t.messages)
}

// Last returns the most recently appended message.
func (t *Timeline) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
