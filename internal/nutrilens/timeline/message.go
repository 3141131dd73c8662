package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Message is a single timeline entry. Everything except Revealed is fixed at
// creation time.
type Message struct {
	ID           string    `json:"id"` // UUID v7, sorts by creation time
	Role         Role      `json:"role"`
	Text         string    `json:"text"`
	IsEvaluation bool      `json:"is_evaluation"`
	NeedsReveal  bool      `json:"needs_reveal"`
	Revealed     bool      `json:"revealed"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserMessage creates a message typed by the user. User messages are shown
// as-is and count as revealed from the start.
func NewUserMessage(text string, now time.Time) Message {
	return newMessage(RoleUser, text, false, false, now)
}

// NewSystemMessage creates a reply that is streamed to the user once.
func NewSystemMessage(text string, now time.Time) Message {
	return newMessage(RoleSystem, text, false, true, now)
}

// NewEvaluationMessage creates the terminal scoring summary.
func NewEvaluationMessage(text string, now time.Time) Message {
	return newMessage(RoleSystem, text, true, true, now)
}

func newMessage(role Role, text string, evaluation, needsReveal bool, now time.Time) Message {
	return Message{
		ID:           newID(),
		Role:         role,
		Text:         text,
		IsEvaluation: evaluation,
		NeedsReveal:  needsReveal,
		Revealed:     !needsReveal,
		CreatedAt:    now,
	}
}

// newID returns a time-ordered identifier. NewV7 only fails when the random
// source does, in which case a random v4 id still avoids collisions.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Pending reports whether the message still waits for its reveal.
func (m Message) Pending() bool {
	return m.NeedsReveal && !m.Revealed
}
