package transcript

import (
	"time"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
)

// Transcript is the saved record of one meal-logging session.
type Transcript struct {
	ID         string             `json:"id"` // session UUID
	Mode       mode.Mode          `json:"mode"`
	Phase      session.Phase      `json:"phase"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Messages   []timeline.Message `json:"messages"`
	Evaluation *api.Evaluation    `json:"evaluation,omitempty"`
}

// FromSnapshot builds a transcript from a session snapshot. Pending
// attachments and the draft are not part of a transcript.
func FromSnapshot(s session.Snapshot, now time.Time) *Transcript {
	msgs := s.Messages
	if msgs == nil {
		msgs = []timeline.Message{}
	}
	return &Transcript{
		ID:         s.ID,
		Mode:       s.Mode,
		Phase:      s.Phase,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  now,
		Messages:   msgs,
		Evaluation: s.Evaluation,
	}
}

// GetShortID returns the first 8 characters of the ID.
func (t *Transcript) GetShortID() string {
	if len(t.ID) >= 8 {
		return t.ID[:8]
	}
	return t.ID
}

// MessageCount returns the number of messages.
func (t *Transcript) MessageCount() int {
	return len(t.Messages)
}

// Grade returns the evaluation grade, or "-" when the session never stopped.
func (t *Transcript) Grade() string {
	if t.Evaluation == nil || t.Evaluation.Grade == "" {
		return "-"
	}
	return t.Evaluation.Grade
}
