package timeline

import (
	"testing"
	"time"
)

func TestAppendKeepsInsertionOrder(t *testing.T) {
	tl := New()
	now := time.Now()

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		if err := tl.Append(NewSystemMessage(text, now)); err != nil {
			t.Fatalf("Append(%q) error = %v", text, err)
		}
	}

	got := tl.Messages()
	if len(got) != len(texts) {
		t.Fatalf("Messages() len = %d, want %d", len(got), len(texts))
	}
	for i, m := range got {
		if m.Text != texts[i] {
			t.Errorf("Messages()[%d].Text = %q, want %q", i, m.Text, texts[i])
		}
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	tl := New()
	m := NewUserMessage("hello", time.Now())
	if err := tl.Append(m); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := tl.Append(m); err == nil {
		t.Fatal("Append() of duplicate id succeeded, want error")
	}
	if tl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tl.Len())
	}
}

func TestAppendBatchIsAllOrNothing(t *testing.T) {
	tl := New()
	now := time.Now()
	existing := NewSystemMessage("earlier", now)
	if err := tl.Append(existing); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	user := NewUserMessage("lunch", now)
	tests := []struct {
		name  string
		batch []Message
	}{
		{"reply clashes with log", []Message{user, existing}},
		{"duplicate inside batch", []Message{user, user}},
		{"reply without id", []Message{user, {Text: "no id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tl.Append(tt.batch...); err == nil {
				t.Fatal("Append() succeeded, want error")
			}
			if tl.Len() != 1 {
				t.Errorf("Len() = %d, want 1", tl.Len())
			}
			if _, ok := tl.Get(user.ID); ok {
				t.Error("first message of a rejected batch was appended")
			}
		})
	}

	reply := NewSystemMessage("guidance", now)
	if err := tl.Append(user, reply); err != nil {
		t.Fatalf("Append(user, reply) error = %v", err)
	}
	if got := tl.Messages(); len(got) != 3 || got[1].ID != user.ID || got[2].ID != reply.ID {
		t.Errorf("Messages() = %+v", got)
	}
}

func TestMessageIDsAreOrdered(t *testing.T) {
	now := time.Now()
	prev := NewUserMessage("a", now)
	for i := 0; i < 100; i++ {
		next := NewSystemMessage("b", now)
		if next.ID <= prev.ID {
			t.Fatalf("id %s not after %s", next.ID, prev.ID)
		}
		prev = next
	}
}

func TestMarkRevealed(t *testing.T) {
	tl := New()
	now := time.Now()
	user := NewUserMessage("hi", now)
	reply := NewSystemMessage("recorded", now)
	_ = tl.Append(user)
	_ = tl.Append(reply)

	if !user.Revealed {
		t.Error("user message should start revealed")
	}
	if reply.Revealed {
		t.Error("system message should start unrevealed")
	}

	pending, ok := tl.NextPending()
	if !ok || pending.ID != reply.ID {
		t.Fatalf("NextPending() = %v, %v; want reply", pending.ID, ok)
	}

	if !tl.MarkRevealed(reply.ID) {
		t.Error("first MarkRevealed() = false, want true")
	}
	if tl.MarkRevealed(reply.ID) {
		t.Error("second MarkRevealed() = true, want false")
	}
	if tl.MarkRevealed("missing") {
		t.Error("MarkRevealed(unknown) = true, want false")
	}

	got, _ := tl.Get(reply.ID)
	if !got.Revealed {
		t.Error("reply not revealed after MarkRevealed")
	}
	if _, ok := tl.NextPending(); ok {
		t.Error("NextPending() found a message after all were revealed")
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tl := New()
	_ = tl.Append(NewSystemMessage("x", time.Now()))

	msgs := tl.Messages()
	msgs[0].Text = "changed"

	got, _ := tl.Last()
	if got.Text != "x" {
		t.Errorf("timeline modified through Messages() copy: %q", got.Text)
	}
}
