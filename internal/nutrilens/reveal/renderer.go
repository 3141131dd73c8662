// Package reveal streams message text to a writer as if it were being typed.
package reveal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultDelay is the pause between two revealed characters.
const DefaultDelay = 25 * time.Millisecond

// ErrAlreadyStarted is returned when a reveal for the same message id has
// already run or is running. A started reveal is never restarted.
var ErrAlreadyStarted = errors.New("reveal already started")

type runState int

const (
	running runState = iota
	completed
	abandoned
)

// Renderer runs one reveal per message id. Runs are keyed by id, so starting
// a reveal for a new message never touches the run of an earlier one.
type Renderer struct {
	delay time.Duration

	mu   sync.Mutex
	runs map[string]runState
}

// New returns a renderer that waits delay between characters. A zero delay
// writes the text without pausing, which is what non-interactive output and
// tests use.
func New(delay time.Duration) *Renderer {
	if delay < 0 {
		delay = 0
	}
	return &Renderer{
		delay: delay,
		runs:  make(map[string]runState),
	}
}

// Delay returns the per-character pause.
func (r *Renderer) Delay() time.Duration {
	return r.delay
}

// Reveal writes text to w one character at a time and calls onComplete once
// the last character is out. If ctx is cancelled first, the run is abandoned
// and onComplete is never called. A write error also abandons the run but
// forgets it, so the message can be revealed again on a working writer.
func (r *Renderer) Reveal(ctx context.Context, id, text string, w io.Writer, onComplete func()) error {
	r.mu.Lock()
	if _, ok := r.runs[id]; ok {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.runs[id] = running
	r.mu.Unlock()

	if err := r.stream(ctx, text, w); err != nil {
		r.mu.Lock()
		if ctx.Err() != nil {
			r.runs[id] = abandoned
		} else {
			delete(r.runs, id)
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.runs[id] = completed
	r.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
	return nil
}

func (r *Renderer) stream(ctx context.Context, text string, w io.Writer) error {
	if r.delay == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("writing reveal: %w", err)
		}
		return nil
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	for _, ch := range text {
		if _, err := io.WriteString(w, string(ch)); err != nil {
			return fmt.Errorf("writing reveal: %w", err)
		}
		timer.Reset(r.delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ctx.Err()
}

// Started reports whether a reveal for id has been started, whatever its
// outcome.
func (r *Renderer) Started(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[id]
	return ok
}

// Completed reports whether the reveal for id ran to the end.
func (r *Renderer) Completed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id] == completed
}

// Active reports whether a reveal is currently writing.
func (r *Renderer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.runs {
		if s == running {
			return true
		}
	}
	return false
}
