package session

import (
	"context"
	"errors"
	"io"

	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
)

// PendingReveal returns the system message that has not been shown yet.
func (c *Controller) PendingReveal() (timeline.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.timeline.NextPending()
}

// CompleteReveal marks a message as shown without streaming it. It reports
// whether anything changed; completing twice is a no-op.
func (c *Controller) CompleteReveal(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.timeline.MarkRevealed(id)
}

func (c *Controller) completeReveal(gen uint64, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.st.timeline.MarkRevealed(id)
}

// RevealNext streams the pending message to w and marks it revealed when the
// whole text has been written. The run stops early when ctx is cancelled or
// the session is reset; the message then stays pending and, since a started
// reveal never restarts, the caller settles it with CompleteReveal.
func (c *Controller) RevealNext(ctx context.Context, w io.Writer) (timeline.Message, error) {
	c.mu.Lock()
	st, gen := c.st, c.gen
	msg, ok := st.timeline.NextPending()
	if !ok {
		c.mu.Unlock()
		return timeline.Message{}, ErrNoPendingReveal
	}
	if st.revealing {
		c.mu.Unlock()
		return timeline.Message{}, ErrRevealInProgress
	}
	st.revealing = true
	renderer := st.renderer
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		st.revealing = false
		c.mu.Unlock()
	}()

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(st.revealCtx, cancel)
	defer stop()

	err := renderer.Reveal(rctx, msg.ID, msg.Text, w, func() {
		c.completeReveal(gen, msg.ID)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Debug("reveal interrupted", "session_id", st.id, "message_id", msg.ID, "error", err)
	}
	return msg, err
}
