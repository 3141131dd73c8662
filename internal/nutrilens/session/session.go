// Package session drives a meal-logging session: the draft, the attachment
// set, the input mode, the message timeline and the final evaluation.
//
// A Controller is safe for concurrent use. Network calls run without the
// controller lock held, so the draft and attachments stay editable while a
// submission is in flight. Reset starts a new generation; responses that
// arrive for an older generation are dropped.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/attachment"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/reveal"
	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
)

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseStopped Phase = "stopped"
)

// Ingestor is the part of the NutriLens API a session talks to.
type Ingestor interface {
	SubmitTextNote(ctx context.Context, content string) (*api.TextNoteResult, error)
	SubmitImageBatch(ctx context.Context, images []api.Image, note string) (*api.ImageBatchResult, error)
	SubmitCombinedBatch(ctx context.Context, images []api.Image, text string) (*api.CombinedBatchResult, error)
	RequestEvaluation(ctx context.Context) (*api.Evaluation, error)
}

// Controller owns one session at a time.
type Controller struct {
	api         Ingestor
	logger      *slog.Logger
	now         func() time.Time
	revealDelay time.Duration
	initialMode mode.Mode

	mu  sync.Mutex
	gen uint64
	st  *state
}

type state struct {
	id           string
	createdAt    time.Time
	phase        Phase
	draft        string
	inFlight     bool
	revealing    bool
	modes        *mode.Controller
	timeline     *timeline.Timeline
	attachments  *attachment.Store
	evaluation   *api.Evaluation
	renderer     *reveal.Renderer
	revealCtx    context.Context
	cancelReveal context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRevealDelay sets the per-character reveal delay. Zero reveals at once.
func WithRevealDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.revealDelay = d
	}
}

// WithInitialMode sets the mode of the first session. Sessions started by
// Reset always begin in text mode.
func WithInitialMode(m mode.Mode) Option {
	return func(c *Controller) {
		c.initialMode = m
	}
}

// New creates a controller with a fresh active session.
func New(ingestor Ingestor, opts ...Option) *Controller {
	c := &Controller{
		api:         ingestor,
		logger:      slog.Default(),
		now:         time.Now,
		revealDelay: reveal.DefaultDelay,
		initialMode: mode.Text,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.st = c.newState(c.initialMode)
	return c
}

func (c *Controller) newState(m mode.Mode) *state {
	ctx, cancel := context.WithCancel(context.Background())
	return &state{
		id:           uuid.New().String(),
		createdAt:    c.now(),
		phase:        PhaseActive,
		modes:        mode.NewController(m),
		timeline:     timeline.New(),
		attachments:  attachment.NewStore(),
		renderer:     reveal.New(c.revealDelay),
		revealCtx:    ctx,
		cancelReveal: cancel,
	}
}

// Reset discards the current session and starts an empty one in text mode.
// Running reveals are cancelled and in-flight responses will be ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.st.cancelReveal()
	c.gen++
	c.st = c.newState(mode.Text)
	c.logger.Debug("session reset", "session_id", c.st.id, "generation", c.gen)
}

// ID returns the identifier of the current session.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.id
}

// Generation returns the number of resets so far.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Phase returns the lifecycle state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.phase
}

// InFlight reports whether a submission is waiting for its response.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.inFlight
}

// Mode returns the current input mode.
func (c *Controller) Mode() mode.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.modes.Current()
}

// ModeSpec returns the behavior of the current input mode.
func (c *Controller) ModeSpec() mode.Spec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.modes.Spec()
}

// SelectMode switches the input mode. It reports false when nothing changed:
// the session is stopped, m is unknown or already selected. Switching to a
// mode that takes no attachments empties the attachment set.
func (c *Controller) SelectMode(m mode.Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.st.modes.Select(m) {
		return false
	}
	if !c.st.modes.Spec().AcceptsAttachments() {
		c.st.attachments.Clear()
	}
	c.logger.Debug("mode selected", "session_id", c.st.id, "mode", m)
	return true
}

// Draft returns the unsent text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.draft
}

// SetDraft replaces the unsent text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.draft = text
}

// AddAttachment adds an image to the pending set.
func (c *Controller) AddAttachment(f attachment.File) (*attachment.Attachment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.attachable(); err != nil {
		return nil, err
	}
	return c.st.attachments.Add(f)
}

// AddAttachments adds several images. Each file is handled independently;
// errs holds one entry per rejected file.
func (c *Controller) AddAttachments(files []attachment.File) ([]*attachment.Attachment, []error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.attachable(); err != nil {
		return nil, []error{err}
	}
	return c.st.attachments.AddAll(files)
}

func (c *Controller) attachable() error {
	if c.st.phase == PhaseStopped {
		return ErrStopped
	}
	if !c.st.modes.Spec().AcceptsAttachments() {
		return ErrAttachmentsNotApplicable
	}
	return nil
}

// RemoveAttachment drops one pending image.
func (c *Controller) RemoveAttachment(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.attachments.Remove(id)
}

// ClearAttachments drops every pending image.
func (c *Controller) ClearAttachments() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.attachments.Clear()
}

// Attachments returns the pending images in insertion order.
func (c *Controller) Attachments() []*attachment.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.attachments.List()
}

// Messages returns a copy of the timeline.
func (c *Controller) Messages() []timeline.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.timeline.Messages()
}

// Evaluation returns the evaluation of a stopped session, or nil.
func (c *Controller) Evaluation() *api.Evaluation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.evaluation
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	ID          string
	Generation  uint64
	CreatedAt   time.Time
	Phase       Phase
	Mode        mode.Mode
	Draft       string
	InFlight    bool
	Messages    []timeline.Message
	Attachments []*attachment.Attachment
	Evaluation  *api.Evaluation
}

// Snapshot copies the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.st
	return Snapshot{
		ID:          st.id,
		Generation:  c.gen,
		CreatedAt:   st.createdAt,
		Phase:       st.phase,
		Mode:        st.modes.Current(),
		Draft:       st.draft,
		InFlight:    st.inFlight,
		Messages:    st.timeline.Messages(),
		Attachments: st.attachments.List(),
		Evaluation:  st.evaluation,
	}
}
