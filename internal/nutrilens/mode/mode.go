// Package mode selects which ingestion pipeline a logging session uses.
//
// Per-mode behavior is data: each Mode has a Spec describing its attachment
// policy and the text shown to the user, so adding a mode means adding a row
// to the table.
package mode

import (
	"fmt"
	"strings"
)

// Mode is an ingestion mode.
type Mode string

const (
	Text     Mode = "text"
	Image    Mode = "image"
	Combined Mode = "combined"
)

// AttachmentPolicy tells whether a mode needs images before it accepts a
// submission.
type AttachmentPolicy int

const (
	// AttachmentsNotApplicable means the mode never carries images; the
	// pending batch must stay empty.
	AttachmentsNotApplicable AttachmentPolicy = iota
	// AttachmentsRequired means at least one image must be pending.
	AttachmentsRequired
	// AttachmentsOptional means images and text may be sent in any mix.
	AttachmentsOptional
)

// Spec describes one mode.
type Spec struct {
	Mode        Mode
	Attachments AttachmentPolicy
	Title       string
	Description string
	Placeholder string
}

var specs = []Spec{
	{
		Mode:        Text,
		Attachments: AttachmentsNotApplicable,
		Title:       "Simple Chat",
		Description: "Describe your meals with text",
		Placeholder: "e.g., Chicken breast 100g, banana 1 piece",
	},
	{
		Mode:        Image,
		Attachments: AttachmentsRequired,
		Title:       "Image Analysis",
		Description: "Upload photos of your food",
		Placeholder: "Add description (optional)",
	},
	{
		Mode:        Combined,
		Attachments: AttachmentsOptional,
		Title:       "Hybrid Analysis",
		Description: "Combine text description with food photos",
		Placeholder: "Describe your meal and upload photos",
	},
}

var aliases = map[string]Mode{
	"chat":   Text,
	"hybrid": Combined,
}

// All returns every mode in display order.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Lookup returns the Spec of m.
func Lookup(m Mode) (Spec, bool) {
	for _, s := range specs {
		if s.Mode == m {
			return s, true
		}
	}
	return Spec{}, false
}

// Parse converts user input into a Mode. The names used by the web client
// ("chat", "hybrid") are accepted as aliases.
func Parse(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if m, ok := aliases[name]; ok {
		return m, nil
	}
	if _, ok := Lookup(Mode(name)); ok {
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown mode %q (available: text, image, combined)", s)
}

// AcceptsAttachments reports whether images may be pending in this mode.
func (s Spec) AcceptsAttachments() bool {
	return s.Attachments != AttachmentsNotApplicable
}

// Controller holds the active mode of one session. Once locked, which happens
// when the session stops, selection is a no-op.
type Controller struct {
	current Mode
	locked  bool
}

// NewController starts in the given mode, falling back to Text for unknown
// modes.
func NewController(initial Mode) *Controller {
	if _, ok := Lookup(initial); !ok {
		initial = Text
	}
	return &Controller{current: initial}
}

// Current returns the active mode.
func (c *Controller) Current() Mode {
	return c.current
}

// Spec returns the Spec of the active mode.
func (c *Controller) Spec() Spec {
	s, _ := Lookup(c.current)
	return s
}

// Select switches the active mode. It reports whether the mode changed.
func (c *Controller) Select(m Mode) bool {
	if c.locked || m == c.current {
		return false
	}
	if _, ok := Lookup(m); !ok {
		return false
	}
	c.current = m
	return true
}

// Lock freezes the current mode.
func (c *Controller) Lock() {
	c.locked = true
}

// Locked reports whether selection is frozen.
func (c *Controller) Locked() bool {
	return c.locked
}
