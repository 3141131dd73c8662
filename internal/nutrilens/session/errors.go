package session

import "errors"

// Validation errors. They are returned before anything is appended to the
// timeline and before any network call.
var (
	ErrEmptySubmission          = errors.New("nothing to submit: describe your meal or attach an image")
	ErrBusy                     = errors.New("a submission is already in progress")
	ErrRevealPending            = errors.New("the previous reply has not been shown yet")
	ErrStopped                  = errors.New("session is stopped: reset to start a new one")
	ErrAttachmentsNotApplicable = errors.New("images cannot be attached in text mode")
)

// Reveal errors.
var (
	ErrNoPendingReveal  = errors.New("no message waiting to be revealed")
	ErrRevealInProgress = errors.New("a reveal is already running")
)
