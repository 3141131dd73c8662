package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/logging"
	"github.com/nutrilens/nlens/internal/nutrilens/attachment"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
)

// Pipeline names what a submission was routed to.
type Pipeline string

const (
	PipelineText       Pipeline = "text"
	PipelineImage      Pipeline = "image"
	PipelineCombined   Pipeline = "combined"
	PipelineEvaluation Pipeline = "evaluation"
	PipelineGuidance   Pipeline = "guidance"
)

// Outcome describes a submission after its reply has been appended.
type Outcome struct {
	Pipeline Pipeline
	User     timeline.Message
	Reply    timeline.Message
	// Err is the API failure behind a failure reply.
	Err error
	// Stopped is set when the submission ended the session.
	Stopped bool
	// Discarded is set when the session was reset while the request was in
	// flight. Nothing was appended to the new session.
	Discarded bool
}

// ingestFunc sends one submission and returns the acknowledgement text.
type ingestFunc func(ctx context.Context, in Ingestor, text string, images []api.Image) (string, error)

var pipelines = map[mode.Mode]struct {
	name   Pipeline
	ingest ingestFunc
}{
	mode.Text:     {PipelineText, ingestText},
	mode.Image:    {PipelineImage, ingestImages},
	mode.Combined: {PipelineCombined, ingestCombined},
}

func ingestText(ctx context.Context, in Ingestor, text string, _ []api.Image) (string, error) {
	res, err := in.SubmitTextNote(ctx, text)
	if err != nil {
		return "", err
	}
	return textAck(res.RecordedContent()), nil
}

func ingestImages(ctx context.Context, in Ingestor, text string, images []api.Image) (string, error) {
	res, err := in.SubmitImageBatch(ctx, images, text)
	if err != nil {
		return "", err
	}
	return imageAck(res.IngestedCount, res.ImageRefs(), res.RecordedContent()), nil
}

func ingestCombined(ctx context.Context, in Ingestor, text string, images []api.Image) (string, error) {
	res, err := in.SubmitCombinedBatch(ctx, images, text)
	if err != nil {
		return "", err
	}
	return combinedAck(res.ImageRefs(), res.RecordedContent()), nil
}

// Submit sends the draft and the pending attachments.
//
// A stop intent requests the evaluation instead of recording anything; the
// session stops only when the evaluation succeeds. In a mode that requires
// attachments, submitting none appends a guidance reply and keeps the draft.
// The draft is cleared after every request, whether it succeeded or not. API
// failures become a failure reply and leave the attachments in place;
// Outcome.Err carries the cause.
func (c *Controller) Submit(ctx context.Context) (*Outcome, error) {
	c.mu.Lock()
	st, gen := c.st, c.gen

	if err := st.submittable(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	text := strings.TrimSpace(st.draft)
	spec := st.modes.Spec()
	var pending []*attachment.Attachment
	if spec.AcceptsAttachments() {
		pending = st.attachments.List()
	}
	if text == "" && len(pending) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptySubmission
	}

	userText := text
	if userText == "" {
		userText = attachmentPlaceholder(len(pending))
	}
	out := &Outcome{User: timeline.NewUserMessage(userText, c.now())}

	stop := IsStopIntent(text)
	if !stop && spec.Attachments == mode.AttachmentsRequired && len(pending) == 0 {
		// The draft stays for the retry with images.
		out.Pipeline = PipelineGuidance
		out.Reply = timeline.NewSystemMessage(guidanceText, c.now())
		err := st.timeline.Append(out.User, out.Reply)
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := st.timeline.Append(out.User); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	st.inFlight = true
	c.mu.Unlock()

	ctx = logging.WithSessionID(ctx, st.id)
	log := logging.FromContext(ctx, c.logger).With("generation", gen, "mode", spec.Mode)

	if stop {
		out.Pipeline = PipelineEvaluation
		log.Debug("requesting evaluation")
		ev, err := c.api.RequestEvaluation(ctx)
		return c.finishEvaluation(gen, out, ev, err)
	}

	p, ok := pipelines[spec.Mode]
	if !ok {
		c.mu.Lock()
		if gen == c.gen {
			st.inFlight = false
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("no pipeline for mode %q", spec.Mode)
	}
	out.Pipeline = p.name
	log.Debug("submitting", "pipeline", p.name, "images", len(pending))
	ack, err := p.ingest(ctx, c.api, text, toImages(pending))
	return c.finishIngest(gen, out, pending, ack, err)
}

func (st *state) submittable() error {
	switch {
	case st.phase == PhaseStopped:
		return ErrStopped
	case st.inFlight:
		return ErrBusy
	}
	if _, ok := st.timeline.NextPending(); ok {
		return ErrRevealPending
	}
	return nil
}

func (c *Controller) finishIngest(gen uint64, out *Outcome, submitted []*attachment.Attachment, ack string, err error) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("discarding response for a reset session", "generation", gen, "pipeline", out.Pipeline)
		out.Discarded = true
		return out, nil
	}
	st := c.st
	st.inFlight = false
	st.draft = ""

	if err != nil {
		c.logger.Warn("submission failed", "session_id", st.id, "pipeline", out.Pipeline, "error", err)
		out.Err = err
		out.Reply = timeline.NewSystemMessage(failureText, c.now())
	} else {
		ids := make([]string, len(submitted))
		for i, a := range submitted {
			ids[i] = a.ID
		}
		st.attachments.RemoveAll(ids)
		out.Reply = timeline.NewSystemMessage(ack, c.now())
	}
	if err := st.timeline.Append(out.Reply); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Controller) finishEvaluation(gen uint64, out *Outcome, ev *api.Evaluation, err error) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("discarding evaluation for a reset session", "generation", gen)
		out.Discarded = true
		return out, nil
	}
	st := c.st
	st.inFlight = false
	st.draft = ""

	if err != nil {
		c.logger.Warn("evaluation failed", "session_id", st.id, "error", err)
		out.Err = err
		out.Reply = timeline.NewSystemMessage(evaluationFailureText, c.now())
	} else {
		st.evaluation = ev
		st.phase = PhaseStopped
		st.modes.Lock()
		out.Stopped = true
		out.Reply = timeline.NewEvaluationMessage(FormatEvaluation(ev), c.now())
	}
	if err := st.timeline.Append(out.Reply); err != nil {
		return nil, err
	}
	return out, nil
}

func toImages(atts []*attachment.Attachment) []api.Image {
	images := make([]api.Image, len(atts))
	for i, a := range atts {
		images[i] = api.Image{Name: a.Name, MediaType: a.MediaType, Data: a.Data()}
	}
	return images
}
