package attachment

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"
)

// Attachment is one pending image. The raw bytes stay with the store until
// the batch is submitted.
type Attachment struct {
	ID        string
	Name      string
	MediaType string
	AddedAt   time.Time

	data    []byte
	preview *preview
}

// Data returns the raw file payload.
func (a *Attachment) Data() []byte {
	return a.data
}

// Size returns the payload size in bytes.
func (a *Attachment) Size() int {
	return len(a.data)
}

// Preview returns the decoded preview if it is ready. An attachment whose
// image could not be decoded has an empty preview but stays submittable.
func (a *Attachment) Preview() (Preview, bool) {
	select {
	case <-a.preview.done:
		return a.preview.result, true
	default:
		return Preview{}, false
	}
}

// WaitPreview blocks until the preview is decoded or ctx is done.
func (a *Attachment) WaitPreview(ctx context.Context) (Preview, error) {
	select {
	case <-a.preview.done:
		return a.preview.result, nil
	case <-ctx.Done():
		return Preview{}, ctx.Err()
	}
}

// Preview is the display form of an attachment.
type Preview struct {
	DataURI string
	Width   int
	Height  int
}

// Empty reports whether decoding failed.
func (p Preview) Empty() bool {
	return p.DataURI == ""
}

type preview struct {
	done   chan struct{}
	result Preview
}

func newPreview() *preview {
	return &preview{done: make(chan struct{})}
}

func (p *preview) decode(mediaType string, data []byte) {
	defer close(p.done)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return
	}
	p.result = Preview{
		DataURI: dataURI(mediaType, data),
		Width:   cfg.Width,
		Height:  cfg.Height,
	}
}
