// Package attachment holds the images a user has picked or dropped but not yet
// submitted.
package attachment

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// File is an image picked by the user before it enters the store.
type File struct {
	Name      string
	MediaType string // detected from Data when empty
	Data      []byte
}

// UnsupportedMediaError is returned when a file is not an image.
type UnsupportedMediaError struct {
	Name      string
	MediaType string
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported media type %q for %s: only images can be attached", e.MediaType, e.Name)
}

// Store is the pending batch of attachments. It is safe for concurrent use so
// the user can edit the batch while a submission is in flight.
type Store struct {
	mu    sync.Mutex
	items []*Attachment
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// ReadFile loads a file from disk for Add.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Add accepts an image file and starts decoding its preview in the
// background. Non-image files are rejected with *UnsupportedMediaError and
// leave the store unchanged.
func (s *Store) Add(f File) (*Attachment, error) {
	mediaType := f.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(f.Data)
	}
	if !isImage(mediaType) {
		return nil, &UnsupportedMediaError{Name: f.Name, MediaType: mediaType}
	}

	id, err := gonanoid.New(12)
	if err != nil {
		return nil, fmt.Errorf("generating attachment id: %w", err)
	}

	a := &Attachment{
		ID:        id,
		Name:      f.Name,
		MediaType: mediaType,
		data:      f.Data,
		AddedAt:   s.now(),
		preview:   newPreview(),
	}
	go a.preview.decode(mediaType, f.Data)

	s.mu.Lock()
	s.items = append(s.items, a)
	s.mu.Unlock()
	return a, nil
}

// AddAll adds every file of a single pick or drop gesture. Each file gets its
// own attachment; files that are not images are skipped and reported.
func (s *Store) AddAll(files []File) ([]*Attachment, []error) {
	var added []*Attachment
	var errs []error
	for _, f := range files {
		a, err := s.Add(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, a)
	}
	return added, errs
}

// Remove drops an attachment. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops the given attachments, typically the batch that was just
// submitted.
func (s *Store) RemoveAll(ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, a := range s.items {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	s.items = kept
}

// Clear empties the batch.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// List returns the current batch in the order it was added.
func (s *Store) List() []*Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Attachment, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of pending attachments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}

func dataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
