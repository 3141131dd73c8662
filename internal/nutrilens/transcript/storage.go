// Package transcript saves finished and in-progress sessions as JSON files so
// they can be listed and shown later.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nutrilens/nlens/internal/nutrilens/config"
)

// ErrNotFound is returned when no transcript matches an ID.
var ErrNotFound = errors.New("transcript not found")

// AmbiguousIDError is returned when multiple transcripts match a prefix
type AmbiguousIDError struct {
	Prefix  string
	Matches []Transcript
}

func (e *AmbiguousIDError) Error() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Ambiguous session ID %q. Multiple matches found:", e.Prefix))
	for _, match := range e.Matches {
		lines = append(lines, fmt.Sprintf("- %s (%s, %s, grade %s, %d messages)",
			match.GetShortID(),
			match.Mode,
			match.CreatedAt.Format("2006-01-02"),
			match.Grade(),
			match.MessageCount()))
	}
	lines = append(lines, "")
	lines = append(lines, "Please use a longer prefix or run 'nlens sessions list'.")
	return strings.Join(lines, "\n")
}

// GetDir returns the directory where transcripts are stored: a sessions
// directory next to the config file in use, or $HOME/.config/nlens/sessions.
func GetDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// Save writes a transcript to disk, replacing any earlier save of the same
// session.
func Save(t *Transcript) error {
	dir, err := GetDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize transcript: %w", err)
	}

	// Write then rename; readers never see a partial file.
	file := filepath.Join(dir, t.ID+".json")
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	return nil
}

// Load reads a transcript by full ID.
func Load(id string) (*Transcript, error) {
	dir, err := GetDir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s\n\nRun 'nlens sessions list' to see available sessions.", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file: %w\n\nThe file may be corrupted.", err)
	}

	return &t, nil
}

// Delete removes a transcript by full ID.
func Delete(id string) error {
	dir, err := GetDir()
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, id+".json")); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete transcript file: %w", err)
	}

	return nil
}

// List returns all transcripts sorted by UpdatedAt (newest first).
// Unreadable files are skipped.
func List() ([]Transcript, error) {
	dir, err := GetDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var transcripts []Transcript
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		t, err := Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		transcripts = append(transcripts, *t)
	}

	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].UpdatedAt.After(transcripts[j].UpdatedAt)
	})

	return transcripts, nil
}

// FindByPrefix finds a transcript by ID prefix (minimum 4 characters).
// "latest" returns the most recently updated transcript. Multiple matches
// return *AmbiguousIDError.
func FindByPrefix(prefix string) (*Transcript, error) {
	if prefix == "latest" {
		return Latest()
	}

	if len(prefix) < 4 {
		return nil, fmt.Errorf("session ID prefix must be at least 4 characters (got %d)", len(prefix))
	}

	if len(prefix) == 36 && strings.Count(prefix, "-") == 4 {
		return Load(prefix)
	}

	transcripts, err := List()
	if err != nil {
		return nil, err
	}

	var matches []Transcript
	for _, t := range transcripts {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s\n\nRun 'nlens sessions list' to see available sessions.", ErrNotFound, prefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}

// Latest returns the most recently updated transcript.
func Latest() (*Transcript, error) {
	transcripts, err := List()
	if err != nil {
		return nil, err
	}

	if len(transcripts) == 0 {
		return nil, fmt.Errorf("%w: no sessions yet\n\nStart one with: nlens analyze", ErrNotFound)
	}

	return &transcripts[0], nil
}

// Prune deletes transcripts last updated before now minus maxAge and returns
// how many were removed. A non-positive maxAge keeps everything.
func Prune(maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	transcripts, err := List()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, t := range transcripts {
		if !t.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := Delete(t.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Clear deletes every transcript and returns how many were removed.
func Clear() (int, error) {
	transcripts, err := List()
	if err != nil {
		return 0, err
	}

	for i, t := range transcripts {
		if err := Delete(t.ID); err != nil {
			return i, err
		}
	}
	return len(transcripts), nil
}
