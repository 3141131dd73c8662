package transcript

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	viper.SetConfigFile(filepath.Join(dir, "config.toml"))
	t.Cleanup(viper.Reset)
	return dir
}

func newTranscript(id string, updated time.Time) *Transcript {
	return &Transcript{
		ID:        id,
		Mode:      mode.Text,
		Phase:     session.PhaseActive,
		CreatedAt: updated,
		UpdatedAt: updated,
		Messages:  []timeline.Message{timeline.NewUserMessage("rice", updated)},
	}
}

func TestGetDirFollowsConfigFile(t *testing.T) {
	dir := useTempConfigDir(t)

	got, err := GetDir()
	if err != nil {
		t.Fatalf("GetDir() error = %v", err)
	}
	if want := filepath.Join(dir, "sessions"); got != want {
		t.Errorf("GetDir() = %q, want %q", got, want)
	}
}

func TestSaveLoadDelete(t *testing.T) {
	useTempConfigDir(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tr := newTranscript("0195f0a2-1111-7000-8000-000000000001", now)
	tr.Phase = session.PhaseStopped
	tr.Evaluation = &api.Evaluation{Grade: "A", ScoreMacro: 9}
	if err := Save(tr); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(tr.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Grade() != "A" || got.MessageCount() != 1 || !got.UpdatedAt.Equal(now) {
		t.Errorf("Load() = %+v", got)
	}

	if err := Delete(tr.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := Load(tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
	if err := Delete(tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	useTempConfigDir(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"aaaa0001", "bbbb0002", "cccc0003"} {
		if err := Save(newTranscript(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	list, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 || list[0].ID != "cccc0003" || list[2].ID != "aaaa0001" {
		t.Errorf("List() order = %v", list)
	}

	latest, err := Latest()
	if err != nil || latest.ID != "cccc0003" {
		t.Errorf("Latest() = %v, %v", latest, err)
	}
}

func TestListWithoutDirectory(t *testing.T) {
	useTempConfigDir(t)

	list, err := List()
	if err != nil || len(list) != 0 {
		t.Errorf("List() = %v, %v; want empty", list, err)
	}
	if _, err := Latest(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() error = %v, want ErrNotFound", err)
	}
}

func TestFindByPrefix(t *testing.T) {
	useTempConfigDir(t)
	now := time.Now()
	for _, id := range []string{"abcd1111", "abcd2222", "ef001234"} {
		if err := Save(newTranscript(id, now)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		prefix    string
		want      string
		ambiguous bool
		wantErr   bool
	}{
		{prefix: "ef00", want: "ef001234"},
		{prefix: "abcd1", want: "abcd1111"},
		{prefix: "abcd", ambiguous: true, wantErr: true},
		{prefix: "abc", wantErr: true},
		{prefix: "9999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := FindByPrefix(tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindByPrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			var amb *AmbiguousIDError
			if errors.As(err, &amb) != tt.ambiguous {
				t.Errorf("ambiguous = %v, want %v", !tt.ambiguous, tt.ambiguous)
			}
			if err == nil && got.ID != tt.want {
				t.Errorf("FindByPrefix(%q) = %s, want %s", tt.prefix, got.ID, tt.want)
			}
		})
	}
}

func TestPruneAndClear(t *testing.T) {
	useTempConfigDir(t)
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	if err := Save(newTranscript("old00001", now.AddDate(0, 0, -40))); err != nil {
		t.Fatal(err)
	}
	if err := Save(newTranscript("new00001", now.AddDate(0, 0, -1))); err != nil {
		t.Fatal(err)
	}

	removed, err := Prune(30*24*time.Hour, now)
	if err != nil || removed != 1 {
		t.Fatalf("Prune() = %d, %v; want 1", removed, err)
	}
	if removed, _ := Prune(0, now); removed != 0 {
		t.Errorf("Prune(0) removed %d", removed)
	}

	removed, err = Clear()
	if err != nil || removed != 1 {
		t.Errorf("Clear() = %d, %v; want 1", removed, err)
	}
}

func TestFromSnapshot(t *testing.T) {
	now := time.Now()
	snap := session.Snapshot{ID: "0195f0a2", Mode: mode.Image, Phase: session.PhaseActive, CreatedAt: now.Add(-time.Minute)}

	tr := FromSnapshot(snap, now)

	if tr.Messages == nil {
		t.Error("Messages is nil; saved JSON would hold null")
	}
	if tr.Grade() != "-" {
		t.Errorf("Grade() = %q", tr.Grade())
	}
	if !tr.UpdatedAt.Equal(now) || tr.Mode != mode.Image {
		t.Errorf("FromSnapshot() = %+v", tr)
	}
}
