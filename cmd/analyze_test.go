package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/ui"
)

type fakeAPI struct {
	mu     sync.Mutex
	texts  []string
	images int
	err    error
}

func (f *fakeAPI) SubmitTextNote(ctx context.Context, content string) (*api.TextNoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, content)
	return &api.TextNoteResult{Record: api.Record{Content: content}}, nil
}

func (f *fakeAPI) SubmitImageBatch(ctx context.Context, images []api.Image, note string) (*api.ImageBatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.images += len(images)
	res := &api.ImageBatchResult{IngestedCount: len(images), Record: api.Record{Content: "[Image] uploaded"}}
	for _, img := range images {
		res.Images = append(res.Images, api.StoredImage{Image: "/media/" + img.Name})
	}
	return res, nil
}

func (f *fakeAPI) SubmitCombinedBatch(ctx context.Context, images []api.Image, text string) (*api.CombinedBatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.images += len(images)
	return &api.CombinedBatchResult{Record: api.Record{Content: text}}, nil
}

func (f *fakeAPI) RequestEvaluation(ctx context.Context) (*api.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &api.Evaluation{Grade: "B", ScoreMacro: 7, ScoreDisease: 8, ScoreGoal: 6}, nil
}

type replRun struct {
	out, errOut bytes.Buffer
	saved       []session.Snapshot
}

func runREPL(t *testing.T, fake *fakeAPI, input string) *replRun {
	t.Helper()
	res := &replRun{}
	ctrl := session.New(fake, session.WithRevealDelay(0))
	r := &repl{
		ctrl:   ctrl,
		theme:  ui.NewTheme(false),
		in:     newScannerReader(strings.NewReader(input), io.Discard),
		out:    &res.out,
		errOut: &res.errOut,
		save: func(s session.Snapshot) error {
			res.saved = append(res.saved, s)
			return nil
		},
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		},
	}
	r.in.setPrompt(r.prompt)
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	return res
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 3))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestREPLRecordsTextNote(t *testing.T) {
	fake := &fakeAPI{}
	res := runREPL(t, fake, "Chicken breast 100g\n/exit\n")

	if len(fake.texts) != 1 || fake.texts[0] != "Chicken breast 100g" {
		t.Errorf("texts = %v", fake.texts)
	}
	if !strings.Contains(res.out.String(), "NutriLens> ✨ Recorded: Chicken breast 100g") {
		t.Errorf("output = %q", res.out.String())
	}
	if len(res.saved) != 1 || len(res.saved[0].Messages) != 2 {
		t.Errorf("saved = %+v", res.saved)
	}
	if !strings.Contains(res.errOut.String(), "Goodbye!") {
		t.Errorf("missing goodbye: %q", res.errOut.String())
	}
}

func TestREPLEndsOnEOF(t *testing.T) {
	res := runREPL(t, &fakeAPI{}, "")
	if !strings.Contains(res.errOut.String(), "Goodbye!") {
		t.Errorf("errOut = %q", res.errOut.String())
	}
}

func TestREPLImageModeNeedsPhotos(t *testing.T) {
	fake := &fakeAPI{}
	res := runREPL(t, fake, "/mode image\nlunch\n")

	if fake.images != 0 || len(fake.texts) != 0 {
		t.Errorf("API was called: texts=%v images=%d", fake.texts, fake.images)
	}
	if !strings.Contains(res.out.String(), "📸 Please upload at least one image for analysis.") {
		t.Errorf("output = %q", res.out.String())
	}
	if !strings.Contains(res.errOut.String(), "Switched to Image Analysis") {
		t.Errorf("errOut = %q", res.errOut.String())
	}
}

func TestREPLAttachAndSend(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")

	fake := &fakeAPI{}
	input := "/mode image\n/attach " + filepath.Join(dir, "*.png") + "\n/images\n/send\n"
	res := runREPL(t, fake, input)

	if fake.images != 2 {
		t.Errorf("uploaded %d images, want 2", fake.images)
	}
	if !strings.Contains(res.out.String(), "📸 Saved 2 image(s): a.png, b.png") {
		t.Errorf("output = %q", res.out.String())
	}
	if !strings.Contains(res.errOut.String(), "📎 a.png") {
		t.Errorf("errOut = %q", res.errOut.String())
	}
}

func TestREPLAttachInTextMode(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	res := runREPL(t, &fakeAPI{}, "/attach "+path+"\n")
	if !strings.Contains(res.errOut.String(), "Photos are not used in text mode") {
		t.Errorf("errOut = %q", res.errOut.String())
	}
}

func TestREPLFailureClearsDraft(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	tests := []struct {
		name     string
		input    string
		wantHint string
		noHint   string
	}{
		{"text", "rice\n/info\n", "", "still attached"},
		{"image", "/mode image\n/attach " + path + "\n/send\n/info\n", "Your photos are still attached.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAPI{err: &api.NetworkError{Endpoint: "accounts/chat/", Err: errors.New("refused")}}
			res := runREPL(t, fake, tt.input)

			if !strings.Contains(res.out.String(), "❌ Failed to process your input. Please try again.") {
				t.Errorf("output = %q", res.out.String())
			}
			errOut := res.errOut.String()
			if strings.Contains(errOut, "Kept text:") {
				t.Errorf("draft survived the failed request:\n%s", errOut)
			}
			if tt.wantHint != "" && !strings.Contains(errOut, tt.wantHint) {
				t.Errorf("errOut missing %q:\n%s", tt.wantHint, errOut)
			}
			if tt.noHint != "" && strings.Contains(errOut, tt.noHint) {
				t.Errorf("errOut has %q:\n%s", tt.noHint, errOut)
			}
		})
	}
}

func TestREPLStopEvaluatesAndLocks(t *testing.T) {
	res := runREPL(t, &fakeAPI{}, "stop\n/mode image\nmore food\n/reset\n")

	if !strings.Contains(res.out.String(), "Today's evaluation score: B") {
		t.Errorf("output = %q", res.out.String())
	}
	errOut := res.errOut.String()
	for _, want := range []string{
		"Only /reset, /info, /help and /exit are available.",
		"Type /reset to start a new one.",
		"New session started",
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("errOut missing %q:\n%s", want, errOut)
		}
	}
}

func TestREPLUnknownCommand(t *testing.T) {
	res := runREPL(t, &fakeAPI{}, "/bogus\n")
	if !strings.Contains(res.errOut.String(), "Unknown command: /bogus") {
		t.Errorf("errOut = %q", res.errOut.String())
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
