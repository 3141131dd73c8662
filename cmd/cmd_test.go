package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/version"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(none)"},
		{"short", "********"},
		{"9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b", "9944...ee4b"},
	}
	for _, tt := range tests {
		if got := maskToken(tt.token); got != tt.want {
			t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"2026-03", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"2026", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"15/03/2026", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandImagePaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "nested/c.jpg", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, errs := expandImagePaths([]string{
		filepath.Join(dir, "*.jpg"),
		filepath.Join(dir, "a.jpg"), // duplicate
		filepath.Join(dir, "**", "c.jpg"),
		filepath.Join(dir, "*.png"), // no match
	})

	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "nested", "c.jpg"),
	}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "no files match") {
		t.Errorf("errs = %v", errs)
	}
}

func TestReadImageFilesReportsMissing(t *testing.T) {
	files, errs := readImageFiles([]string{filepath.Join(t.TempDir(), "missing.png")})
	if len(files) != 0 || len(errs) != 1 {
		t.Errorf("files = %d, errs = %v", len(files), errs)
	}
}

func TestLogModeFor(t *testing.T) {
	tests := []struct {
		name      string
		explicit  bool
		flag      string
		text      string
		hasImages bool
		want      mode.Mode
		wantErr   bool
	}{
		{"text only", false, "", "rice", false, mode.Text, false},
		{"images only", false, "", "", true, mode.Image, false},
		{"text and images", false, "", "rice", true, mode.Combined, false},
		{"explicit alias", true, "hybrid", "rice", false, mode.Combined, false},
		{"text with images", true, "text", "rice", true, "", true},
		{"unknown", true, "video", "", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := logModeFor(tt.explicit, tt.flag, tt.text, tt.hasImages)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("mode = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeHistory struct {
	pages map[int][]api.DailyHistory
	calls []int
}

func (f *fakeHistory) History(ctx context.Context, page int) ([]api.DailyHistory, error) {
	f.calls = append(f.calls, page)
	days, ok := f.pages[page]
	if !ok {
		return nil, &api.RemoteError{Endpoint: "accounts/history/", StatusCode: http.StatusNotFound}
	}
	return days, nil
}

func historyDays(n int, prefix string) []api.DailyHistory {
	out := make([]api.DailyHistory, n)
	for i := range out {
		out[i] = api.DailyHistory{Date: prefix, TotalGrade: "B"}
	}
	return out
}

func TestFetchAllHistory(t *testing.T) {
	tests := []struct {
		name      string
		pages     map[int][]api.DailyHistory
		maxPages  int
		wantDays  int
		wantCalls []int
	}{
		{"short last page", map[int][]api.DailyHistory{1: historyDays(10, "p1"), 2: historyDays(3, "p2")}, 10, 13, []int{1, 2}},
		{"404 past the end", map[int][]api.DailyHistory{1: historyDays(10, "p1")}, 10, 10, []int{1, 2}},
		{"bounded", map[int][]api.DailyHistory{1: historyDays(10, "p1"), 2: historyDays(10, "p2"), 3: historyDays(10, "p3")}, 2, 20, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeHistory{pages: tt.pages}
			got, err := fetchAllHistory(context.Background(), src, tt.maxPages)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantDays {
				t.Errorf("got %d days, want %d", len(got), tt.wantDays)
			}
			if len(src.calls) != len(tt.wantCalls) {
				t.Errorf("calls = %v, want %v", src.calls, tt.wantCalls)
			}
		})
	}
}

func TestFetchHistoryPagePropagatesAuthErrors(t *testing.T) {
	src := historyFunc(func(ctx context.Context, page int) ([]api.DailyHistory, error) {
		return nil, &api.RemoteError{StatusCode: http.StatusUnauthorized}
	})
	_, err := fetchHistoryPage(context.Background(), src, 1)
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

type historyFunc func(ctx context.Context, page int) ([]api.DailyHistory, error)

func (f historyFunc) History(ctx context.Context, page int) ([]api.DailyHistory, error) {
	return f(ctx, page)
}

func TestHistoryMarkdown(t *testing.T) {
	d := []api.DailyHistory{{
		Date:            "2026-10-16",
		TotalGrade:      "A",
		ScoreMacro:      9,
		ScoreDisease:    8,
		ScoreGoal:       9,
		TotalIntakeText: "oatmeal | banana",
		ReasonMacro:     "balanced",
		AdviceMacro:     "keep it up",
	}}

	md := historyMarkdown(d, false)
	if !strings.Contains(md, "| 2026-10-16 | A | 9/10 | 8/10 | 9/10 | oatmeal \\| banana |") {
		t.Errorf("table row missing:\n%s", md)
	}
	if strings.Contains(md, "keep it up") {
		t.Error("details rendered without detail flag")
	}

	md = historyMarkdown(d, true)
	if !strings.Contains(md, "- **Macro (9/10)**: balanced") || !strings.Contains(md, "💡 keep it up") {
		t.Errorf("details missing:\n%s", md)
	}
}

func TestConditionKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"gout", "has_gout", false},
		{"HAS_DIABETES", "has_diabetes", false},
		{" fatty_liver ", "has_fatty_liver", false},
		{"flu", "", true},
	}
	for _, tt := range tests {
		got, err := conditionKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("conditionKey(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("conditionKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfileMarkdown(t *testing.T) {
	p := &api.Profile{
		Username: "mina",
		Name:     "Mina",
		Gender:   "F",
		Age:      31,
		Height:   160,
		Weight:   51.2,
		DietGoal: "maintain",
		Conditions: api.Conditions{
			Hypertension: true,
			FattyLiver:   true,
		},
	}
	md := profileMarkdown(p)
	for _, want := range []string{"# Mina", "| BMI | 20.0 |", "- fatty liver", "- hypertension"} {
		if !strings.Contains(md, want) {
			t.Errorf("profile markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRemarshalConditions(t *testing.T) {
	var c api.Conditions
	if err := remarshal(map[string]bool{"has_gout": true, "has_anemia": true}, &c); err != nil {
		t.Fatal(err)
	}
	if !c.Gout || !c.Anemia || c.Diabetes {
		t.Errorf("conditions = %+v", c)
	}
}

func TestPrintVersion(t *testing.T) {
	b := version.Build{
		Version:   "v0.4.0",
		Commit:    "abc1234",
		BuildTime: "2026-10-01T00:00:00Z",
		GoVersion: "go1.24.1",
		Platform:  "linux/amd64",
	}
	tests := []struct {
		name   string
		server string
		short  bool
		want   []string
		absent string
	}{
		{"short", "https://api.example.com/", true, []string{"v0.4.0\n"}, "commit"},
		{"full", "https://api.example.com/", false, []string{"nlens v0.4.0", "commit: abc1234", "go:     go1.24.1 linux/amd64", "server: https://api.example.com/"}, ""},
		{"no server", "", false, []string{"built:  2026-10-01T00:00:00Z"}, "server:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printVersion(&buf, b, tt.server, tt.short, false); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
			if tt.absent != "" && strings.Contains(buf.String(), tt.absent) {
				t.Errorf("output has %q:\n%s", tt.absent, buf.String())
			}
		})
	}
}

func TestPrintVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	b := version.Build{Version: "v0.4.0", Commit: "abc1234", Platform: "linux/amd64"}
	if err := printVersion(&buf, b, "https://api.example.com/", false, true); err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["version"] != "v0.4.0" || got["commit"] != "abc1234" || got["server"] != "https://api.example.com/" {
		t.Errorf("report = %v", got)
	}
}
