package ui

import (
	"strings"
	"testing"
)

func TestPlainThemeLeavesTextAlone(t *testing.T) {
	var th Theme

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user prefix", th.UserPrefix(), "You> "},
		{"system prefix", th.SystemPrefix(), "NutriLens> "},
		{"error", th.Error("boom"), "boom"},
		{"hint", th.Hint("type /help"), "type /help"},
		{"badge", th.Badge("image"), "[image]"},
		{"grade", th.Grade("B"), "B"},
		{"panel", th.Panel("score"), "score"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestStyledPanelKeepsContent(t *testing.T) {
	th := NewTheme(true)
	out := th.Panel("Today's evaluation score: B")
	if !strings.Contains(out, "Today's evaluation score: B") {
		t.Errorf("Panel() = %q", out)
	}
	if !strings.Contains(out, "╭") {
		t.Errorf("Panel() has no rounded border: %q", out)
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	var th Theme
	out, err := th.RenderMarkdown("# History\n\n| date | grade |\n|---|---|\n| 2025-03-01 | A |\n", 60)
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	if !strings.Contains(out, "History") || !strings.Contains(out, "2025-03-01") {
		t.Errorf("RenderMarkdown() = %q", out)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a|b\nc"); got != `a\|b c` {
		t.Errorf("EscapeMarkdown() = %q", got)
	}
}
