package session

import (
	"fmt"
	"strings"

	"github.com/nutrilens/nlens/internal/api"
)

const (
	failureText           = "❌ Failed to process your input. Please try again."
	evaluationFailureText = "Failed to evaluate your daily nutrition."
	guidanceText          = "📸 Please upload at least one image for analysis."
)

// FormatEvaluation builds the summary message shown when a session stops.
func FormatEvaluation(ev *api.Evaluation) string {
	sections := []struct {
		label  string
		score  int
		reason string
		advice string
	}{
		{"Macro", ev.ScoreMacro, ev.ReasonMacro, ev.AdviceMacro},
		{"Disease", ev.ScoreDisease, ev.ReasonDisease, ev.AdviceDisease},
		{"Goal", ev.ScoreGoal, ev.ReasonGoal, ev.AdviceGoal},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today's evaluation score: %s", ev.Grade)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n\n✅ %s (%d/10): %s\n💡 Improvement Tips: %s", s.label, s.score, s.reason, s.advice)
	}
	return b.String()
}

func textAck(recorded string) string {
	return "✨ Recorded: " + recorded
}

func imageAck(count int, refs []string, recorded string) string {
	return fmt.Sprintf("📸 Saved %d image(s): %s\n✨ Recorded: %s", count, strings.Join(refs, ", "), recorded)
}

func combinedAck(refs []string, recorded string) string {
	names := strings.Join(refs, ", ")
	if names == "" {
		names = "no images"
	}
	return fmt.Sprintf("🔬 Hybrid ingested!\n🖼 %s\n📝 %s", names, recorded)
}

func attachmentPlaceholder(n int) string {
	return fmt.Sprintf("[%d image(s) uploaded]", n)
}
