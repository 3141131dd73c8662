package session

import (
	"slices"
	"strings"
)

// stopIntents end the logging part of a session and ask for the evaluation.
var stopIntents = []string{"그만", "완료", "stop", "exit", "cancel", "done", "evaluate", "finish"}

// StopIntents returns the stop-intent vocabulary.
func StopIntents() []string {
	return slices.Clone(stopIntents)
}

// IsStopIntent reports whether text, trimmed and lower-cased, is exactly one
// of the stop intents.
func IsStopIntent(text string) bool {
	return slices.Contains(stopIntents, strings.ToLower(strings.TrimSpace(text)))
}
