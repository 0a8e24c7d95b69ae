// internal/intake/signals/signals.go

// Package signals holds the lightweight boolean classifiers that drive the
// conversation state machine. Each classifier is a pure function of its
// input text so behavior stays deterministic and testable.
package signals

import (
	"strings"

	"intake-workers/internal/models"
)

// Summary response fragments. The orchestrator builds the matter summary
// from these, and SummaryAlreadyShown detects them in prior assistant
// messages; reading state back out of the transcript means there is no
// session store to keep in sync.
const (
	SummaryIntro         = "Here is a summary of your matter:"
	SummaryConfirmPrompt = "Shall I submit this to our legal team?"
)

// affirmatives is an exact-match set. Substring matching is wrong here
// because "yes, but not about that" must not read as confirmation.
var affirmatives = map[string]struct{}{
	"yes":        {},
	"sure":       {},
	"ok":         {},
	"okay":       {},
	"yeah":       {},
	"yep":        {},
	"absolutely": {},
	"definitely": {},
}

var frustrationPhrases = []string{
	"you just did",
	"why do you keep asking",
	"i already told you",
	"i just told you",
	"you already asked",
	"stop asking",
	"asked me that already",
	"i just said",
}

var schedulingPhrases = []string{
	"what time",
	"when can",
	"appointment",
	"schedule",
	"availability",
	"available",
	"book a",
	"calendar",
	"time slot",
	"office hours",
}

// IsAffirmative reports whether the message, whitespace-trimmed and
// lowercased, is exactly one of the known confirmation words.
func IsAffirmative(message string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(message))]
	return ok
}

// IsFrustrated reports whether the message contains a phrase that signals
// the client is annoyed at repeated questions.
func IsFrustrated(message string) bool {
	return containsAny(message, frustrationPhrases)
}

// IsSchedulingQuestion reports whether the message asks about appointment
// times or availability.
func IsSchedulingQuestion(message string) bool {
	return containsAny(message, schedulingPhrases)
}

// SummaryAlreadyShown scans assistant messages for the summary fragments so
// the summary is presented at most once per conversation.
func SummaryAlreadyShown(transcript []models.Message) bool {
	intro := strings.ToLower(SummaryIntro)
	prompt := strings.ToLower(SummaryConfirmPrompt)
	for _, msg := range transcript {
		if msg.Role != models.RoleAssistant {
			continue
		}
		lower := strings.ToLower(msg.Content)
		if strings.Contains(lower, intro) || strings.Contains(lower, prompt) {
			return true
		}
	}
	return false
}

func containsAny(message string, phrases []string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
