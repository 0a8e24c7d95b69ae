// internal/intake/extractor/extractor.go

// Package extractor mines client information out of a conversation
// transcript. Extraction is a pure function of the transcript: the same
// messages always produce the same profile, and nothing is persisted
// between turns.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"intake-workers/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)

	namePrefixPattern = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|this is)\s+([a-zA-Z]+\s+[a-zA-Z]+)`)
	bareNamePattern   = regexp.MustCompile(`^[A-Za-z]+\s+[A-Za-z]+$`)
)

// nameStoplist holds two-word phrases that look like names but are common
// conversational filler.
var nameStoplist = map[string]struct{}{
	"thank you":      {},
	"i understand":   {},
	"sounds good":    {},
	"not sure":       {},
	"of course":      {},
	"no problem":     {},
	"got it":         {},
	"see you":        {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"please help":    {},
	"help me":        {},
	"not yet":        {},
	"no thanks":      {},
}

// matterKeywords maps indicator substrings to matter categories. The table
// order is only a lookup order; output order follows first encounter in the
// transcript so results stay deterministic.
var matterKeywords = []struct {
	keyword  string
	category string
}{
	{"divorce", "divorce"},
	{"custody", "child custody"},
	{"alimony", "alimony"},
	{"fired", "employment termination"},
	{"terminated", "employment termination"},
	{"laid off", "employment termination"},
	{"harass", "harassment"},
	{"discriminat", "discrimination"},
	{"accident", "personal injury"},
	{"injur", "personal injury"},
	{"slip and fall", "personal injury"},
	{"landlord", "landlord-tenant dispute"},
	{"evict", "eviction"},
	{"contract", "contract dispute"},
	{"arrest", "criminal defense"},
	{"dui", "DUI"},
	{"estate", "estate planning"},
	{"inheritance", "inheritance dispute"},
}

// opposingPatterns is a prioritized list of pattern classes; the first
// matching class wins and multiple opposing parties are never aggregated.
var opposingPatterns = []struct {
	class   string
	pattern *regexp.Regexp
	// capture reports whether the match itself names the party; otherwise
	// label is returned.
	capture bool
	label   string
}{
	{"explicit_spouse", regexp.MustCompile(`(?i)\bmy\s+(ex[\s\-]?husband|ex[\s\-]?wife|husband|wife|spouse|partner)\b`), true, ""},
	{"generic_spouse", regexp.MustCompile(`(?i)\b(husband|wife|spouse)\b`), false, "spouse"},
	{"explicit_party", regexp.MustCompile(`(?i)\bmy\s+(employer|boss|manager|company|landlord|neighbor|business partner|contractor)\b`), true, ""},
	{"generic_party", regexp.MustCompile(`(?i)\b(employer|landlord|neighbor|contractor)\b`), false, ""},
}

// Extract recomputes the client profile from the full transcript. It never
// fails; missing fields are empty strings.
func Extract(transcript []models.Message) models.ExtractedProfile {
	full := models.TranscriptText(transcript)

	return models.ExtractedProfile{
		Name:              extractName(transcript),
		Email:             lastMatch(emailPattern, full),
		Phone:             lastMatch(phonePattern, full),
		MatterDescription: extractMatterDescription(full),
		OpposingParty:     extractOpposingParty(models.UserText(transcript)),
	}
}

// LooksLikeContactInfo reports whether the text contains an email address
// or a phone number.
func LooksLikeContactInfo(text string) bool {
	return emailPattern.MatchString(text) || phonePattern.MatchString(text)
}

// extractName scans user-authored messages most recent first, so a
// correction supersedes an earlier statement.
func extractName(transcript []models.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role != models.RoleUser {
			continue
		}
		if name := nameFromText(transcript[i].Content); name != "" {
			return name
		}
	}
	return ""
}

func nameFromText(text string) string {
	if m := namePrefixPattern.FindStringSubmatch(text); m != nil {
		return titleCase(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimRight(strings.TrimSpace(line), ".!,")
		if !bareNamePattern.MatchString(candidate) {
			continue
		}
		if _, stopped := nameStoplist[strings.ToLower(candidate)]; stopped {
			continue
		}
		return titleCase(candidate)
	}
	return ""
}

func titleCase(s string) string {
	parts := strings.Fields(strings.ToLower(s))
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// lastMatch returns the final occurrence so the most recent disclosure
// supersedes earlier ones.
func lastMatch(re *regexp.Regexp, text string) string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// extractMatterDescription concatenates every category whose keyword appears
// in the transcript, ordered by where each category is first mentioned.
func extractMatterDescription(full string) string {
	lower := strings.ToLower(full)

	type hit struct {
		index    int
		category string
	}
	earliest := map[string]int{}
	for _, entry := range matterKeywords {
		idx := strings.Index(lower, entry.keyword)
		if idx < 0 {
			continue
		}
		if prev, ok := earliest[entry.category]; !ok || idx < prev {
			earliest[entry.category] = idx
		}
	}

	hits := make([]hit, 0, len(earliest))
	for category, idx := range earliest {
		hits = append(hits, hit{index: idx, category: category})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	categories := make([]string, 0, len(hits))
	for _, h := range hits {
		categories = append(categories, h.category)
	}
	return strings.Join(categories, ", ")
}

func extractOpposingParty(userText string) string {
	for _, op := range opposingPatterns {
		m := op.pattern.FindStringSubmatch(userText)
		if m == nil {
			continue
		}
		if op.capture || op.label == "" {
			return normalizeParty(m[1])
		}
		return op.label
	}
	return ""
}

func normalizeParty(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ex ", "ex-")
	return s
}
