package analysis

import (
	"regexp"
	"strings"
)

const (
	maxActionItems    = 30
	actionMinLen      = 15
	actionMaxLen      = 200
	explicitMinLen    = 10
)

// actionVerbs is the curated vocabulary a clause must contain to count as
// a task.
var actionVerbs = []string{
	"complete", "finish", "send", "email", "call", "contact", "reach out",
	"review", "check", "verify", "confirm", "validate", "test",
	"prepare", "create", "make", "build", "develop", "write",
	"schedule", "arrange", "organize", "plan", "coordinate",
	"follow up", "follow-up", "update", "inform", "notify",
	"submit", "deliver", "provide", "share", "distribute",
	"analyze", "investigate", "research", "explore", "study",
	"implement", "execute", "deploy", "launch", "release",
	"fix", "resolve", "address", "handle", "manage",
}

var (
	modalClauseRe    = regexp.MustCompile(`(?i)(will|should|must|need to|needs to|has to|have to|going to)\s+([^.!?\n]+)`)
	explicitMarkerRe = regexp.MustCompile(`(?i)(action item|todo|task|assignment|to-do):\s*([^.!?\n]+)`)
	collectiveRe     = regexp.MustCompile(`(?i)(let's|let us|we need to|we should|we must|we have to)\s+([^.!?\n]+)`)
	deadlineRe       = regexp.MustCompile(`(?i)\b(by|before|until|due)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|next week|end of|eod|eow)`)
)

// ExtractActionItems finds task commitments in a transcript: modal-verb
// clauses, explicit action markers, collective "let's" statements, and
// deadline-adjacent sentences, each filtered through the action-verb
// vocabulary. Capped at 30 items.
func ExtractActionItems(text string) []string {
	seen := make(map[string]bool)
	var items []string

	add := func(item string) {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			return
		}
		seen[key] = true
		items = append(items, item)
	}

	// Modal-verb clauses containing an action verb.
	for _, m := range modalClauseRe.FindAllString(text, -1) {
		if hasActionVerb(m) && len(m) > actionMinLen && len(m) < actionMaxLen {
			add(m)
		}
	}

	// Explicit markers need no verb check; the marker is the signal.
	for _, m := range explicitMarkerRe.FindAllStringSubmatch(text, -1) {
		item := strings.TrimSpace(m[2])
		if len(item) > explicitMinLen {
			add(item)
		}
	}

	// Collective commitments.
	for _, m := range collectiveRe.FindAllString(text, -1) {
		if hasActionVerb(m) && len(m) > actionMinLen && len(m) < actionMaxLen {
			add(m)
		}
	}

	// Sentences anchored to a deadline.
	for _, sentence := range splitSentences(text) {
		if deadlineRe.MatchString(sentence) && hasActionVerb(sentence) &&
			len(sentence) > actionMinLen && len(sentence) < actionMaxLen {
			add(sentence)
		}
	}

	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}
	return items
}

func hasActionVerb(text string) bool {
	lower := strings.ToLower(text)
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
