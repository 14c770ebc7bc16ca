package analysis

import (
	"regexp"
	"strings"
)

const (
	maxDecisions       = 20
	decisionMinLen     = 10
	decisionMaxLen     = 300
	fallbackMinLen     = 20
)

// decisionPatterns are the cue regexes; the first capture group, when
// present, is the decision text.
var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:we|team|group|everyone|all)\s+(?:decided|agreed|concluded|determined|resolved)\s+(?:to|that|on)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:decision|conclusion|resolution)(?:\s+is|\s+was|:)\s*([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:it was|it's|it is)\s+(?:decided|agreed|concluded|determined)\s+(?:to|that)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:final|ultimate|official)\s+(?:decision|conclusion|verdict|call)\s+(?:is|was|:)\s*([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:consensus|agreement)\s+(?:is|was|reached)\s+(?:to|that|on)?\s*([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:we're|we are|we will be)\s+(?:going with|moving forward with|proceeding with|choosing|selecting)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:let's|let us)\s+(?:go with|move forward with|proceed with|choose|select)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:approved|rejected|accepted|denied|greenlit|authorized)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:we'll|we will)\s+(?:implement|adopt|use|follow|pursue|execute)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)(?:agreed on|settled on|committed to)\s+([^.!?\n]+)`),
}

var (
	leadingPrepositionRe = regexp.MustCompile(`(?i)^(to|that|on)\s+`)
	whitespaceRe         = regexp.MustCompile(`\s+`)
	auxiliaryLeadRe      = regexp.MustCompile(`(?i)^(is|was|are|were|be|been)\b`)
	strongIndicatorRe    = regexp.MustCompile(`\b(decided|agreed|concluded|approved|rejected|consensus|final decision|official decision)\b`)
)

// IdentifyDecisions extracts decisions via cue patterns plus a
// sentence-level fallback on strong decision keywords. Capped at 20.
func IdentifyDecisions(text string) []string {
	seen := make(map[string]bool)
	var decisions []string

	add := func(d string) {
		key := strings.ToLower(strings.TrimSpace(d))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		decisions = append(decisions, strings.TrimSpace(d))
	}

	for _, pattern := range decisionPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			decision := m[0]
			if len(m) > 1 && m[1] != "" {
				decision = m[1]
			}
			decision = cleanDecision(decision)

			if len(decision) > decisionMinLen && len(decision) < decisionMaxLen &&
				!strings.HasPrefix(strings.ToLower(decision), "we ") &&
				!strings.HasPrefix(strings.ToLower(decision), "team ") &&
				!auxiliaryLeadRe.MatchString(decision) {
				add(decision)
			}
		}
	}

	// Fallback: whole sentences carrying a strong decision keyword.
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		trimmed := strings.TrimSpace(sentence)
		if strongIndicatorRe.MatchString(strings.ToLower(trimmed)) &&
			len(trimmed) > fallbackMinLen && len(trimmed) < decisionMaxLen {
			add(trimmed)
		}
	}

	if len(decisions) > maxDecisions {
		decisions = decisions[:maxDecisions]
	}
	return decisions
}

func cleanDecision(decision string) string {
	decision = leadingPrepositionRe.ReplaceAllString(strings.TrimSpace(decision), "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(decision, " "))
}
