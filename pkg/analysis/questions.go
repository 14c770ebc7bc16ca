package analysis

import (
	"regexp"
	"strings"

	"github.com/meetlens/meetlens/pkg/transcript"
)

const (
	maxUnansweredQuestions = 20
	answerLookahead        = 4
)

// UnansweredQuestion is a question no other speaker responded to.
type UnansweredQuestion struct {
	Question  string `json:"question"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}

var (
	questionWordRe = regexp.MustCompile(`(?i)\b(what|when|where|who|why|how|which|can|could|would|should|will|is|are|do|does|did)\b`)

	directAnswerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(yes|no|sure|okay|right|correct|exactly|absolutely|definitely|probably|maybe|perhaps)`),
		regexp.MustCompile(`(?i)^(i think|i believe|i would say|in my opinion)`),
		regexp.MustCompile(`(?i)^(the answer is|it('s| is)|that('s| is))`),
		regexp.MustCompile(`(?i)^(because|since|due to)`),
	}

	acknowledgmentRe = regexp.MustCompile(`(?i)^(okay|ok|alright|got it|understood|noted|thanks|thank you)$`)

	rhetoricalTails = []*regexp.Regexp{
		regexp.MustCompile(`(?i)right\?$`),
		regexp.MustCompile(`(?i)isn't it\?$`),
		regexp.MustCompile(`(?i)don't you think\?$`),
		regexp.MustCompile(`(?i)you know\?$`),
		regexp.MustCompile(`(?i)correct\?$`),
	}
)

// DetectUnansweredQuestions scans each question for a response from a
// different speaker within the next four utterances. Rhetorical
// questions and bare acknowledgments do not count. Capped at 20.
func DetectUnansweredQuestions(entries []transcript.Entry) []UnansweredQuestion {
	var unanswered []UnansweredQuestion

	for i, entry := range entries {
		if !looksLikeQuestion(entry.Text) {
			continue
		}
		if answeredWithin(entries, i) {
			continue
		}
		if isRhetorical(entry.Text) {
			continue
		}
		unanswered = append(unanswered, UnansweredQuestion{
			Question:  strings.TrimSpace(entry.Text),
			Speaker:   entry.Label,
			Timestamp: entry.Timestamp,
		})
	}

	if len(unanswered) > maxUnansweredQuestions {
		unanswered = unanswered[:maxUnansweredQuestions]
	}
	return unanswered
}

func looksLikeQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	head := text
	if len(head) > 50 {
		head = head[:50]
	}
	return questionWordRe.MatchString(head)
}

func answeredWithin(entries []transcript.Entry, questionIdx int) bool {
	question := entries[questionIdx]
	end := questionIdx + 1 + answerLookahead
	if end > len(entries) {
		end = len(entries)
	}

	for j := questionIdx + 1; j < end; j++ {
		response := entries[j]
		if response.Speaker == question.Speaker {
			continue
		}

		text := strings.ToLower(response.Text)
		direct := false
		for _, pattern := range directAnswerPatterns {
			if pattern.MatchString(text) {
				direct = true
				break
			}
		}
		substantive := len(strings.Fields(response.Text)) > 5
		acknowledgment := acknowledgmentRe.MatchString(strings.TrimSpace(text))

		if (direct || substantive) && !acknowledgment {
			return true
		}
	}
	return false
}

func isRhetorical(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, pattern := range rhetoricalTails {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
