package analysis

import (
	"regexp"
	"strings"

	"github.com/meetlens/meetlens/pkg/transcript"
)

const (
	maxInterruptions      = 50
	interruptionOverlap   = 0.3
	interruptionTextLimit = 100
)

// Interruption records one speaker cutting another off.
type Interruption struct {
	Interrupter string `json:"interrupter"`
	Interrupted string `json:"interrupted"`
	Timestamp   string `json:"timestamp"`
	Text        string `json:"text"`
}

var endsWithPunctuationRe = regexp.MustCompile(`[.!?]$`)

var interruptionIndicators = []string{
	"but ", "wait ", "hold on", "no ", "actually ", "however ",
	"excuse me", "sorry ", "let me ", "i think ", "well ",
}

// DetectInterruptions flags speaker changes where the new speaker
// starts more than 0.3s before the previous one finishes. Without
// timing data it falls back to a punctuation and phrasing heuristic.
// Capped at 50.
func DetectInterruptions(entries []transcript.Entry) []Interruption {
	var interruptions []Interruption

	for i := 1; i < len(entries); i++ {
		current := entries[i]
		previous := entries[i-1]

		if current.Speaker == previous.Speaker {
			continue
		}

		interrupted := false
		if current.StartSec != nil && previous.EndSec != nil {
			interrupted = *previous.EndSec-*current.StartSec > interruptionOverlap
		} else {
			prevText := strings.TrimSpace(previous.Text)
			currText := strings.ToLower(strings.TrimSpace(current.Text))
			abrupt := false
			for _, indicator := range interruptionIndicators {
				if strings.HasPrefix(currText, indicator) {
					abrupt = true
					break
				}
			}
			interrupted = !endsWithPunctuationRe.MatchString(prevText) && abrupt
		}

		if interrupted {
			interruptions = append(interruptions, Interruption{
				Interrupter: current.Label,
				Interrupted: previous.Label,
				Timestamp:   current.Timestamp,
				Text:        truncate(current.Text, interruptionTextLimit),
			})
		}
	}

	if len(interruptions) > maxInterruptions {
		interruptions = interruptions[:maxInterruptions]
	}
	return interruptions
}
