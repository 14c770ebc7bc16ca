package analysis

import "github.com/meetlens/meetlens/pkg/transcript"

// Result aggregates every analysis dimension for one meeting.
type Result struct {
	Keywords            []string                         `json:"keywords"`
	ActionItems         []string                         `json:"actionItems"`
	Decisions           []string                         `json:"decisions"`
	Topics              []Topic                          `json:"topics"`
	UnansweredQuestions []UnansweredQuestion             `json:"unansweredQuestions"`
	Interruptions       []Interruption                   `json:"interruptions"`
	Graph               RelationshipGraph                `json:"relationshipGraph"`
	Summary             SummaryResult                    `json:"summary"`
	OverallSentiment    SentimentResult                  `json:"overallSentiment"`
	Participation       []transcript.ParticipationMetric `json:"participation"`
}
