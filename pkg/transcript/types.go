// Package transcript defines the diarized-transcript data model and the
// merge/chunk operations that turn per-segment transcription results into
// analysis-ready entries.
package transcript

import "fmt"

// Utterance is one speaker turn as produced by the transcription
// collaborator. Speaker is segment-local until remapped by Merge.
type Utterance struct {
	Speaker  int      `json:"speaker"`
	Text     string   `json:"text"`
	StartSec *float64 `json:"startSec,omitempty"`
	EndSec   *float64 `json:"endSec,omitempty"`
}

// DiarizationResult is the payload returned by a transcription collaborator.
type DiarizationResult struct {
	Utterances  []Utterance `json:"utterances"`
	DurationSec float64     `json:"durationSec,omitempty"`
}

// SegmentResult pairs a media segment with its transcription output.
type SegmentResult struct {
	SegmentIndex int
	StartTime    float64
	Result       DiarizationResult
}

// Entry is one line of the finalized transcript. Immutable once analysis
// begins.
type Entry struct {
	ID        int      `json:"id"`
	Speaker   string   `json:"speaker"`
	Label     string   `json:"label"`
	Text      string   `json:"text"`
	Sentiment string   `json:"sentiment"`
	Emotion   string   `json:"emotion"`
	Timestamp string   `json:"timestamp"`
	StartSec  *float64 `json:"startSec,omitempty"`
	EndSec    *float64 `json:"endSec,omitempty"`
}

// Chunk is an overlapping window of transcript entries sized for one
// analysis call. StartIndex/EndIndex are [start, end) over the full
// transcript.
type Chunk struct {
	Entries    []Entry
	StartIndex int
	EndIndex   int
}

// Text renders the chunk as "Label: text" lines for text-level analyzers.
func (c Chunk) Text() string {
	out := ""
	for i, e := range c.Entries {
		if i > 0 {
			out += "\n"
		}
		out += e.Label + ": " + e.Text
	}
	return out
}

// ParticipationMetric summarizes one speaker's share of the meeting.
type ParticipationMetric struct {
	Speaker      string  `json:"speaker"`
	Label        string  `json:"label"`
	SpeakingTime float64 `json:"speakingTime"`
	WordCount    int     `json:"wordCount"`
}

// FormatTimestamp renders seconds as mm:ss.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// Float64 returns a pointer to v. Convenience for optional timing fields.
func Float64(v float64) *float64 { return &v }
