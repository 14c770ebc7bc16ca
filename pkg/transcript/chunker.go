package transcript

import (
	"fmt"
	"strings"
)

// ChunkEntries splits a finalized transcript into overlapping analysis
// chunks. The overlap exists only to give analyzers cross-boundary
// context; downstream merges must reduce it back out. The final chunk's
// end index always equals len(entries).
func ChunkEntries(entries []Entry, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	if len(entries) <= chunkSize {
		return []Chunk{{
			Entries:    entries,
			StartIndex: 0,
			EndIndex:   len(entries),
		}}
	}

	var chunks []Chunk
	start := 0
	for start < len(entries) {
		end := start + chunkSize
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, Chunk{
			Entries:    entries[start:end],
			StartIndex: start,
			EndIndex:   end,
		})
		if end == len(entries) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// BuildEntries converts a merged utterance timeline into transcript
// entries, tagging each with per-line sentiment. The scorer is injected so
// this package stays free of analyzer dependencies.
func BuildEntries(utterances []Utterance, score func(text string) string) []Entry {
	entries := make([]Entry, 0, len(utterances))
	for i, u := range utterances {
		sentiment := "Neutral"
		if score != nil {
			sentiment = score(u.Text)
		}
		ts := ""
		if u.StartSec != nil {
			ts = FormatTimestamp(*u.StartSec)
		}
		entries = append(entries, Entry{
			ID:        i + 1,
			Speaker:   fmt.Sprintf("speaker-%d", u.Speaker),
			Label:     fmt.Sprintf("Speaker %d", u.Speaker+1),
			Text:      u.Text,
			Sentiment: sentiment,
			Emotion:   emotionFor(sentiment),
			Timestamp: ts,
			StartSec:  u.StartSec,
			EndSec:    u.EndSec,
		})
	}
	return entries
}

// emotionFor maps coarse sentiment onto a default emotion tag. A text
// generation provider may overwrite this with a finer classification.
func emotionFor(sentiment string) string {
	switch sentiment {
	case "Positive":
		return "engaged"
	case "Negative":
		return "frustrated"
	default:
		return "calm"
	}
}

// Participation computes per-speaker speaking time and word counts from
// the merged timeline.
func Participation(entries []Entry) []ParticipationMetric {
	order := make([]string, 0)
	byID := make(map[string]*ParticipationMetric)

	for _, e := range entries {
		m, ok := byID[e.Speaker]
		if !ok {
			m = &ParticipationMetric{Speaker: e.Speaker, Label: e.Label}
			byID[e.Speaker] = m
			order = append(order, e.Speaker)
		}
		if e.StartSec != nil && e.EndSec != nil && *e.EndSec > *e.StartSec {
			m.SpeakingTime += *e.EndSec - *e.StartSec
		}
		m.WordCount += len(strings.Fields(e.Text))
	}

	out := make([]ParticipationMetric, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
