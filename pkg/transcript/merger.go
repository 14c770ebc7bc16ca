package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// Overlap dedup parameters: utterances from adjacent segments are
// considered the same turn when they share a global speaker, land in the
// same 5-second start bucket, and agree on the first 50 characters.
const (
	dedupeBucketSec = 5
	dedupePrefixLen = 50
)

// Merge reassembles per-segment diarized utterances into one global
// timeline. Segment-local speaker ids are remapped to global ids using a
// count-continuity heuristic: when adjacent segments contain the same
// number of distinct speakers they are mapped positionally by sorted
// local id. The heuristic has no correction path when speaker counts
// differ across a boundary; such speakers receive fresh global ids.
func Merge(segmentResults []SegmentResult) DiarizationResult {
	sorted := make([]SegmentResult, len(segmentResults))
	copy(sorted, segmentResults)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SegmentIndex < sorted[j].SegmentIndex })

	speakerMap := buildSpeakerMap(sorted)

	var merged []Utterance
	for _, seg := range sorted {
		for _, u := range seg.Result.Utterances {
			adjusted := Utterance{
				Speaker: u.Speaker,
				Text:    u.Text,
			}
			if global, ok := speakerMap[localKey(seg.SegmentIndex, u.Speaker)]; ok {
				adjusted.Speaker = global
			}
			if u.StartSec != nil {
				adjusted.StartSec = Float64(*u.StartSec + seg.StartTime)
			}
			if u.EndSec != nil {
				adjusted.EndSec = Float64(*u.EndSec + seg.StartTime)
			}
			merged = append(merged, adjusted)
		}
	}

	return DiarizationResult{Utterances: deduplicateOverlaps(merged)}
}

func localKey(segmentIndex, localSpeaker int) string {
	return fmt.Sprintf("%d-%d", segmentIndex, localSpeaker)
}

// buildSpeakerMap maps segment-local speaker ids to global ids.
func buildSpeakerMap(segments []SegmentResult) map[string]int {
	speakerMap := make(map[string]int)
	nextGlobal := 0

	if len(segments) == 0 {
		return speakerMap
	}

	for _, local := range distinctSpeakers(segments[0]) {
		speakerMap[localKey(segments[0].SegmentIndex, local)] = nextGlobal
		nextGlobal++
	}

	for i := 1; i < len(segments); i++ {
		current := distinctSpeakers(segments[i])
		previous := distinctSpeakers(segments[i-1])

		if len(current) == len(previous) {
			// Same speaker count: assume continuity, map positionally.
			for j := range current {
				prevKey := localKey(segments[i-1].SegmentIndex, previous[j])
				if global, ok := speakerMap[prevKey]; ok {
					speakerMap[localKey(segments[i].SegmentIndex, current[j])] = global
				}
			}
		}

		for _, local := range current {
			key := localKey(segments[i].SegmentIndex, local)
			if _, ok := speakerMap[key]; !ok {
				speakerMap[key] = nextGlobal
				nextGlobal++
			}
		}
	}

	return speakerMap
}

func distinctSpeakers(seg SegmentResult) []int {
	seen := make(map[int]bool)
	var out []int
	for _, u := range seg.Result.Utterances {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			out = append(out, u.Speaker)
		}
	}
	sort.Ints(out)
	return out
}

// deduplicateOverlaps removes duplicate utterances arising from segment
// overlap regions, keeping the longer text when two collide. Utterances
// without timing are keyed only by speaker and text prefix.
func deduplicateOverlaps(utterances []Utterance) []Utterance {
	if len(utterances) == 0 {
		return nil
	}

	var result []Utterance
	index := make(map[string]int)

	for _, u := range utterances {
		key := fingerprintKey(u)
		if at, ok := index[key]; ok {
			if len(u.Text) > len(result[at].Text) {
				result[at] = u
			}
			continue
		}
		index[key] = len(result)
		result = append(result, u)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return startOrZero(result[i]) < startOrZero(result[j])
	})
	return result
}

func fingerprintKey(u Utterance) string {
	bucket := -1
	if u.StartSec != nil {
		bucket = int(*u.StartSec) / dedupeBucketSec
	}
	prefix := u.Text
	if len(prefix) > dedupePrefixLen {
		prefix = prefix[:dedupePrefixLen]
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	return fmt.Sprintf("%d|%d|%s", u.Speaker, bucket, prefix)
}

func startOrZero(u Utterance) float64 {
	if u.StartSec != nil {
		return *u.StartSec
	}
	return 0
}
