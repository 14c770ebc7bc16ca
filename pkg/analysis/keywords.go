package analysis

import (
	"regexp"
	"sort"
	"strings"
)

const (
	topFrequentWords = 15
	topFrequentNouns = 10
	maxKeywords      = 20
)

// capitalizedRunRe matches runs of capitalized words mid-text, the usual
// shape of person, organization, and place mentions in a transcript.
var capitalizedRunRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// ExtractKeywords ranks a transcript's most important terms: the top 15
// stop-word-filtered words by frequency, unioned with named-entity
// candidates and frequent longer nouns, capped at 20. Frequency is
// computed over the single input text; there is no external corpus.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			return
		}
		seen[strings.ToLower(k)] = true
		keywords = append(keywords, k)
	}

	// Term-frequency ranking over the stop-word-filtered token stream.
	for _, w := range topByFrequency(filterStopwords(tokenize(text, 2)), topFrequentWords) {
		add(w)
	}

	// Entity candidates: capitalized multi-word runs.
	for _, m := range capitalizedRunRe.FindAllString(text, -1) {
		if len(m) > 2 {
			add(m)
		}
	}

	// Frequent longer nouns (words above 3 chars), top 10.
	for _, w := range topByFrequency(filterStopwords(tokenize(text, 3)), topFrequentNouns) {
		add(w)
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

func filterStopwords(words []string) []string {
	var out []string
	for _, w := range words {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// topByFrequency returns the n most frequent words, ties broken by first
// appearance so the ranking is deterministic.
func topByFrequency(words []string, n int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range words {
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	unique := make([]string, 0, len(counts))
	for w := range counts {
		unique = append(unique, w)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return firstSeen[unique[i]] < firstSeen[unique[j]]
	})

	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}
