package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	text := "The migration plan depends on the database schema. The database schema " +
		"changes and the migration plan were reviewed by Acme Corporation. " +
		"Database performance matters for the migration."

	keywords := ExtractKeywords(text)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 20)
	assert.Contains(t, keywords, "database")
	assert.Contains(t, keywords, "migration")
	assert.Contains(t, keywords, "Acme Corporation")
	assert.NotContains(t, keywords, "the")
}

func TestExtractKeywordsEmpty(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
}

func TestExtractActionItems(t *testing.T) {
	text := "We will update the deployment scripts before Friday. " +
		"Action item: review the security audit findings this week. " +
		"Let's schedule the retrospective for next Monday. " +
		"The weather was nice yesterday."

	items := ExtractActionItems(text)
	require.NotEmpty(t, items)
	assert.LessOrEqual(t, len(items), 30)

	joined := strings.ToLower(strings.Join(items, " | "))
	assert.Contains(t, joined, "update the deployment scripts")
	assert.Contains(t, joined, "review the security audit findings")
	assert.NotContains(t, joined, "weather")
}

func TestExtractActionItemsLengthBounds(t *testing.T) {
	// Too short after the modal verb to be a useful item.
	items := ExtractActionItems("We will go.")
	assert.Empty(t, items)
}

func TestIdentifyDecisions(t *testing.T) {
	text := "After a long debate we decided to adopt the new billing system. " +
		"The final decision is to freeze hiring until the next quarter. " +
		"Someone mentioned lunch plans."

	decisions := IdentifyDecisions(text)
	require.NotEmpty(t, decisions)
	assert.LessOrEqual(t, len(decisions), 20)

	joined := strings.ToLower(strings.Join(decisions, " | "))
	assert.Contains(t, joined, "adopt the new billing system")
	assert.Contains(t, joined, "freeze hiring")
	assert.NotContains(t, joined, "lunch")
}

func TestIdentifyDecisionsStripsLeadingPreposition(t *testing.T) {
	decisions := IdentifyDecisions("We agreed to migrate the legacy service in March.")
	require.NotEmpty(t, decisions)
	assert.False(t, strings.HasPrefix(strings.ToLower(decisions[0]), "to "))
}

func TestIdentifyDecisionsDeduplicates(t *testing.T) {
	text := "We decided to ship the beta on Monday. We decided to ship the beta on Monday."
	decisions := IdentifyDecisions(text)

	seen := make(map[string]int)
	for _, d := range decisions {
		seen[strings.ToLower(d)]++
	}
	for d, n := range seen {
		assert.Equal(t, 1, n, "duplicate decision %q", d)
	}
}
