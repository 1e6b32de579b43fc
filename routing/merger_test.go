package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSet(assignees ...string) map[string]bool {
	valid := make(map[string]bool, len(assignees))
	for _, a := range assignees {
		valid[a] = true
	}
	return valid
}

func TestMerge_LowConfidenceLeavesRulesUnchanged(t *testing.T) {
	rules := []string{"sales-team", "logistics-team"}
	valid := validSet("sales-team", "logistics-team", "Adnan")

	assert.Equal(t, rules, Merge(rules, []string{"Adnan"}, 0.8, valid))
	assert.Equal(t, rules, Merge(rules, []string{"Adnan"}, 0.5, valid))
	assert.Equal(t, rules, Merge(rules, []string{"Adnan"}, 0, valid))
}

func TestMerge_EmptyAdvisorListLeavesRulesUnchanged(t *testing.T) {
	rules := []string{"sales-team"}
	assert.Equal(t, rules, Merge(rules, nil, 0.95, validSet("sales-team")))
}

func TestMerge_HighConfidenceAdvisorPickLeads(t *testing.T) {
	valid := validSet("sales-team", "Adnan")

	merged := Merge([]string{"sales-team"}, []string{"Adnan", "sales-team"}, 0.9, valid)
	assert.Equal(t, []string{"Adnan", "sales-team"}, merged)
}

func TestMerge_RuleAssigneesNeverDropped(t *testing.T) {
	valid := validSet("Adnan")

	merged := Merge([]string{"compliance-desk", "sales-team"}, []string{"Adnan"}, 0.99, valid)
	assert.Equal(t, []string{"Adnan", "compliance-desk", "sales-team"}, merged)
}

func TestMerge_InvalidFirstSuggestionSkipped(t *testing.T) {
	valid := validSet("sales-team")

	merged := Merge([]string{"sales-team"}, []string{"rogue-queue", "sales-team"}, 0.95, valid)
	assert.Equal(t, []string{"sales-team"}, merged)
}

func TestMerge_RemainingValidSuggestionsTrail(t *testing.T) {
	valid := validSet("Adnan", "logistics-team", "sales-team")

	merged := Merge([]string{"sales-team"}, []string{"Adnan", "logistics-team", "bogus"}, 0.85, valid)
	assert.Equal(t, []string{"Adnan", "sales-team", "logistics-team"}, merged)
}

func TestMerge_NoDuplicates(t *testing.T) {
	valid := validSet("sales-team", "Adnan")

	merged := Merge(
		[]string{"sales-team", "sales-team"},
		[]string{"Adnan", "sales-team", "Adnan"},
		0.9,
		valid,
	)
	seen := map[string]int{}
	for _, a := range merged {
		seen[a]++
	}
	for assignee, count := range seen {
		assert.Equalf(t, 1, count, "assignee %s appears %d times", assignee, count)
	}
	assert.Equal(t, []string{"Adnan", "sales-team"}, merged)
}

func TestMerge_EmptyResultFallsBackToDefaultQueue(t *testing.T) {
	// Nothing valid on either side: the decision still has an owner.
	merged := Merge(nil, []string{"rogue"}, 0.9, validSet())
	assert.Equal(t, []string{DefaultQueue}, merged)
}

func TestMerge_Deterministic(t *testing.T) {
	valid := validSet("Adnan", "sales-team", "logistics-team")
	rules := []string{"sales-team", "logistics-team"}
	advisor := []string{"Adnan", "logistics-team"}

	first := Merge(rules, advisor, 0.9, valid)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Merge(rules, advisor, 0.9, valid))
	}
}
