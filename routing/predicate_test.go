package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTicket() *TicketContext {
	return &TicketContext{
		TicketUID:     "t-1",
		RequestType:   RequestTypeQuote,
		Priority:      PriorityHigh,
		CustomerEmail: "buyer@example.com",
		Summary:       "Need a quote for 200L drums",
		Data: map[string]any{
			"productFamily": "acid",
			"volume":        float64(200),
			"hazardous":     true,
			"shipment": map[string]any{
				"mode":    "sea",
				"region":  "EMEA",
				"transit": map[string]any{"days": float64(12)},
			},
		},
	}
}

func TestMatches_ScalarEquality(t *testing.T) {
	ticket := testTicket()

	testCases := []struct {
		name      string
		predicate map[string]any
		want      bool
	}{
		{"request type match", map[string]any{"requestType": "quote"}, true},
		{"request type mismatch", map[string]any{"requestType": "claim"}, false},
		{"case sensitive", map[string]any{"requestType": "Quote"}, false},
		{"no type coercion string vs number", map[string]any{"data.volume": "200"}, false},
		{"number equality", map[string]any{"data.volume": float64(200)}, true},
		{"bool equality", map[string]any{"data.hazardous": true}, true},
		{"bool mismatch", map[string]any{"data.hazardous": false}, false},
		{"all keys must match", map[string]any{"requestType": "quote", "priority": "low"}, false},
		{"multiple keys all match", map[string]any{"requestType": "quote", "priority": "high", "data.productFamily": "acid"}, true},
		{"empty predicate matches everything", map[string]any{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(ticket, tc.predicate))
		})
	}
}

func TestMatches_SequenceMembership(t *testing.T) {
	ticket := testTicket()

	assert.True(t, Matches(ticket, map[string]any{"data.productFamily": []any{"acid", "solvent"}}))
	assert.True(t, Matches(ticket, map[string]any{"data.productFamily": []string{"acid", "solvent"}}))

	ticket.Data["productFamily"] = "base"
	assert.False(t, Matches(ticket, map[string]any{"data.productFamily": []any{"acid", "solvent"}}))
}

func TestMatches_AbsentPathIsNoMatch(t *testing.T) {
	ticket := testTicket()

	// Missing leaf, missing intermediate, descent into scalar, unknown root:
	// all resolve absent and fail the predicate without erroring.
	assert.False(t, Matches(ticket, map[string]any{"data.missing": "x"}))
	assert.False(t, Matches(ticket, map[string]any{"data.shipment.missing.deep": "x"}))
	assert.False(t, Matches(ticket, map[string]any{"data.productFamily.sub": "x"}))
	assert.False(t, Matches(ticket, map[string]any{"somethingElse": "x"}))
	assert.False(t, Matches(ticket, map[string]any{"summary.length": "x"}))
}

func TestMatches_NestedPaths(t *testing.T) {
	ticket := testTicket()

	assert.True(t, Matches(ticket, map[string]any{"data.shipment.mode": "sea"}))
	assert.True(t, Matches(ticket, map[string]any{"data.shipment.transit.days": float64(12)}))
	assert.False(t, Matches(ticket, map[string]any{"data.shipment.mode": "air"}))
}

func TestMatches_IsPure(t *testing.T) {
	ticket := testTicket()
	predicate := map[string]any{"requestType": "quote", "data.shipment.region": "EMEA"}

	first := Matches(ticket, predicate)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Matches(ticket, predicate))
	}
	assert.True(t, first)
}

func TestFirstMatch_PriorityOrder(t *testing.T) {
	ticket := testTicket()
	rules := []*Rule{
		{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"low-priority-pick"}, Order: 5},
		{ID: 2, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"winner"}, Order: 1},
		{ID: 3, Predicate: map[string]any{"requestType": "claim"}, Assignees: []string{"never"}, Order: 0},
	}
	// The store hands rules to the engine already sorted by order asc, id asc.
	sorted := []*Rule{rules[2], rules[1], rules[0]}

	match := FirstMatch(sorted, ticket)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFirstMatch_InsertionOrderBreaksTies(t *testing.T) {
	ticket := testTicket()
	rules := []*Rule{
		{ID: 10, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"first-inserted"}, Order: 1},
		{ID: 11, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"second-inserted"}, Order: 1},
	}

	match := FirstMatch(rules, ticket)
	require.NotNil(t, match)
	assert.Equal(t, "first-inserted", match.Assignees[0])
}

func TestFirstMatch_SkipsEmptyAssignees(t *testing.T) {
	ticket := testTicket()
	rules := []*Rule{
		{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: nil, Order: 0},
		{ID: 2, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"sales-team"}, Order: 1},
	}

	match := FirstMatch(rules, ticket)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFirstMatch_NoMatch(t *testing.T) {
	ticket := testTicket()
	rules := []*Rule{
		{ID: 1, Predicate: map[string]any{"requestType": "claim"}, Assignees: []string{"customer-service"}, Order: 0},
	}
	assert.Nil(t, FirstMatch(rules, ticket))
	assert.Nil(t, FirstMatch(nil, ticket))
}
