package routing

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRuleStore implements RuleStore for testing.
type mockRuleStore struct {
	rules []*Rule
	err   error
}

func (m *mockRuleStore) ListActiveRules(_ context.Context) ([]*Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules, nil
}

// mockTicketStore implements TicketStore for testing.
type mockTicketStore struct {
	tickets    map[string]*TicketContext
	history    []HistoricalAssignment
	historyErr error
	updateErr  error

	updatedUID      string
	updatedAssignee string
	updateCalls     int
}

func (m *mockTicketStore) GetTicketContext(_ context.Context, ticketUID string) (*TicketContext, error) {
	ticket, ok := m.tickets[ticketUID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (m *mockTicketStore) UpdateTicketRouting(_ context.Context, ticketUID string, assignee string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls++
	m.updatedUID = ticketUID
	m.updatedAssignee = assignee
	return nil
}

func (m *mockTicketStore) ListRecentAssignments(_ context.Context, _ RequestType, limit int) ([]HistoricalAssignment, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// mockAdvisor implements Advisor for testing.
type mockAdvisor struct {
	suggestion *AdvisorSuggestion
	err        error
	calls      int
	lastReq    *SuggestRequest
}

func (m *mockAdvisor) Classify(_ context.Context, _ *TicketContext) (*Classification, error) {
	return nil, errors.New("not used in these tests")
}

func (m *mockAdvisor) SuggestRouting(_ context.Context, req *SuggestRequest) (*AdvisorSuggestion, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.suggestion, nil
}

// mockAuditLog implements AuditLog for testing.
type mockAuditLog struct {
	entries []*AuditEntry
	err     error
}

func (m *mockAuditLog) Append(_ context.Context, entry *AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func newTestEngine(cfg Config) (*Engine, *mockTicketStore, *mockAuditLog) {
	tickets, _ := cfg.TicketStore.(*mockTicketStore)
	audit, _ := cfg.AuditLog.(*mockAuditLog)
	return NewEngine(cfg), tickets, audit
}

func claimTicket() map[string]*TicketContext {
	return map[string]*TicketContext{
		"t-claim": {
			TicketUID:   "t-claim",
			RequestType: RequestTypeClaim,
			Priority:    PriorityNormal,
		},
	}
}

func quoteTicket() map[string]*TicketContext {
	return map[string]*TicketContext{
		"t-quote": {
			TicketUID:   "t-quote",
			RequestType: RequestTypeQuote,
			Priority:    PriorityNormal,
			Summary:     "quote request",
		},
	}
}

func TestAssignTicket_NoRulesAdvisorDisabled_DefaultQueue(t *testing.T) {
	engine, tickets, audit := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: claimTicket()},
		AuditLog:    &mockAuditLog{},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-claim", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer-service"}, assignees)
	assert.Equal(t, "customer-service", tickets.updatedAssignee)
	assert.Empty(t, audit.entries, "no advisor call, no audit entry")
}

func TestAssignTicket_RuleMatch(t *testing.T) {
	engine, tickets, _ := newTestEngine(Config{
		RuleStore: &mockRuleStore{rules: []*Rule{
			{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"sales-team"}, Order: 1},
		}},
		TicketStore: &mockTicketStore{tickets: quoteTicket()},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-team"}, assignees)
	assert.Equal(t, "t-quote", tickets.updatedUID)
	assert.Equal(t, "sales-team", tickets.updatedAssignee)
}

func TestAssignTicket_DefaultTablePerRequestType(t *testing.T) {
	testCases := []struct {
		requestType RequestType
		want        []string
	}{
		{RequestTypeQuote, []string{"sales-team"}},
		{RequestTypeCertificateOfAnalysis, []string{"documentation-team"}},
		{RequestTypeFreight, []string{"logistics-team"}},
		{RequestTypeClaim, []string{"customer-service"}},
		{RequestTypeOther, []string{"customer-service"}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.requestType), func(t *testing.T) {
			store := &mockTicketStore{tickets: map[string]*TicketContext{
				"t": {TicketUID: "t", RequestType: tc.requestType, Priority: PriorityNormal},
			}}
			engine := NewEngine(Config{RuleStore: &mockRuleStore{}, TicketStore: store})

			assignees, err := engine.AssignTicket(context.Background(), "t", false)
			require.NoError(t, err)
			assert.Equal(t, tc.want, assignees)
		})
	}
}

func TestAssignTicket_TicketNotFound(t *testing.T) {
	engine, tickets, _ := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: map[string]*TicketContext{}},
	})

	_, err := engine.AssignTicket(context.Background(), "missing", false)
	require.ErrorIs(t, err, ErrTicketNotFound)
	assert.Zero(t, tickets.updateCalls, "nothing persisted on not-found")
}

func TestAssignTicket_RuleStoreUnavailableFallsBackToDefaults(t *testing.T) {
	engine, _, _ := newTestEngine(Config{
		RuleStore:   &mockRuleStore{err: errors.Wrap(ErrStoreUnavailable, "db down")},
		TicketStore: &mockTicketStore{tickets: quoteTicket()},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-team"}, assignees)
}

func TestAssignTicket_AdvisorMergesAboveThreshold(t *testing.T) {
	advisor := &mockAdvisor{suggestion: &AdvisorSuggestion{
		SuggestedAssignees: []string{"Adnan", "sales-team"},
		Confidence:         0.9,
	}}
	engine, tickets, audit := newTestEngine(Config{
		RuleStore: &mockRuleStore{rules: []*Rule{
			{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"sales-team"}, Order: 1},
		}},
		TicketStore:    &mockTicketStore{tickets: quoteTicket()},
		Advisor:        advisor,
		AuditLog:       &mockAuditLog{},
		ValidAssignees: []string{"sales-team", "Adnan"},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adnan", "sales-team"}, assignees)
	assert.Equal(t, "Adnan", tickets.updatedAssignee)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.True(t, entry.Success)
	assert.Equal(t, "advisor.suggest_routing", entry.Operation)
	assert.Contains(t, entry.Output, "Adnan")
}

func TestAssignTicket_AdvisorLowConfidenceLeavesRules(t *testing.T) {
	advisor := &mockAdvisor{suggestion: &AdvisorSuggestion{
		SuggestedAssignees: []string{"Adnan"},
		Confidence:         0.6,
	}}
	engine, _, audit := newTestEngine(Config{
		RuleStore: &mockRuleStore{rules: []*Rule{
			{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"sales-team"}, Order: 1},
		}},
		TicketStore:    &mockTicketStore{tickets: quoteTicket()},
		Advisor:        advisor,
		AuditLog:       &mockAuditLog{},
		ValidAssignees: []string{"sales-team", "Adnan"},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-team"}, assignees)
	require.Len(t, audit.entries, 1)
	assert.True(t, audit.entries[0].Success, "a low-confidence call is still a successful call")
}

func TestAssignTicket_AdvisorFailureRecovered(t *testing.T) {
	engine, _, audit := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: claimTicket()},
		Advisor:     &mockAdvisor{err: errors.New("upstream timeout")},
		AuditLog:    &mockAuditLog{},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-claim", true)
	require.NoError(t, err)
	assert.NotEmpty(t, assignees)
	assert.Equal(t, []string{"customer-service"}, assignees)

	require.Len(t, audit.entries, 1, "exactly one failed audit entry")
	entry := audit.entries[0]
	assert.False(t, entry.Success)
	assert.Empty(t, entry.Output)
	assert.Contains(t, entry.ErrorMessage, "upstream timeout")
}

func TestAssignTicket_ConfidenceOutOfRangeIsAdvisorFailure(t *testing.T) {
	advisor := &mockAdvisor{suggestion: &AdvisorSuggestion{
		SuggestedAssignees: []string{"Adnan"},
		Confidence:         1.7,
	}}
	engine, _, audit := newTestEngine(Config{
		RuleStore: &mockRuleStore{rules: []*Rule{
			{ID: 1, Predicate: map[string]any{"requestType": "quote"}, Assignees: []string{"sales-team"}, Order: 1},
		}},
		TicketStore:    &mockTicketStore{tickets: quoteTicket()},
		Advisor:        advisor,
		AuditLog:       &mockAuditLog{},
		ValidAssignees: []string{"sales-team", "Adnan"},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-team"}, assignees)

	require.Len(t, audit.entries, 1)
	assert.False(t, audit.entries[0].Success)
	assert.Contains(t, audit.entries[0].ErrorMessage, "outside [0,1]")
}

func TestAssignTicket_HistorySampleBounded(t *testing.T) {
	history := make([]HistoricalAssignment, 25)
	for i := range history {
		history[i] = HistoricalAssignment{Summary: "resolved", Assignee: "sales-team"}
	}
	advisor := &mockAdvisor{suggestion: &AdvisorSuggestion{Confidence: 0.5}}
	engine, _, _ := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: quoteTicket(), history: history},
		Advisor:     advisor,
		AuditLog:    &mockAuditLog{},
	})

	_, err := engine.AssignTicket(context.Background(), "t-quote", true)
	require.NoError(t, err)
	require.NotNil(t, advisor.lastReq)
	assert.LessOrEqual(t, len(advisor.lastReq.History), 10)
}

func TestAssignTicket_HistoryUnavailableStillConsultsAdvisor(t *testing.T) {
	advisor := &mockAdvisor{suggestion: &AdvisorSuggestion{
		SuggestedAssignees: []string{"sales-team"},
		Confidence:         0.9,
	}}
	engine, _, _ := newTestEngine(Config{
		RuleStore:      &mockRuleStore{},
		TicketStore:    &mockTicketStore{tickets: quoteTicket(), historyErr: errors.New("sample query failed")},
		Advisor:        advisor,
		AuditLog:       &mockAuditLog{},
		ValidAssignees: []string{"sales-team"},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-quote", true)
	require.NoError(t, err)
	assert.Equal(t, 1, advisor.calls)
	assert.Empty(t, advisor.lastReq.History)
	assert.NotEmpty(t, assignees)
}

func TestAssignTicket_PersistFailureSurfaced(t *testing.T) {
	engine, _, _ := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: claimTicket(), updateErr: errors.Wrap(ErrStoreUnavailable, "write failed")},
	})

	_, err := engine.AssignTicket(context.Background(), "t-claim", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAssignTicket_AuditAppendFailureDoesNotBlockRouting(t *testing.T) {
	engine, tickets, _ := newTestEngine(Config{
		RuleStore:   &mockRuleStore{},
		TicketStore: &mockTicketStore{tickets: claimTicket()},
		Advisor:     &mockAdvisor{err: errors.New("advisor down")},
		AuditLog:    &mockAuditLog{err: errors.New("audit store down")},
	})

	assignees, err := engine.AssignTicket(context.Background(), "t-claim", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer-service"}, assignees)
	assert.Equal(t, 1, tickets.updateCalls)
}
