package ai

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/dispatchsense/routing"
)

// mockLLM implements LLMService for testing.
type mockLLM struct {
	response string
	err      error
	lastMsgs []Message
}

func (m *mockLLM) Chat(_ context.Context, messages []Message) (string, error) {
	m.lastMsgs = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestAdvisor(llm LLMService) *Advisor {
	return NewAdvisor(AdvisorConfig{LLM: llm, RequestsPerSecond: 1000})
}

func TestSuggestRouting_ParsesJSON(t *testing.T) {
	llm := &mockLLM{response: `{"suggestedAssignees": ["Adnan", "sales-team"], "confidence": 0.9, "reasoning": "Adnan handled the last five quotes"}`}
	advisor := newTestAdvisor(llm)

	suggestion, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeQuote,
		Priority:    routing.PriorityNormal,
		Summary:     "quote for solvents",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Adnan", "sales-team"}, suggestion.SuggestedAssignees)
	assert.InDelta(t, 0.9, suggestion.Confidence, 1e-9)
	assert.NotEmpty(t, suggestion.Reasoning)
}

func TestSuggestRouting_StripsCodeFences(t *testing.T) {
	llm := &mockLLM{response: "```json\n{\"suggestedAssignees\": [\"sales-team\"], \"confidence\": 0.85}\n```"}
	advisor := newTestAdvisor(llm)

	suggestion, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeQuote,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-team"}, suggestion.SuggestedAssignees)
}

func TestSuggestRouting_ProseAroundJSON(t *testing.T) {
	llm := &mockLLM{response: `Sure! Here is my suggestion: {"suggestedAssignees": ["logistics-team"], "confidence": 0.82} Hope that helps.`}
	advisor := newTestAdvisor(llm)

	suggestion, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeFreight,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"logistics-team"}, suggestion.SuggestedAssignees)
}

func TestSuggestRouting_MalformedResponse(t *testing.T) {
	llm := &mockLLM{response: "I cannot decide."}
	advisor := newTestAdvisor(llm)

	_, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeQuote,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed advisor response")
}

func TestSuggestRouting_TransportError(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	advisor := newTestAdvisor(llm)

	_, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeQuote,
	})
	require.Error(t, err)
}

func TestSuggestRouting_PromptIncludesHistory(t *testing.T) {
	llm := &mockLLM{response: `{"suggestedAssignees": ["sales-team"], "confidence": 0.9}`}
	advisor := newTestAdvisor(llm)

	_, err := advisor.SuggestRouting(context.Background(), &routing.SuggestRequest{
		RequestType: routing.RequestTypeQuote,
		Summary:     "bulk solvent pricing",
		History: []routing.HistoricalAssignment{
			{Summary: "quote for acetone", Assignee: "Adnan"},
		},
	})
	require.NoError(t, err)
	require.Len(t, llm.lastMsgs, 2)
	prompt := llm.lastMsgs[1].Content
	assert.Contains(t, prompt, "bulk solvent pricing")
	assert.Contains(t, prompt, "Adnan")
	assert.Contains(t, prompt, "quote for acetone")
}

func TestClassify_ParsesJSON(t *testing.T) {
	llm := &mockLLM{response: `{"requestType": "freight", "confidence": 0.77}`}
	advisor := newTestAdvisor(llm)

	classification, err := advisor.Classify(context.Background(), &routing.TicketContext{
		Summary: "where is my shipment",
	})
	require.NoError(t, err)
	assert.Equal(t, routing.RequestTypeFreight, classification.RequestType)
	assert.InDelta(t, 0.77, classification.Confidence, 1e-9)
}

func TestClassify_RejectsUnknownCategory(t *testing.T) {
	llm := &mockLLM{response: `{"requestType": "banana", "confidence": 0.9}`}
	advisor := newTestAdvisor(llm)

	_, err := advisor.Classify(context.Background(), &routing.TicketContext{Summary: "?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown request type")
}

func TestExtractJSON(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", `answer: {"a":1}. done`, `{"a":1}`},
		{"no json at all", "nope", "nope"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.in))
		})
	}
}
