package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/dispatchsense/routing"
)

var errEmptyResponse = errors.New("llm returned no choices")

const suggestSystemPrompt = `You are a support-ticket routing assistant for a chemical distribution company.
Given a ticket and recent routing history, suggest which queues or agents should own it.
Respond with ONLY a JSON object, no prose:
{"suggestedAssignees": ["<best owner first>"], "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}
Suggest at most 3 assignees. Confidence reflects how sure you are about the FIRST suggestion.`

const classifySystemPrompt = `You are a support-ticket classifier for a chemical distribution company.
Classify the ticket into exactly one category: quote, certificate_of_analysis, freight, claim, other.
Respond with ONLY a JSON object, no prose:
{"requestType": "<category>", "confidence": <0.0-1.0>}`

// summaryLimit caps how much free text goes into a prompt.
const summaryLimit = 500

// Advisor implements routing.Advisor on top of an OpenAI-compatible LLM.
// It is constructed and injected; there is no process-wide singleton.
type Advisor struct {
	llm     LLMService
	limiter *rate.Limiter
}

// AdvisorConfig contains the configuration for the advisor.
type AdvisorConfig struct {
	LLM LLMService // required
	// RequestsPerSecond caps outbound LLM calls; <= 0 means 2 rps.
	RequestsPerSecond float64
}

// NewAdvisor creates an LLM-backed advisor.
func NewAdvisor(cfg AdvisorConfig) *Advisor {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Advisor{
		llm:     cfg.LLM,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// SuggestRouting asks the LLM for a ranked assignee suggestion. Any transport
// error, malformed response, or rate-limit wait failure is returned as an
// error; the routing engine recovers all of them.
func (a *Advisor) SuggestRouting(ctx context.Context, req *routing.SuggestRequest) (*routing.AdvisorSuggestion, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "advisor rate limit wait")
	}

	response, err := a.llm.Chat(ctx, []Message{
		SystemPrompt(suggestSystemPrompt),
		UserMessage(buildSuggestPrompt(req)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "advisor chat failed")
	}

	var suggestion routing.AdvisorSuggestion
	if err := json.Unmarshal([]byte(extractJSON(response)), &suggestion); err != nil {
		return nil, errors.Wrapf(err, "malformed advisor response: %s", truncate(response, 200))
	}
	return &suggestion, nil
}

// Classify asks the LLM to categorize a ticket. Used by intake tooling, not
// by the routing path.
func (a *Advisor) Classify(ctx context.Context, ticket *routing.TicketContext) (*routing.Classification, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "advisor rate limit wait")
	}

	response, err := a.llm.Chat(ctx, []Message{
		SystemPrompt(classifySystemPrompt),
		UserMessage(buildClassifyPrompt(ticket)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "advisor chat failed")
	}

	var classification routing.Classification
	if err := json.Unmarshal([]byte(extractJSON(response)), &classification); err != nil {
		return nil, errors.Wrapf(err, "malformed advisor response: %s", truncate(response, 200))
	}
	if !isKnownRequestType(classification.RequestType) {
		return nil, errors.Errorf("advisor returned unknown request type %q", classification.RequestType)
	}
	return &classification, nil
}

func buildSuggestPrompt(req *routing.SuggestRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket:\n- requestType: %s\n- priority: %s\n", req.RequestType, req.Priority)
	if req.CustomerEmail != "" {
		fmt.Fprintf(&b, "- customerEmail: %s\n", req.CustomerEmail)
	}
	if req.Summary != "" {
		fmt.Fprintf(&b, "- summary: %s\n", truncate(req.Summary, summaryLimit))
	}
	if len(req.Data) > 0 {
		if data, err := json.Marshal(req.Data); err == nil {
			fmt.Fprintf(&b, "- data: %s\n", truncate(string(data), summaryLimit))
		}
	}
	if len(req.History) > 0 {
		b.WriteString("\nRecent resolved tickets of this type and who handled them:\n")
		for _, h := range req.History {
			fmt.Fprintf(&b, "- %q -> %s\n", truncate(h.Summary, 120), h.Assignee)
		}
	}
	return b.String()
}

func buildClassifyPrompt(ticket *routing.TicketContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket summary: %s\n", truncate(ticket.Summary, summaryLimit))
	if ticket.CustomerEmail != "" {
		fmt.Fprintf(&b, "Customer email: %s\n", ticket.CustomerEmail)
	}
	if len(ticket.Data) > 0 {
		if data, err := json.Marshal(ticket.Data); err == nil {
			fmt.Fprintf(&b, "Data: %s\n", truncate(string(data), summaryLimit))
		}
	}
	return b.String()
}

// extractJSON strips markdown code fences and any prose surrounding the first
// JSON object. Models occasionally wrap their answer despite instructions.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		if idx := strings.LastIndex(response, "```"); idx >= 0 {
			response = response[:idx]
		}
		response = strings.TrimSpace(response)
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return response
}

func isKnownRequestType(rt routing.RequestType) bool {
	switch rt {
	case routing.RequestTypeQuote,
		routing.RequestTypeCertificateOfAnalysis,
		routing.RequestTypeFreight,
		routing.RequestTypeClaim,
		routing.RequestTypeOther:
		return true
	}
	return false
}

// truncate shortens a string to maxLen runes (Unicode-safe).
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
