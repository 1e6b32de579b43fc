package routing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// historySampleLimit bounds the historical-assignment sample passed to the
// advisor. The advisor never does its own retrieval.
const historySampleLimit = 10

// Decision sources for logging and metrics.
const (
	sourceRule    = "rule"
	sourceDefault = "default"
	sourceAdvisor = "advisor"
)

// Config contains the configuration for the routing engine.
// Dependencies are injected here, not created internally, so the engine can
// be constructed with test doubles and carries no global state.
type Config struct {
	RuleStore   RuleStore   // required
	TicketStore TicketStore // required
	Advisor     Advisor     // optional; nil disables advisor consultation
	AuditLog    AuditLog    // optional; nil disables audit emission
	Metrics     *Metrics    // optional

	// ValidAssignees is the whitelist the merger checks advisor suggestions
	// against. Empty means the built-in queue set.
	ValidAssignees []string
}

// Engine routes a single ticket per call: load active rules, match them in
// priority order, fall back to the per-category defaults, optionally consult
// the advisor, merge, persist, audit. Calls for different tickets may run
// concurrently; two concurrent calls for the same ticket are not
// deduplicated, last write wins at the store layer.
type Engine struct {
	rules   RuleStore
	tickets TicketStore
	advisor Advisor
	audit   AuditLog
	metrics *Metrics
	valid   map[string]bool
}

// NewEngine creates a routing engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	validList := cfg.ValidAssignees
	if len(validList) == 0 {
		validList = DefaultValidAssignees()
	}
	valid := make(map[string]bool, len(validList))
	for _, assignee := range validList {
		valid[assignee] = true
	}

	return &Engine{
		rules:   cfg.RuleStore,
		tickets: cfg.TicketStore,
		advisor: cfg.Advisor,
		audit:   cfg.AuditLog,
		metrics: cfg.Metrics,
		valid:   valid,
	}
}

// AssignTicket routes one ticket and returns the ordered assignee list. The
// first element is the primary owner persisted on the ticket together with
// the "routed" status.
//
// Failure behavior: ErrTicketNotFound (or a ticket read failure) aborts
// without persisting; a rules-store failure degrades to the per-category
// defaults; any advisor failure degrades to the rule-based list; a persist
// failure is returned after assignees were computed. The returned list is
// never empty on success. Once started, the call runs to completion rather
// than being abandoned mid-decision.
func (e *Engine) AssignTicket(ctx context.Context, ticketUID string, enableAdvisor bool) ([]string, error) {
	start := time.Now()

	ticket, err := e.tickets.GetTicketContext(ctx, ticketUID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to read ticket %s", ticketUID)
	}

	assignees, source := e.evaluateRules(ctx, ticket)

	decision := Decision{Assignees: assignees}
	if enableAdvisor && e.advisor != nil {
		suggestion := e.consultAdvisor(ctx, ticket)
		if suggestion != nil {
			decision.UsedAdvisor = true
			decision.AdvisorSuggestion = suggestion
			merged := Merge(assignees, suggestion.SuggestedAssignees, suggestion.Confidence, e.valid)
			if len(merged) > 0 && (len(assignees) == 0 || merged[0] != assignees[0]) {
				source = sourceAdvisor
			}
			decision.Assignees = merged
		}
	}

	// A decision always has at least one assignee.
	if len(decision.Assignees) == 0 {
		decision.Assignees = []string{DefaultQueue}
		source = sourceDefault
	}

	if err := e.tickets.UpdateTicketRouting(ctx, ticketUID, decision.Assignees[0]); err != nil {
		return nil, errors.Wrapf(err, "failed to persist routing for ticket %s", ticketUID)
	}

	latency := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveDecision(source, latency)
	}
	slog.Info("ticket routed",
		"ticket", ticketUID,
		"request_type", ticket.RequestType,
		"assignees", decision.Assignees,
		"source", source,
		"used_advisor", decision.UsedAdvisor,
		"latency_ms", latency.Milliseconds())

	return decision.Assignees, nil
}

// evaluateRules loads active rules and returns the first match's assignees,
// or the per-category defaults. A rules-store failure is equivalent to "no
// rules matched" and never aborts the ticket.
func (e *Engine) evaluateRules(ctx context.Context, ticket *TicketContext) ([]string, string) {
	rules, err := e.rules.ListActiveRules(ctx)
	if err != nil {
		slog.Warn("rule store unavailable, falling back to defaults",
			"ticket", ticket.TicketUID,
			"error", err)
		return DefaultAssignees(ticket.RequestType), sourceDefault
	}

	if rule := FirstMatch(rules, ticket); rule != nil {
		slog.Debug("rule matched",
			"ticket", ticket.TicketUID,
			"rule_id", rule.ID,
			"rule_order", rule.Order)
		assignees := make([]string, len(rule.Assignees))
		copy(assignees, rule.Assignees)
		return assignees, sourceRule
	}

	return DefaultAssignees(ticket.RequestType), sourceDefault
}

// consultAdvisor requests a routing suggestion and appends exactly one audit
// entry for the attempted call. Every failure path returns nil: timeouts,
// transport errors, and confidence outside [0,1] all degrade to rule-based
// routing and are never propagated.
func (e *Engine) consultAdvisor(ctx context.Context, ticket *TicketContext) *AdvisorSuggestion {
	history, err := e.tickets.ListRecentAssignments(ctx, ticket.RequestType, historySampleLimit)
	if err != nil {
		// An unavailable sample is an advisor context gap, not a failure.
		slog.Warn("historical sample unavailable",
			"ticket", ticket.TicketUID,
			"error", err)
		history = nil
	}

	req := &SuggestRequest{
		RequestType:   ticket.RequestType,
		Priority:      ticket.Priority,
		Summary:       ticket.Summary,
		CustomerEmail: ticket.CustomerEmail,
		Data:          ticket.Data,
		History:       history,
	}

	start := time.Now()
	suggestion, err := e.advisor.SuggestRouting(ctx, req)
	latency := time.Since(start)

	if err == nil && suggestion != nil && (suggestion.Confidence < 0 || suggestion.Confidence > 1) {
		err = errors.Errorf("advisor confidence %.3f outside [0,1]", suggestion.Confidence)
		suggestion = nil
	}

	e.appendAudit(ctx, ticket, req, suggestion, latency, err)

	if err != nil {
		if e.metrics != nil {
			e.metrics.ObserveAdvisorFailure()
		}
		slog.Warn("advisor failed, proceeding rule-based",
			"ticket", ticket.TicketUID,
			"latency_ms", latency.Milliseconds(),
			"error", err)
		return nil
	}
	return suggestion
}

// appendAudit records the advisor call outcome. Audit emission is itself off
// the critical path: an append failure is logged and swallowed.
func (e *Engine) appendAudit(ctx context.Context, ticket *TicketContext, req *SuggestRequest, suggestion *AdvisorSuggestion, latency time.Duration, callErr error) {
	if e.audit == nil {
		return
	}

	entry := &AuditEntry{
		TicketUID: ticket.TicketUID,
		Operation: "advisor.suggest_routing",
		Input:     marshalSnapshot(req),
		Success:   callErr == nil,
		Latency:   latency,
	}
	if callErr != nil {
		entry.ErrorMessage = callErr.Error()
	} else {
		entry.Output = marshalSnapshot(suggestion)
	}

	if err := e.audit.Append(ctx, entry); err != nil {
		slog.Error("failed to append audit entry",
			"ticket", ticket.TicketUID,
			"operation", entry.Operation,
			"error", err)
	}
}

// marshalSnapshot renders an audit snapshot, degrading to "{}" rather than
// failing the decision over an unserializable value.
func marshalSnapshot(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
