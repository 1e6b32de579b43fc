// Package routing assigns support tickets to queues by evaluating ordered
// business rules and, optionally, a confidence-gated advisor suggestion.
package routing

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// RequestType is the fixed ticket category enum.
type RequestType string

const (
	RequestTypeQuote                 RequestType = "quote"
	RequestTypeCertificateOfAnalysis RequestType = "certificate_of_analysis"
	RequestTypeFreight               RequestType = "freight"
	RequestTypeClaim                 RequestType = "claim"
	RequestTypeOther                 RequestType = "other"
)

// Priority is the ticket urgency enum.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TicketContext is the read-only ticket snapshot fed to the engine.
type TicketContext struct {
	TicketUID     string
	RequestType   RequestType
	Priority      Priority
	CustomerEmail string
	Summary       string
	Data          map[string]any // arbitrary nested mapping for dotted-path predicate lookups
}

// Rule is one routing rule as seen by the engine. Rules are immutable once
// loaded for a decision; the administrative API owns mutation.
type Rule struct {
	ID        int64
	Name      string
	Predicate map[string]any // field path -> required scalar or list of acceptable scalars
	Assignees []string       // ordered, first element is the rule's primary pick
	Order     int32          // ascending evaluation priority; ties broken by insertion order
}

// AdvisorSuggestion is a per-call advisor result. It is never persisted as
// authoritative state, only logged.
type AdvisorSuggestion struct {
	SuggestedAssignees []string `json:"suggestedAssignees"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// Classification is the advisor's category guess for a ticket.
type Classification struct {
	RequestType RequestType `json:"requestType"`
	Confidence  float64     `json:"confidence"`
}

// HistoricalAssignment is one resolved ticket of the same request type with
// its final assignee, supplied as advisor context.
type HistoricalAssignment struct {
	Summary  string `json:"summary"`
	Assignee string `json:"assignee"`
}

// SuggestRequest carries everything the advisor gets to see for one ticket.
type SuggestRequest struct {
	RequestType   RequestType
	Priority      Priority
	Summary       string
	CustomerEmail string
	Data          map[string]any
	History       []HistoricalAssignment // bounded sample, newest first
}

// Decision is the routing outcome. Assignees is never empty; its first
// element is the primary owner written back to the ticket.
type Decision struct {
	Assignees         []string
	UsedAdvisor       bool
	AdvisorSuggestion *AdvisorSuggestion
}

// AuditEntry is one append-only record of a routing step. Write-once; the
// engine appends and never reads back.
type AuditEntry struct {
	TicketUID    string
	Operation    string
	Input        string // JSON snapshot of the operation input
	Output       string // JSON snapshot of the operation output, empty on failure
	Success      bool
	Latency      time.Duration
	ErrorMessage string
}

// ErrTicketNotFound aborts a routing call without persisting anything. It is
// the only hard failure before persistence.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrStoreUnavailable marks a backing-store failure. Rule reads degrade to
// defaults; ticket reads are fatal for the call; ticket writes surface to the
// caller after assignees were computed.
var ErrStoreUnavailable = errors.New("store unavailable")

// RuleStore loads active routing rules ordered by Order ascending, insertion
// order breaking ties.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]*Rule, error)
}

// TicketStore reads ticket snapshots and writes routing outcomes. The store
// serializes its own writes; two concurrent routes for the same ticket are
// last-write-wins.
type TicketStore interface {
	GetTicketContext(ctx context.Context, ticketUID string) (*TicketContext, error)
	UpdateTicketRouting(ctx context.Context, ticketUID string, assignee string) error
	// ListRecentAssignments returns at most limit resolved tickets of the
	// given request type with their final assignee, newest first.
	ListRecentAssignments(ctx context.Context, requestType RequestType, limit int) ([]HistoricalAssignment, error)
}

// Advisor is the pluggable probabilistic backend. It is never on the critical
// path: any error is recovered by the engine and routing proceeds rule-based.
type Advisor interface {
	// Classify suggests a request type for a ticket. Not used by routing
	// itself; exposed for ticket intake tooling.
	Classify(ctx context.Context, ticket *TicketContext) (*Classification, error)
	// SuggestRouting produces a ranked assignee suggestion with confidence.
	SuggestRouting(ctx context.Context, req *SuggestRequest) (*AdvisorSuggestion, error)
}

// AuditLog appends decision audit entries. Consumers are external
// observability tooling; the routing core never reads entries back.
type AuditLog interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
