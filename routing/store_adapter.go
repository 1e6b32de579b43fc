package routing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

// StoreAdapter implements the RuleStore, TicketStore, and AuditLog ports on
// top of the database store, translating between store records and the
// engine's types and error taxonomy.
type StoreAdapter struct {
	store *store.Store
}

// NewStoreAdapter creates a store-backed adapter for the routing ports.
func NewStoreAdapter(s *store.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// ListActiveRules returns active rules ordered by eval_order ascending, id
// ascending. The store query carries the ordering, so engine-side precedence
// is a plain scan.
func (a *StoreAdapter) ListActiveRules(ctx context.Context) ([]*Rule, error) {
	active := true
	stored, err := a.store.ListRoutingRules(ctx, &store.FindRoutingRule{Active: &active})
	if err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "failed to list routing rules: %v", err)
	}
	rules := make([]*Rule, 0, len(stored))
	for _, r := range stored {
		rules = append(rules, &Rule{
			ID:        r.ID,
			Name:      r.Name,
			Predicate: r.Predicate,
			Assignees: r.Assignees,
			Order:     r.EvalOrder,
		})
	}
	return rules, nil
}

func (a *StoreAdapter) GetTicketContext(ctx context.Context, ticketUID string) (*TicketContext, error) {
	ticket, err := a.store.GetTicket(ctx, &store.FindTicket{UID: &ticketUID})
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, errors.Wrapf(ErrStoreUnavailable, "failed to get ticket %s: %v", ticketUID, err)
	}

	priority := Priority(ticket.Priority)
	if priority == "" {
		priority = PriorityNormal
	}
	return &TicketContext{
		TicketUID:     ticket.UID,
		RequestType:   RequestType(ticket.RequestType),
		Priority:      priority,
		CustomerEmail: ticket.CustomerEmail,
		Summary:       ticket.Summary,
		Data:          ticket.Payload,
	}, nil
}

// UpdateTicketRouting writes the primary assignee and transitions the ticket
// to routed. Per-row atomicity comes from the store.
func (a *StoreAdapter) UpdateTicketRouting(ctx context.Context, ticketUID string, assignee string) error {
	err := a.store.UpdateTicketRouting(ctx, &store.UpdateTicketRouting{
		UID:      ticketUID,
		Assignee: assignee,
		Status:   store.TicketStatusRouted,
	})
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) {
			return ErrTicketNotFound
		}
		return errors.Wrapf(ErrStoreUnavailable, "failed to update ticket %s: %v", ticketUID, err)
	}
	return nil
}

func (a *StoreAdapter) ListRecentAssignments(ctx context.Context, requestType RequestType, limit int) ([]HistoricalAssignment, error) {
	tickets, err := a.store.ListResolvedTickets(ctx, &store.FindResolvedTickets{
		RequestType: string(requestType),
		Limit:       limit,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "failed to list resolved tickets: %v", err)
	}
	assignments := make([]HistoricalAssignment, 0, len(tickets))
	for _, t := range tickets {
		assignments = append(assignments, HistoricalAssignment{
			Summary:  t.Summary,
			Assignee: t.Assignee,
		})
	}
	return assignments, nil
}

// Append writes one audit entry.
func (a *StoreAdapter) Append(ctx context.Context, entry *AuditEntry) error {
	return a.store.CreateRoutingAuditEntry(ctx, &store.RoutingAuditEntry{
		TicketUID:    entry.TicketUID,
		Operation:    entry.Operation,
		Input:        entry.Input,
		Output:       entry.Output,
		Success:      entry.Success,
		LatencyMs:    entry.Latency.Milliseconds(),
		ErrorMessage: entry.ErrorMessage,
	})
}
