package store

import (
	"context"
	"time"
)

// RoutingAuditEntry represents one append-only audit record of a routing
// decision step. Write-once: the routing core appends and never reads back;
// listings exist for external observability tooling only.
type RoutingAuditEntry struct {
	ID           int64
	TicketUID    string
	Operation    string
	Input        string // JSON snapshot of the operation input
	Output       string // JSON snapshot of the operation output, empty on failure
	Success      bool
	LatencyMs    int64
	ErrorMessage string
	CreatedAt    time.Time
}

// FindRoutingAuditEntries filters audit listings, newest first.
type FindRoutingAuditEntries struct {
	TicketUID *string
	Limit     int
}

func (s *Store) CreateRoutingAuditEntry(ctx context.Context, create *RoutingAuditEntry) error {
	return s.driver.CreateRoutingAuditEntry(ctx, create)
}

func (s *Store) ListRoutingAuditEntries(ctx context.Context, find *FindRoutingAuditEntries) ([]*RoutingAuditEntry, error) {
	return s.driver.ListRoutingAuditEntries(ctx, find)
}
