package store

import (
	"context"
	"time"
)

// Ticket status values. A ticket starts pending, becomes routed once the
// routing engine has assigned it, and is resolved/closed by humans.
const (
	TicketStatusPending  = "pending"
	TicketStatusRouted   = "routed"
	TicketStatusResolved = "resolved"
	TicketStatusClosed   = "closed"
)

// Ticket request type values. Fixed category enum; "other" is the catch-all.
const (
	RequestTypeQuote                 = "quote"
	RequestTypeCertificateOfAnalysis = "certificate_of_analysis"
	RequestTypeFreight               = "freight"
	RequestTypeClaim                 = "claim"
	RequestTypeOther                 = "other"
)

// Ticket priority values.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket represents a support ticket record.
type Ticket struct {
	ID            int64
	UID           string
	RequestType   string
	Priority      string
	CustomerEmail string
	Summary       string
	Payload       map[string]any // arbitrary nested data, stored as JSON
	Assignee      string         // primary owner once routed
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FindTicket specifies the lookup criteria for a single ticket.
type FindTicket struct {
	ID  *int64
	UID *string
}

// UpdateTicketRouting carries the routing outcome written back to a ticket.
// This is the only ticket mutation the routing path performs.
type UpdateTicketRouting struct {
	UID      string
	Assignee string
	Status   string
}

// FindResolvedTickets specifies the bounded historical sample query used as
// advisor context: recently resolved tickets of one request type, newest first.
type FindResolvedTickets struct {
	RequestType string
	Limit       int
}

func (s *Store) CreateTicket(ctx context.Context, create *Ticket) (*Ticket, error) {
	return s.driver.CreateTicket(ctx, create)
}

func (s *Store) GetTicket(ctx context.Context, find *FindTicket) (*Ticket, error) {
	return s.driver.GetTicket(ctx, find)
}

func (s *Store) UpdateTicketRouting(ctx context.Context, update *UpdateTicketRouting) error {
	return s.driver.UpdateTicketRouting(ctx, update)
}

func (s *Store) ListResolvedTickets(ctx context.Context, find *FindResolvedTickets) ([]*Ticket, error) {
	return s.driver.ListResolvedTickets(ctx, find)
}
