package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrTicketNotFound is returned by GetTicket when no ticket matches.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrRuleNotFound is returned by rule lookups and updates when no rule matches.
var ErrRuleNotFound = errors.New("routing rule not found")

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() any
	Close() error

	// Migrate applies the embedded bootstrap schema. Idempotent.
	Migrate(ctx context.Context) error

	// Ticket model related methods.
	CreateTicket(ctx context.Context, create *Ticket) (*Ticket, error)
	GetTicket(ctx context.Context, find *FindTicket) (*Ticket, error)
	UpdateTicketRouting(ctx context.Context, update *UpdateTicketRouting) error
	ListResolvedTickets(ctx context.Context, find *FindResolvedTickets) ([]*Ticket, error)

	// RoutingRule model related methods.
	CreateRoutingRule(ctx context.Context, create *RoutingRule) (*RoutingRule, error)
	ListRoutingRules(ctx context.Context, find *FindRoutingRule) ([]*RoutingRule, error)
	UpdateRoutingRule(ctx context.Context, update *UpdateRoutingRule) (*RoutingRule, error)
	DeleteRoutingRule(ctx context.Context, id int64) error

	// RoutingAuditEntry model related methods.
	CreateRoutingAuditEntry(ctx context.Context, create *RoutingAuditEntry) error
	ListRoutingAuditEntries(ctx context.Context, find *FindRoutingAuditEntries) ([]*RoutingAuditEntry, error)
}
