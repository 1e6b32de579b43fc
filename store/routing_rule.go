package store

import (
	"context"
	"time"
)

// RoutingRule represents a persisted routing rule. Rules are owned and
// mutated only by the administrative API; the routing path reads them.
type RoutingRule struct {
	ID        int64
	Name      string
	Predicate map[string]any // field path -> required scalar or list of acceptable scalars
	Assignees []string       // ordered, non-empty while active
	Active    bool
	EvalOrder int32 // ascending evaluation priority; ties broken by insertion order (id asc)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateRoutingRule carries a partial rule update; nil fields are untouched.
type UpdateRoutingRule struct {
	ID        int64
	Name      *string
	Predicate *map[string]any
	Assignees *[]string
	Active    *bool
	EvalOrder *int32
}

// FindRoutingRule filters rule listings. Active-only listings are returned
// sorted by eval_order ascending, then id ascending.
type FindRoutingRule struct {
	ID     *int64
	Active *bool
}

func (s *Store) CreateRoutingRule(ctx context.Context, create *RoutingRule) (*RoutingRule, error) {
	return s.driver.CreateRoutingRule(ctx, create)
}

func (s *Store) ListRoutingRules(ctx context.Context, find *FindRoutingRule) ([]*RoutingRule, error) {
	return s.driver.ListRoutingRules(ctx, find)
}

func (s *Store) UpdateRoutingRule(ctx context.Context, update *UpdateRoutingRule) (*RoutingRule, error) {
	return s.driver.UpdateRoutingRule(ctx, update)
}

func (s *Store) DeleteRoutingRule(ctx context.Context, id int64) error {
	return s.driver.DeleteRoutingRule(ctx, id)
}
