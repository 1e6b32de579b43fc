// Package v1 exposes the thin JSON API in front of the routing core. The
// handlers relay identifiers and flags to the engine; no routing decision
// logic lives here.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/dispatchsense/internal/profile"
	"github.com/hrygo/dispatchsense/routing"
	"github.com/hrygo/dispatchsense/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Engine  *routing.Engine
	Advisor routing.Advisor // nil when no advisor is configured
	Tickets routing.TicketStore
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, engine *routing.Engine, advisor routing.Advisor, tickets routing.TicketStore) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		Engine:  engine,
		Advisor: advisor,
		Tickets: tickets,
	}
}

// RegisterRoutes registers all v1 endpoints on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/tickets", s.CreateTicket)
	g.GET("/tickets/:uid", s.GetTicket)
	g.POST("/tickets/:uid/route", s.RouteTicket)
	g.POST("/tickets/:uid/classify", s.ClassifyTicket)

	g.GET("/routing-rules", s.ListRoutingRules)
	g.POST("/routing-rules", s.CreateRoutingRule)
	g.PATCH("/routing-rules/:id", s.UpdateRoutingRule)
	g.DELETE("/routing-rules/:id", s.DeleteRoutingRule)
}
