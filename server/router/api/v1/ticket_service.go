package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/routing"
	"github.com/hrygo/dispatchsense/store"
)

type createTicketRequest struct {
	RequestType   string         `json:"requestType"`
	Priority      string         `json:"priority"`
	CustomerEmail string         `json:"customerEmail"`
	Summary       string         `json:"summary"`
	Data          map[string]any `json:"data"`
}

type ticketResponse struct {
	UID           string         `json:"uid"`
	RequestType   string         `json:"requestType"`
	Priority      string         `json:"priority"`
	CustomerEmail string         `json:"customerEmail,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Assignee      string         `json:"assignee,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type routeTicketRequest struct {
	EnableAdvisor bool `json:"enableAdvisor"`
}

type routeTicketResponse struct {
	Assignees []string `json:"assignees"`
}

var validRequestTypes = map[string]bool{
	store.RequestTypeQuote:                 true,
	store.RequestTypeCertificateOfAnalysis: true,
	store.RequestTypeFreight:               true,
	store.RequestTypeClaim:                 true,
	store.RequestTypeOther:                 true,
}

var validPriorities = map[string]bool{
	store.PriorityLow:    true,
	store.PriorityNormal: true,
	store.PriorityHigh:   true,
	store.PriorityUrgent: true,
}

func (s *APIV1Service) CreateTicket(c echo.Context) error {
	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if req.RequestType == "" {
		req.RequestType = store.RequestTypeOther
	}
	if !validRequestTypes[req.RequestType] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown request type")
	}
	if req.Priority == "" {
		req.Priority = store.PriorityNormal
	}
	if !validPriorities[req.Priority] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown priority")
	}

	ticket, err := s.Store.CreateTicket(c.Request().Context(), &store.Ticket{
		UID:           shortuuid.New(),
		RequestType:   req.RequestType,
		Priority:      req.Priority,
		CustomerEmail: req.CustomerEmail,
		Summary:       req.Summary,
		Payload:       req.Data,
		Status:        store.TicketStatusPending,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create ticket").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

func (s *APIV1Service) GetTicket(c echo.Context) error {
	uid := c.Param("uid")
	ticket, err := s.Store.GetTicket(c.Request().Context(), &store.FindTicket{UID: &uid})
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get ticket").SetInternal(err)
	}
	return c.JSON(http.StatusOK, toTicketResponse(ticket))
}

// RouteTicket relays the ticket UID and advisor flag to the routing engine
// and returns the assignee list. A routing request either returns assignees
// or a not-found/persistence error; it never returns "no decision".
func (s *APIV1Service) RouteTicket(c echo.Context) error {
	uid := c.Param("uid")

	var req routeTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	assignees, err := s.Engine.AssignTicket(c.Request().Context(), uid, req.EnableAdvisor)
	if err != nil {
		if errors.Is(err, routing.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist routing decision").SetInternal(err)
	}
	return c.JSON(http.StatusOK, routeTicketResponse{Assignees: assignees})
}

// ClassifyTicket asks the advisor for a category suggestion. Read-only: the
// ticket is never mutated here.
func (s *APIV1Service) ClassifyTicket(c echo.Context) error {
	if s.Advisor == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "advisor not configured")
	}

	uid := c.Param("uid")
	ticket, err := s.Tickets.GetTicketContext(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, routing.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get ticket").SetInternal(err)
	}

	classification, err := s.Advisor.Classify(c.Request().Context(), ticket)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "advisor classification failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, classification)
}

func toTicketResponse(ticket *store.Ticket) *ticketResponse {
	return &ticketResponse{
		UID:           ticket.UID,
		RequestType:   ticket.RequestType,
		Priority:      ticket.Priority,
		CustomerEmail: ticket.CustomerEmail,
		Summary:       ticket.Summary,
		Data:          ticket.Payload,
		Assignee:      ticket.Assignee,
		Status:        ticket.Status,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}
