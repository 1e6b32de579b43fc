package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/dispatchsense/store"
)

type createRuleRequest struct {
	Name      string         `json:"name"`
	Predicate map[string]any `json:"predicate"`
	Assignees []string       `json:"assignees"`
	Active    *bool          `json:"active"`
	Order     int32          `json:"order"`
}

type updateRuleRequest struct {
	Name      *string         `json:"name"`
	Predicate *map[string]any `json:"predicate"`
	Assignees *[]string       `json:"assignees"`
	Active    *bool           `json:"active"`
	Order     *int32          `json:"order"`
}

type ruleResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name,omitempty"`
	Predicate map[string]any `json:"predicate"`
	Assignees []string       `json:"assignees"`
	Active    bool           `json:"active"`
	Order     int32          `json:"order"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *APIV1Service) ListRoutingRules(c echo.Context) error {
	find := &store.FindRoutingRule{}
	if activeParam := c.QueryParam("active"); activeParam != "" {
		active, err := strconv.ParseBool(activeParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active filter")
		}
		find.Active = &active
	}

	rules, err := s.Store.ListRoutingRules(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list routing rules").SetInternal(err)
	}

	response := make([]*ruleResponse, 0, len(rules))
	for _, rule := range rules {
		response = append(response, toRuleResponse(rule))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) CreateRoutingRule(c echo.Context) error {
	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Assignees) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "assignees must not be empty")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rule, err := s.Store.CreateRoutingRule(c.Request().Context(), &store.RoutingRule{
		Name:      req.Name,
		Predicate: req.Predicate,
		Assignees: req.Assignees,
		Active:    active,
		EvalOrder: req.Order,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create routing rule").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, toRuleResponse(rule))
}

func (s *APIV1Service) UpdateRoutingRule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}

	var req updateRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Assignees != nil && len(*req.Assignees) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "assignees must not be empty")
	}

	rule, err := s.Store.UpdateRoutingRule(c.Request().Context(), &store.UpdateRoutingRule{
		ID:        id,
		Name:      req.Name,
		Predicate: req.Predicate,
		Assignees: req.Assignees,
		Active:    req.Active,
		EvalOrder: req.Order,
	})
	if err != nil {
		if errors.Is(err, store.ErrRuleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "routing rule not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update routing rule").SetInternal(err)
	}
	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

func (s *APIV1Service) DeleteRoutingRule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}

	if err := s.Store.DeleteRoutingRule(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrRuleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "routing rule not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete routing rule").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toRuleResponse(rule *store.RoutingRule) *ruleResponse {
	return &ruleResponse{
		ID:        rule.ID,
		Name:      rule.Name,
		Predicate: rule.Predicate,
		Assignees: rule.Assignees,
		Active:    rule.Active,
		Order:     rule.EvalOrder,
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}
