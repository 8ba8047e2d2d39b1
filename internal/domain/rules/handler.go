package rules

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claimready/claimready/pkg/pagination"
)

// Handler exposes the read-only rule catalog, used by upstream form
// builders to populate insurer/policy and procedure pickers.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/policies", h.ListPolicies)
	api.GET("/policies/:insurer/:policy", h.GetPolicy)
	api.GET("/procedures", h.ListProcedures)
	api.GET("/procedures/:id", h.GetProcedure)
	api.GET("/procedures/resolve", h.ResolveProcedure)
}

func (h *Handler) ListPolicies(c echo.Context) error {
	pg := pagination.FromContext(c)
	all := h.store.Policies()
	return c.JSON(http.StatusOK, pagination.NewResponse(page(all, pg), len(all), pg.Limit, pg.Offset))
}

func (h *Handler) GetPolicy(c echo.Context) error {
	p, err := h.store.PolicyRule(c.Param("insurer"), c.Param("policy"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	pg := pagination.FromContext(c)
	all := h.store.Procedures()
	return c.JSON(http.StatusOK, pagination.NewResponse(page(all, pg), len(all), pg.Limit, pg.Offset))
}

func (h *Handler) GetProcedure(c echo.Context) error {
	p, err := h.store.Procedure(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ResolveProcedure(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	p, err := h.store.ResolveProcedure(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no matching procedure")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func page[T any](all []T, pg pagination.Params) []T {
	if pg.Offset >= len(all) {
		return []T{}
	}
	end := pg.Offset + pg.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[pg.Offset:end]
}
