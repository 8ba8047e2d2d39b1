package claim

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claimready/claimready/internal/platform/auth"
	"github.com/claimready/claimready/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "hospital_staff"))
	g.GET("/claims", h.ListClaims)
	g.GET("/claims/:reference", h.GetClaim)
}

func (h *Handler) GetClaim(c echo.Context) error {
	stored, err := h.svc.Get(c.Request().Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stored)
}

func (h *Handler) ListClaims(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset)
	resp.Links = pg.Links(c.Path(), total)
	return c.JSON(http.StatusOK, resp)
}
