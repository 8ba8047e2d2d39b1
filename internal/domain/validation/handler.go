package validation

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "hospital_staff"))
	g.POST("/validations/preauth", h.RunPreauth)
	g.POST("/validations/discharge", h.RunDischarge)
}

type preauthRequest struct {
	claim.Snapshot
	// Save stores the snapshot and result under a claim reference for
	// later discharge reconciliation.
	Save bool `json:"save,omitempty"`
}

type dischargeRequest struct {
	claim.Snapshot
	// PriorReference resolves the stored pre-auth claim to reconcile
	// against. Optional; an inline prior_preauth_snapshot or no
	// baseline at all are both accepted.
	PriorReference string `json:"prior_reference,omitempty"`
}

type runResponse struct {
	Result      *AggregatedResult `json:"result"`
	Summaries   Summaries         `json:"summaries"`
	ReferenceID string            `json:"reference_id,omitempty"`
}

func (h *Handler) RunPreauth(c echo.Context) error {
	var req preauthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	agg, err := h.svc.RunPreauth(ctx, &req.Snapshot)
	if err != nil {
		var pre *PreconditionError
		if errors.As(err, &pre) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]string{
				"error":  "unresolvable_reference",
				"detail": pre.Err.Error(),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := runResponse{Result: agg, Summaries: BuildSummaries(agg)}
	if req.Save {
		ref, err := h.svc.Persist(ctx, &req.Snapshot, agg)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.ReferenceID = ref
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) RunDischarge(c echo.Context) error {
	var req dischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if req.PriorReference != "" && req.PriorPreauth == nil {
		prior, err := h.svc.ResolvePrior(ctx, req.PriorReference)
		switch {
		case err == nil:
			req.PriorPreauth = prior
		case errors.Is(err, claim.ErrNotFound):
			// Not fatal: reconciliation reports the missing baseline.
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	agg, err := h.svc.RunDischarge(ctx, &req.Snapshot)
	if err != nil {
		var pre *PreconditionError
		if errors.As(err, &pre) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]string{
				"error":  "unresolvable_reference",
				"detail": pre.Err.Error(),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runResponse{Result: agg, Summaries: BuildSummaries(agg)})
}
