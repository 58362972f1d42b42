package claims

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/envelope"
	"github.com/jay270804/medical-claim-processing-server/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the claim routes on an authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/claims", h.ListClaims)
	api.GET("/claims/export", h.ExportClaims)
	api.GET("/claims/:claimId", h.GetClaim)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("", "Authentication required")
	}
	return u.UserID, nil
}

func (h *Handler) ListClaims(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	f := ListFilter{
		Status:        c.QueryParam("status"),
		SortBy:        c.QueryParam("sortBy"),
		SortDirection: c.QueryParam("sortDirection"),
	}
	result, err := h.svc.List(c.Request().Context(), userID, f, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, result)
}

func (h *Handler) GetClaim(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("claimId"))
	if err != nil {
		return apperror.NotFound("Claim not found")
	}
	claim, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, claim)
}

func (h *Handler) ExportClaims(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	data, err := h.svc.ExportXLSX(c.Request().Context(), userID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="claims.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
