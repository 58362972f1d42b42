package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/envelope"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the unauthenticated auth routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation(apperror.CodeBadRequest, "Invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return envelope.OKWithMessage(c, http.StatusCreated, "User registered successfully", u)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation(apperror.CodeBadRequest, "Invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, res)
}
