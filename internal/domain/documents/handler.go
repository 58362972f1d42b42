package documents

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/envelope"
)

// formFile is the multipart field carrying the document.
const formFile = "document"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the document routes on an authenticated group.
// documentId contains a slash and must be sent URL-encoded.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents", h.UploadDocument)
	api.GET("/documents/:documentId/url", h.GetPresignedURL)
	api.GET("/documents/:documentId/status", h.GetStatus)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("", "Authentication required")
	}
	return u.UserID, nil
}

func documentIDParam(c echo.Context) (string, error) {
	id, err := url.PathUnescape(c.Param("documentId"))
	if err != nil || id == "" {
		return "", apperror.Validation(apperror.CodeBadRequest, "Invalid document id")
	}
	return id, nil
}

func (h *Handler) UploadDocument(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(formFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return apperror.Validation(apperror.CodeNoFile, "No file uploaded.")
		}
		return err
	}
	f, err := fh.Open()
	if err != nil {
		return apperror.Internal(apperror.CodeUploadFailed, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(content)
	}

	result, err := h.svc.Upload(c.Request().Context(), Upload{
		UserID:       userID,
		FileName:     fh.Filename,
		ContentType:  contentType,
		Content:      content,
		DocumentType: c.FormValue("documentType"),
		Description:  c.FormValue("description"),
	})
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, result)
}

func (h *Handler) GetPresignedURL(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	documentID, err := documentIDParam(c)
	if err != nil {
		return err
	}
	out, err := h.svc.PresignedURL(c.Request().Context(), userID, documentID)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, out)
}

func (h *Handler) GetStatus(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	documentID, err := documentIDParam(c)
	if err != nil {
		return err
	}
	st, err := h.svc.Status(c.Request().Context(), userID, documentID)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, st)
}
