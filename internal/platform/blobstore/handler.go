package blobstore

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
)

// Handler serves blob content to holders of a presigned URL. It is mounted
// outside the JWT-protected group; the signature is the credential.
type Handler struct {
	store     Store
	presigner *Presigner
}

func NewHandler(store Store, presigner *Presigner) *Handler {
	return &Handler{store: store, presigner: presigner}
}

// RegisterRoutes mounts GET /files/* on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/files/*", h.Download)
}

func (h *Handler) Download(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("*"))
	if err != nil || key == "" {
		return apperror.Validation(apperror.CodeBadRequest, "Invalid file key")
	}

	filename := c.QueryParam("filename")
	if err := h.presigner.Verify(key, c.QueryParam("expires"), filename, c.QueryParam("signature")); err != nil {
		if errors.Is(err, ErrSignatureExpired) {
			return apperror.Forbidden("Download link has expired")
		}
		return apperror.Forbidden("Invalid download signature")
	}

	rc, meta, err := h.store.Get(c.Request().Context(), key)
	if errors.Is(err, ErrBlobNotFound) {
		return apperror.NotFound("File not found")
	}
	if err != nil {
		return apperror.Internal("", err)
	}
	defer rc.Close()

	if filename == "" {
		filename = meta.FileName
	}
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, meta.ContentType)
	resp.Header().Set(echo.HeaderContentLength, strconv.FormatInt(meta.Size, 10))
	if filename != "" {
		resp.Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	resp.WriteHeader(http.StatusOK)
	_, err = io.Copy(resp, rc)
	return err
}
