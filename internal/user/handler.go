// File: internal/user/handler.go
package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"engla_backend/internal/common"
)

// Handler serves the profile routes. All of them sit behind the full access
// barrier, so CurrentUser is always populated.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("UserHandler")}
}

// RegisterRoutes mounts the profile routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/users/me")
	me.GET("", h.GetMe)
	me.PATCH("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)
	me.POST("/avatar", h.UploadAvatar)
}

// GetMe returns the authenticated user's profile.
func (h *Handler) GetMe(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(common.ErrUnauthorized)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", ToResponse(current))
}

// UpdateMe applies a partial profile update.
func (h *Handler) UpdateMe(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(common.ErrUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	req.Normalize()
	if err := common.Validate.Struct(&req); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), current.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", ToResponse(updated))
}

// DeleteMe deactivates the authenticated user's account.
func (h *Handler) DeleteMe(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(common.ErrUnauthorized)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), current.ID); err != nil {
		_ = c.Error(err)
		return
	}
	common.RespondNoContent(c)
}

// UploadAvatar accepts a multipart form with a single "avatar" file field.
func (h *Handler) UploadAvatar(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		_ = c.Error(common.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			_ = c.Error(err)
			return
		}
		_ = c.Error(common.NewUploadError(common.UploadUnexpectedField,
			"Expected a single file under the \"avatar\" field.", err))
		return
	}

	updated, err := h.service.UpdateAvatar(c.Request.Context(), current, fileHeader)
	if err != nil {
		_ = c.Error(err)
		return
	}
	common.RespondOK(c, "Avatar updated successfully.", ToResponse(updated))
}
