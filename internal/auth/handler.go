// File: internal/auth/handler.go
package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/user"
)

// Handler serves the authentication routes.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new authentication handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("AuthHandler")}
}

// RegisterRoutes mounts the authentication routes on the given group. The
// group must sit behind the token-verification middleware (not the full
// barrier: the local record may not exist yet).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

// Login syncs the verified identity with the local user store and returns
// the resolved record.
func (h *Handler) Login(c *gin.Context) {
	claims, ok := ClaimsFromGin(c)
	if !ok {
		_ = c.Error(common.ErrUnauthorized.WithPayload(map[string]any{"reason": "missing token claims"}))
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	req.Normalize()
	if err := common.Validate.Struct(&req); err != nil {
		_ = c.Error(err)
		return
	}

	resolved, err := h.service.SyncUser(c.Request.Context(), SyncParams{
		SubjectID:     claims.Subject,
		EmailVerified: claims.EmailVerified,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		AvatarURL:     req.AvatarURL,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondOK(c, "Login successful.", user.ToResponse(resolved))
}
