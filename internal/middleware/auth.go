// File: internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"engla_backend/internal/auth"
	"engla_backend/internal/common"
	"engla_backend/internal/requestctx"
	"engla_backend/internal/user"
)

// RequireToken verifies the bearer token and stores the verified claims in
// the gin context. It does not consult the user store; the login route sits
// behind this middleware alone because its job is to create the local record.
func RequireToken(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(auth.GinClaimsKey, claims)
		c.Next()
	}
}

// RequireUser is the full access barrier: on top of token verification it
// resolves the local user record. A verified token with no matching local
// record is a 401 (the caller never completed login); a soft-deleted record
// is a 403.
func RequireUser(verifier auth.Verifier, repo user.Repository) gin.HandlerFunc {
	verifyToken := RequireToken(verifier)

	return func(c *gin.Context) {
		verifyToken(c)
		if c.IsAborted() {
			return
		}

		claims, ok := auth.ClaimsFromGin(c)
		if !ok {
			_ = c.Error(common.ErrUnauthorized)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		record, err := repo.FindBySubjectID(ctx, claims.Subject)
		if err == nil {
			c.Set(user.GinUserKey, record)
			c.Next()
			return
		}

		if deleted, unscopedErr := repo.FindBySubjectIDUnscoped(ctx, claims.Subject); unscopedErr == nil && deleted.DeletedAt.Valid {
			requestctx.GinLogger(c).Warn("Deactivated account attempted access",
				zap.String("userID", deleted.ID.String()),
			)
			_ = c.Error(common.ErrForbidden.WithPayload(map[string]any{"reason": "account deactivated"}))
			c.Abort()
			return
		}

		_ = c.Error(common.ErrUnauthorized.WithPayload(map[string]any{"reason": "no local account for token subject"}))
		c.Abort()
	}
}

func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", common.ErrUnauthorized.WithPayload(map[string]any{"reason": "missing Authorization header"})
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", common.ErrUnauthorized.WithPayload(map[string]any{"reason": "malformed Authorization header"})
	}
	return parts[1], nil
}
