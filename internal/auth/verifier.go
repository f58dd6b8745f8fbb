// File: internal/auth/verifier.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
)

// GinClaimsKey is the gin context key under which the verified token claims
// are stored by the authentication middleware.
const GinClaimsKey = "auth.tokenClaims"

// TokenClaims is the subset of verified claims the application consumes. The
// email-verified flag is a custom claim namespaced under the API audience,
// the way the identity provider's actions inject it.
type TokenClaims struct {
	Subject       string
	EmailVerified bool
}

// ClaimsFromGin returns the verified claims set by the authentication
// middleware, or ok=false on routes outside the token barrier.
func ClaimsFromGin(c *gin.Context) (*TokenClaims, bool) {
	val, exists := c.Get(GinClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*TokenClaims)
	return claims, ok
}

// Verifier checks an inbound bearer token's signature and claims against the
// identity provider.
type Verifier interface {
	Verify(tokenString string) (*TokenClaims, error)
}

// JWKSVerifier verifies RS256 tokens against the issuer's published JWKS,
// with a background refresh of the key set.
type JWKSVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
	logger   *zap.Logger
}

var _ Verifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier fetches the issuer's key set and returns a verifier bound
// to the configured issuer and audience.
func NewJWKSVerifier(cfg *config.Config, logger *zap.Logger) (*JWKSVerifier, error) {
	jwksURL := strings.TrimSuffix(cfg.AuthIssuerURL, "/") + "/.well-known/jwks.json"

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return &JWKSVerifier{
		jwks:     jwks,
		issuer:   cfg.AuthIssuerURL,
		audience: cfg.AuthAudience,
		logger:   logger.Named("verifier"),
	}, nil
}

// Verify validates the token signature (RS256), expiry, issuer and audience,
// and extracts the subject and the namespaced email-verified claim.
func (v *JWKSVerifier) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, common.ErrUnauthorized.WithCause(err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, common.ErrUnauthorized.WithPayload(map[string]any{"reason": "unexpected claims type"})
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, common.ErrUnauthorized.WithPayload(map[string]any{"reason": "missing token subject"})
	}

	emailVerified, _ := mapClaims[v.audience+"/email_verified"].(bool)

	return &TokenClaims{
		Subject:       subject,
		EmailVerified: emailVerified,
	}, nil
}

// Close stops the background JWKS refresh.
func (v *JWKSVerifier) Close() {
	v.jwks.EndBackground()
}
