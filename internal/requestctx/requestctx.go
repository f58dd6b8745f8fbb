// File: internal/requestctx/requestctx.go

// Package requestctx carries the per-request store (trace ID and a
// request-bound logger) on context.Context so that every call descended from
// a request can reach it without explicit parameter threading.
package requestctx

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TraceIDHeader is the inbound header a client may use to propagate its own
// trace identifier. Only the first value is honored.
const TraceIDHeader = "X-Request-ID"

// GinStoreKey is the gin context key under which the store is mirrored for
// code that holds a *gin.Context rather than a context.Context.
const GinStoreKey = "requestctx.store"

type ctxKey struct{}

// Store is the per-request state. It is created once per request, never
// shared between requests and discarded after the response completes.
type Store struct {
	TraceID string
	Logger  *zap.Logger
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewTraceID generates a fresh 26-character, lexicographically sortable
// trace identifier.
func NewTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// With returns a context carrying the store.
func With(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, store)
}

// From returns the active store, or ok=false when invoked outside any request
// scope (process startup, background jobs).
func From(ctx context.Context) (*Store, bool) {
	store, ok := ctx.Value(ctxKey{}).(*Store)
	return store, ok
}

// TraceID returns the trace ID of the current request, or "" outside a
// request scope.
func TraceID(ctx context.Context) string {
	if store, ok := From(ctx); ok {
		return store.TraceID
	}
	return ""
}

// Logger returns the request-bound logger, falling back to the process-wide
// logger when no request scope is active.
func Logger(ctx context.Context) *zap.Logger {
	if store, ok := From(ctx); ok && store.Logger != nil {
		return store.Logger
	}
	return zap.L()
}

// Bind attaches the store to both the gin context and the request context so
// that handlers and the service layer observe the same store.
func Bind(c *gin.Context, store *Store) {
	c.Set(GinStoreKey, store)
	c.Request = c.Request.WithContext(With(c.Request.Context(), store))
}

// FromGin returns the store mirrored on a gin context.
func FromGin(c *gin.Context) (*Store, bool) {
	val, exists := c.Get(GinStoreKey)
	if !exists {
		return nil, false
	}
	store, ok := val.(*Store)
	return store, ok
}

// GinTraceID returns the trace ID bound to a gin context, or "" when the
// request logger middleware has not run.
func GinTraceID(c *gin.Context) string {
	if store, ok := FromGin(c); ok {
		return store.TraceID
	}
	return ""
}

// GinLogger returns the request-bound logger from a gin context, falling back
// to the process-wide logger.
func GinLogger(c *gin.Context) *zap.Logger {
	if store, ok := FromGin(c); ok && store.Logger != nil {
		return store.Logger
	}
	return zap.L()
}
