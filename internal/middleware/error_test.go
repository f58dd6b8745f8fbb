// File: internal/middleware/error_test.go
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
	"engla_backend/internal/requestctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(cfg *config.Config, register func(*gin.Engine)) *gin.Engine {
	return newTestRouterWithLogger(cfg, zap.NewNop(), register)
}

func newTestRouterWithLogger(cfg *config.Config, logger *zap.Logger, register func(*gin.Engine)) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(ErrorHandler(cfg))
	router.Use(Recovery())
	register(router)
	return router
}

func performRequest(router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var envelope common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestErrorHandler_APIError(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/boom", func(c *gin.Context) {
			_ = c.Error(common.ErrNotFound)
		})
	})

	w := performRequest(router, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "error", envelope.Status)
	assert.Equal(t, "HTTP_404", envelope.Code)
	assert.NotEmpty(t, envelope.TraceID)
	assert.Empty(t, envelope.Stack)
}

func TestErrorHandler_ValidationError(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}

	type payload struct {
		Email string `validate:"required,email"`
	}

	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.POST("/validate", func(c *gin.Context) {
			_ = c.Error(common.Validate.Struct(&payload{Email: "nope"}))
		})
	})

	w := performRequest(router, http.MethodPost, "/validate", "{}")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, common.CodeValidationError, envelope.Code)
	require.Len(t, envelope.Validation, 1)
	assert.Equal(t, "email", envelope.Validation[0].Path)
}

func TestErrorHandler_JSONParseError(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.POST("/parse", func(c *gin.Context) {
			var out map[string]any
			if err := c.ShouldBindJSON(&out); err != nil {
				_ = c.Error(err)
				return
			}
			c.Status(http.StatusOK)
		})
	})

	w := performRequest(router, http.MethodPost, "/parse", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, common.CodeJSONParseError, envelope.Code)
}

func TestErrorHandler_InternalErrorMaskedInProduction(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvProduction}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/internal", func(c *gin.Context) {
			_ = c.Error(errors.New("pq: connection refused on 10.0.0.5"))
		})
	})

	w := performRequest(router, http.MethodGet, "/internal", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, common.CodeInternalError, envelope.Code)
	assert.NotContains(t, envelope.Message, "10.0.0.5")
	assert.Empty(t, envelope.Stack)
}

func TestErrorHandler_InternalErrorMaskedInStaging(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvStaging}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/internal", func(c *gin.Context) {
			_ = c.Error(errors.New("pq: connection refused on 10.0.0.5"))
		})
	})

	w := performRequest(router, http.MethodGet, "/internal", "")

	// Only development exposes details; staging masks like production.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.NotContains(t, envelope.Message, "10.0.0.5")
	assert.Empty(t, envelope.Stack)
}

func TestErrorHandler_InternalErrorExposedInDevelopment(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/internal", func(c *gin.Context) {
			_ = c.Error(errors.New("something specific broke"))
		})
	})

	w := performRequest(router, http.MethodGet, "/internal", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "something specific broke", envelope.Message)
	assert.NotEmpty(t, envelope.Stack)
}

func TestErrorHandler_PanicRecovered(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvProduction}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/panic", func(c *gin.Context) {
			panic(errors.New("boom"))
		})
	})

	w := performRequest(router, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, common.CodeInternalError, envelope.Code)
	assert.Empty(t, envelope.Stack)
}

func TestErrorHandler_UploadError(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			_ = c.Error(common.NewUploadError(common.UploadSizeLimit, "File too large.", nil))
		})
	})

	w := performRequest(router, http.MethodPost, "/upload", "{}")

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, common.CodeUploadError, envelope.Code)
}

func TestRequestLogger_TraceIDEcho(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/ok", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Add(requestctx.TraceIDHeader, "client-trace-1")
	req.Header.Add(requestctx.TraceIDHeader, "client-trace-2")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// First header value wins; the response echoes it.
	assert.Equal(t, "client-trace-1", w.Header().Get(requestctx.TraceIDHeader))
}

func TestRequestLogger_GeneratedTraceID(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.GET("/ok", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := performRequest(router, http.MethodGet, "/ok", "")

	traceID := w.Header().Get(requestctx.TraceIDHeader)
	assert.Len(t, traceID, 26)
}

func TestRequestLogger_CompletionLogRecordsEnvelopeStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouterWithLogger(cfg, zap.New(core), func(r *gin.Engine) {
		r.GET("/boom", func(c *gin.Context) {
			_ = c.Error(common.ErrNotFound)
		})
	})

	w := performRequest(router, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// The completion log runs after the envelope is written, so it carries
	// the status the client saw, at warn for a 4xx.
	entries := logs.FilterMessage("Request handled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status_code"])
}

func TestNotFoundEnvelope(t *testing.T) {
	cfg := &config.Config{AppEnv: config.EnvDevelopment}
	router := newTestRouter(cfg, func(r *gin.Engine) {
		r.NoRoute(NotFoundHandler())
	})

	w := performRequest(router, http.MethodGet, "/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "HTTP_404", envelope.Code)
}
