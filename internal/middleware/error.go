// File: internal/middleware/error.go
package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
	"engla_backend/internal/requestctx"
)

const panicStackKey = "middleware.panicStack"

// Masked message returned for unclassified errors outside development.
const genericInternalMessage = "Something went wrong. Please try again later."

// ErrorHandler is the single terminal handler of the pipeline: it classifies
// any error surfaced during request processing, logs it exactly once and
// writes exactly one uniform error envelope.
func ErrorHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		writeClassified(c, cfg, c.Errors[0].Err)
	}
}

// Recovery converts panics into the uniform envelope instead of gin's bare
// 500, keeping the captured stack for the log and for development responses.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.Set(panicStackKey, debug.Stack())
		err, ok := recovered.(error)
		if !ok {
			err = errors.New(http.StatusText(http.StatusInternalServerError))
		}
		_ = c.Error(err)
		c.Abort()
	})
}

// NotFoundHandler produces the uniform envelope for unmatched routes.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(common.NewAPIError(http.StatusNotFound, "The requested endpoint does not exist."))
	}
}

// MethodNotAllowedHandler produces the uniform envelope for known routes hit
// with the wrong method.
func MethodNotAllowedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(common.NewAPIError(http.StatusMethodNotAllowed, "The method is not allowed for the requested URL."))
	}
}

type classification struct {
	statusCode int
	code       string
	message    string
	validation []common.FieldError
	internal   []zap.Field
}

func classify(err error, cfg *config.Config) classification {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		out := classification{
			statusCode: apiErr.StatusCode,
			code:       apiErr.Code(),
			message:    apiErr.Message,
		}
		if apiErr.InternalPayload != nil {
			out.internal = append(out.internal, zap.Any("internal_payload", apiErr.InternalPayload))
		}
		if cause := errors.Unwrap(apiErr); cause != nil {
			out.internal = append(out.internal, zap.NamedError("original_error", cause))
		}
		return out
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return classification{
			statusCode: http.StatusBadRequest,
			code:       common.CodeValidationError,
			message:    "Input validation failed.",
			validation: common.FormatValidationErrors(validationErrs),
		}
	}

	var uploadErr *common.UploadError
	if errors.As(err, &uploadErr) {
		return classification{
			statusCode: uploadErr.StatusCode(),
			code:       common.CodeUploadError,
			message:    uploadErr.Message,
			internal:   []zap.Field{zap.NamedError("original_error", err)},
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return classification{
			statusCode: http.StatusRequestEntityTooLarge,
			code:       common.CodeUploadError,
			message:    "Request body exceeds the allowed size.",
			internal:   []zap.Field{zap.Int64("limit_bytes", maxBytesErr.Limit)},
		}
	}

	if isJSONParseError(err) {
		return classification{
			statusCode: http.StatusBadRequest,
			code:       common.CodeJSONParseError,
			message:    "Invalid JSON payload.",
			internal:   []zap.Field{zap.NamedError("original_error", err)},
		}
	}

	out := classification{
		statusCode: http.StatusInternalServerError,
		code:       common.CodeInternalError,
		internal: []zap.Field{
			zap.NamedError("original_error", err),
		},
	}
	if cfg.IsDevelopment() {
		out.message = err.Error()
	} else {
		out.message = genericInternalMessage
	}
	return out
}

func isJSONParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func writeClassified(c *gin.Context, cfg *config.Config, err error) {
	result := classify(err, cfg)

	traceID := requestctx.GinTraceID(c)
	if traceID == "" {
		traceID = requestctx.NewTraceID()
	}

	stack := stackFor(c, result.statusCode)

	logFields := []zap.Field{
		zap.String("url", c.Request.URL.String()),
		zap.String("method", c.Request.Method),
		zap.String("ip", c.ClientIP()),
		zap.String("trace_id", traceID),
		zap.Int("status_code", result.statusCode),
		zap.String("error_message", result.message),
	}
	logFields = append(logFields, result.internal...)
	if stack != nil {
		logFields = append(logFields, zap.ByteString("stack", stack))
	}

	log := requestctx.GinLogger(c)
	if result.statusCode >= 500 {
		log.Error("API error", logFields...)
	} else {
		log.Warn("API error", logFields...)
	}

	if c.Writer.Written() {
		return
	}

	response := common.ErrorResponse{
		Status:     "error",
		Message:    result.message,
		Code:       result.code,
		TraceID:    traceID,
		Validation: result.validation,
	}
	// Stack traces leak to clients only for 5xx responses in development.
	if cfg.IsDevelopment() && result.statusCode >= 500 && stack != nil {
		response.Stack = string(stack)
	}

	c.AbortWithStatusJSON(result.statusCode, response)
}

// stackFor returns the panic stack when one was captured, else a stack of
// the current goroutine for unclassified 5xx failures.
func stackFor(c *gin.Context, statusCode int) []byte {
	if raw, exists := c.Get(panicStackKey); exists {
		if stack, ok := raw.([]byte); ok {
			return stack
		}
	}
	if statusCode >= 500 {
		return debug.Stack()
	}
	return nil
}
