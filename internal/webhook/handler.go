// File: internal/webhook/handler.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
	"engla_backend/internal/requestctx"
)

// SignatureHeader carries the timestamp and HMAC of the payload, in the
// provider's "t=<unix>,v1=<hex>" format.
const SignatureHeader = "Stripe-Signature"

// Payloads above this size are rejected before signature verification. The
// route is exempt from the global body ceiling because the signature covers
// the exact raw bytes.
const maxPayloadBytes = 256 << 10

// Signed events older than this are replay attempts.
const signatureTolerance = 5 * time.Minute

// Events already processed are remembered in the cache for this long.
const dedupTTL = 24 * time.Hour

// Handler verifies and dispatches provider webhook events.
type Handler struct {
	secret string
	cache  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg *config.Config, cache *redis.Client, logger *zap.Logger) *Handler {
	return &Handler{
		secret: cfg.StripeWebhookSecret,
		cache:  cache,
		logger: logger.Named("WebhookHandler"),
		now:    time.Now,
	}
}

// RegisterRoutes mounts the webhook routes on the given group. The group must
// bypass the authentication barrier and the global body limit.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stripe", h.HandleStripe)
}

type event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleStripe verifies the payload signature over the raw body and accepts
// the event with 204. Duplicate deliveries of an already-processed event are
// acknowledged without reprocessing.
func (h *Handler) HandleStripe(c *gin.Context) {
	log := requestctx.GinLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil {
		_ = c.Error(common.NewAPIError(http.StatusBadRequest, "Unable to read webhook payload."))
		return
	}
	if int64(len(payload)) > maxPayloadBytes {
		_ = c.Error(common.NewAPIError(http.StatusRequestEntityTooLarge, "Webhook payload too large."))
		return
	}

	if err := h.verifySignature(payload, c.GetHeader(SignatureHeader)); err != nil {
		log.Warn("Webhook signature verification failed", zap.Error(err))
		_ = c.Error(common.NewAPIError(http.StatusBadRequest, "Invalid webhook signature.").WithCause(err))
		return
	}

	var evt event
	if err := json.Unmarshal(payload, &evt); err != nil || evt.ID == "" {
		_ = c.Error(common.NewAPIError(http.StatusBadRequest, "Malformed webhook event.").WithCause(err))
		return
	}

	seen, err := h.markProcessed(c, evt.ID)
	if err != nil {
		// Cache unavailability must not drop provider events; process anyway.
		log.Warn("Webhook dedup cache unavailable", zap.Error(err))
	}
	if seen {
		log.Info("Duplicate webhook event acknowledged", zap.String("event_id", evt.ID))
		c.Status(http.StatusNoContent)
		return
	}

	log.Info("Webhook event accepted",
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type),
	)
	c.Status(http.StatusNoContent)
}

// verifySignature checks the "t=<unix>,v1=<hex>" header: the HMAC-SHA256 of
// "<t>.<payload>" under the endpoint secret, within the replay tolerance.
func (h *Handler) verifySignature(payload []byte, header string) error {
	if h.secret == "" {
		return fmt.Errorf("webhook secret is not configured")
	}
	if header == "" {
		return fmt.Errorf("missing %s header", SignatureHeader)
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = parsed
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, decoded)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("signature header missing timestamp or v1 signature")
	}

	age := h.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		if hmac.Equal(expected, signature) {
			return nil
		}
	}
	return fmt.Errorf("no matching v1 signature")
}

// markProcessed records the event ID in the cache; returns true when the
// event was already recorded by an earlier delivery.
func (h *Handler) markProcessed(c *gin.Context, eventID string) (bool, error) {
	if h.cache == nil {
		return false, nil
	}
	key := "webhook:stripe:" + eventID
	created, err := h.cache.SetNX(c.Request.Context(), key, 1, dedupTTL).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}
