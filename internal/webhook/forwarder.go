package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"agridash/internal/config"
	"agridash/internal/types"
)

// Delivery status values reported in DeliveryResult.Status.
const (
	StatusDelivered = "delivered"
	StatusRetryable = "retryable"
	StatusPermanent = "permanent"
	StatusTerminal  = "terminal"
	StatusDisabled  = "disabled"
)

// maxResponseBodyRead limits how much of a response body is read when
// draining connections for reuse.
const maxResponseBodyRead = 4096

// Event is the envelope posted to the configured webhook.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Forwarder delivers listing events to the configured webhook URL. Delivery
// is best-effort: failures are reported to the caller as a DeliveryResult,
// never as a hard error, so a broken receiver cannot block the board.
type Forwarder struct {
	cfg        config.WebhookConfig
	httpClient *http.Client
	signer     *Signer
	logger     *slog.Logger
	clock      types.Clock
}

// NewForwarder creates a Forwarder. When the configuration has no listings
// URL, Deliver reports StatusDisabled without making a request.
func NewForwarder(cfg config.WebhookConfig, logger *slog.Logger, clock types.Clock) *Forwarder {
	return &Forwarder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		signer:     NewSigner(cfg),
		logger:     logger,
		clock:      clock,
	}
}

// Deliver posts the event to the webhook and categorizes the response:
//
//   - 2xx: delivered
//   - 429: retryable, carrying any Retry-After hint
//   - 410 Gone: terminal, the receiver has opted out
//   - other 4xx: permanent, the payload or configuration is wrong
//   - 5xx and transport errors: retryable
func (f *Forwarder) Deliver(ctx context.Context, eventType string, data any) types.DeliveryResult {
	if !f.cfg.ForwardingEnabled() {
		return types.DeliveryResult{Status: StatusDisabled}
	}

	now := f.clock.Now()
	event := Event{
		ID:         fmt.Sprintf("evt_%d", now.UnixNano()),
		Type:       eventType,
		OccurredAt: now,
		Data:       data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to marshal webhook event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return types.DeliveryResult{Status: StatusPermanent}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.ListingsURL, bytes.NewReader(payload))
	if err != nil {
		return types.DeliveryResult{Status: StatusPermanent}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if f.cfg.Secret.Unmask() != "" {
		sig, err := f.signer.Sign(payload, now)
		if err != nil {
			return types.DeliveryResult{Status: StatusPermanent}
		}
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.WarnContext(ctx, "webhook delivery failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return types.DeliveryResult{Status: StatusRetryable, Retryable: true}
	}
	defer func() {
		io.CopyN(io.Discard, resp.Body, maxResponseBodyRead)
		resp.Body.Close()
	}()

	result := categorizeResponse(resp)
	if result.Status != StatusDelivered {
		f.logger.WarnContext(ctx, "webhook delivery rejected",
			slog.String("event_type", eventType),
			slog.Int("status_code", resp.StatusCode),
			slog.String("delivery_status", result.Status),
		)
	}
	return result
}

func categorizeResponse(resp *http.Response) types.DeliveryResult {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return types.DeliveryResult{Status: StatusDelivered, StatusCode: code}
	case code == http.StatusTooManyRequests:
		return types.DeliveryResult{
			Status:     StatusRetryable,
			StatusCode: code,
			Retryable:  true,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case code == http.StatusGone:
		// The receiver has permanently opted out; stop forwarding.
		return types.DeliveryResult{Status: StatusTerminal, StatusCode: code, Terminal: true}
	case code >= 400 && code < 500:
		return types.DeliveryResult{Status: StatusPermanent, StatusCode: code}
	default:
		return types.DeliveryResult{Status: StatusRetryable, StatusCode: code, Retryable: true}
	}
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if wait := time.Until(t); wait > 0 {
			return wait
		}
	}
	return 0
}
