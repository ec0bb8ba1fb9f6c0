package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridash/internal/config"
	"agridash/internal/types"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func forwarderFor(t *testing.T, url string, cfgMut ...func(*config.WebhookConfig)) *Forwarder {
	t.Helper()
	cfg := config.WebhookConfig{
		ListingsURL: url,
		Secret:      types.SecretString("current-secret"),
		UserAgent:   "agridash-test/1.0",
		Timeout:     5 * time.Second,
	}
	for _, mut := range cfgMut {
		mut(&cfg)
	}
	clock := fixedClock{now: time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)}
	return NewForwarder(cfg, testLogger(), clock)
}

// --- Signer ---

func TestSigner_SignAndVerify(t *testing.T) {
	cfg := config.WebhookConfig{Secret: types.SecretString("current-secret")}
	signer := NewSigner(cfg)
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	payload := []byte(`{"hello":"world"}`)
	header, err := signer.Sign(payload, now)
	require.NoError(t, err)
	assert.Regexp(t, `^t=\d+,v1=[0-9a-f]{64}$`, header)

	assert.True(t, signer.Verify(payload, header))
	assert.False(t, signer.Verify([]byte(`{"tampered":true}`), header))
	assert.False(t, signer.Verify(payload, "t=1,v1=deadbeef"))
}

func TestSigner_NoSecret(t *testing.T) {
	signer := NewSigner(config.WebhookConfig{})
	_, err := signer.Sign([]byte("x"), time.Now())
	require.Error(t, err)
}

func TestSigner_DualValidityWithinGrace(t *testing.T) {
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	cfg := config.WebhookConfig{
		Secret:                  types.SecretString("new-secret"),
		PreviousSecret:          types.SecretString("old-secret"),
		PreviousSecretExpiresAt: now.Add(24 * time.Hour).Format(time.RFC3339),
	}
	signer := NewSigner(cfg)

	payload := []byte(`{"hello":"world"}`)
	header, err := signer.Sign(payload, now)
	require.NoError(t, err)
	assert.Contains(t, header, "v1_old=")

	// A receiver that only knows the old secret still verifies.
	oldOnly := NewSigner(config.WebhookConfig{Secret: types.SecretString("old-secret")})
	assert.True(t, oldOnly.Verify(payload, header))
}

func TestSigner_ExpiredGraceOmitsOldSignature(t *testing.T) {
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	cfg := config.WebhookConfig{
		Secret:                  types.SecretString("new-secret"),
		PreviousSecret:          types.SecretString("old-secret"),
		PreviousSecretExpiresAt: now.Add(-time.Hour).Format(time.RFC3339),
	}
	header, err := NewSigner(cfg).Sign([]byte("x"), now)
	require.NoError(t, err)
	assert.NotContains(t, header, "v1_old=")
}

func TestSigner_MalformedExpiryOmitsOldSignature(t *testing.T) {
	cfg := config.WebhookConfig{
		Secret:                  types.SecretString("new-secret"),
		PreviousSecret:          types.SecretString("old-secret"),
		PreviousSecretExpiresAt: "not-a-time",
	}
	header, err := NewSigner(cfg).Sign([]byte("x"), time.Now())
	require.NoError(t, err)
	assert.NotContains(t, header, "v1_old=")
}

// --- Forwarder ---

func TestForwarder_DeliverSuccess(t *testing.T) {
	var gotSig string
	var gotEvent Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := forwarderFor(t, srv.URL)
	result := f.Deliver(context.Background(), "listing.created", map[string]string{"id": "lst_1"})

	assert.Equal(t, StatusDelivered, result.Status)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.NotEmpty(t, gotSig)
	assert.Equal(t, "listing.created", gotEvent.Type)
	assert.NotEmpty(t, gotEvent.ID)
}

func TestForwarder_Disabled(t *testing.T) {
	f := forwarderFor(t, "")
	result := f.Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusDisabled, result.Status)
}

func TestForwarder_RateLimitedCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	result := forwarderFor(t, srv.URL).Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusRetryable, result.Status)
	assert.True(t, result.Retryable)
	assert.Equal(t, 30*time.Second, result.RetryAfter)
}

func TestForwarder_GoneIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	result := forwarderFor(t, srv.URL).Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusTerminal, result.Status)
	assert.True(t, result.Terminal)
	assert.False(t, result.Retryable)
}

func TestForwarder_Client4xxIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	result := forwarderFor(t, srv.URL).Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusPermanent, result.Status)
	assert.False(t, result.Retryable)
}

func TestForwarder_Server5xxIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := forwarderFor(t, srv.URL).Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusRetryable, result.Status)
	assert.True(t, result.Retryable)
}

func TestForwarder_TransportErrorIsRetryable(t *testing.T) {
	// Nothing listens on this port.
	result := forwarderFor(t, "http://127.0.0.1:1").Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusRetryable, result.Status)
	assert.True(t, result.Retryable)
}

func TestForwarder_UnsignedWhenNoSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := forwarderFor(t, srv.URL, func(cfg *config.WebhookConfig) {
		cfg.Secret = ""
	})
	result := f.Deliver(context.Background(), "listing.created", nil)
	assert.Equal(t, StatusDelivered, result.Status)
	assert.Empty(t, gotSig)
}
