// Package webhook forwards classifieds board events to an external webhook.
// Payloads are signed with HMAC-SHA256 and the signer supports dual-validity
// secret rotation so receivers can roll secrets without dropped deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"agridash/internal/config"
)

// SignatureHeader is the HTTP header carrying the payload signature.
const SignatureHeader = "X-Agridash-Signature"

// Signer produces signature header values for outgoing payloads.
//
// Header format: t=<unix>,v1=<hmac>[,v1_old=<hmac>]
//
// The signed content is "{unix_timestamp}.{payload}". When a previous secret
// is configured and its grace period has not expired, the header carries a
// v1_old signature computed with the old secret as well.
type Signer struct {
	cfg config.WebhookConfig
}

// NewSigner creates a Signer from the webhook configuration.
func NewSigner(cfg config.WebhookConfig) *Signer {
	return &Signer{cfg: cfg}
}

// Sign generates the signature header value for a payload at the given time.
func (s *Signer) Sign(payload []byte, now time.Time) (string, error) {
	secret := s.cfg.Secret.Unmask()
	if secret == "" {
		return "", fmt.Errorf("webhook signature: no signing secret configured")
	}

	timestamp := now.Unix()
	signedContent := fmt.Sprintf("%d.%s", timestamp, string(payload))
	header := fmt.Sprintf("t=%d,v1=%s", timestamp, computeHMAC(signedContent, secret))

	prevSecret := s.cfg.PreviousSecret.Unmask()
	if prevSecret != "" && s.cfg.PreviousSecretExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, s.cfg.PreviousSecretExpiresAt)
		if err != nil {
			// A malformed expiration must not extend the old secret's validity.
			return header, nil
		}
		if !now.After(expiresAt) {
			header = fmt.Sprintf("%s,v1_old=%s", header, computeHMAC(signedContent, prevSecret))
		}
	}
	return header, nil
}

// Verify checks a payload against a signature header. It accepts a match on
// either the v1 or v1_old component using the current or previous secret, so
// both sides of a rotation interoperate.
func (s *Signer) Verify(payload []byte, header string) bool {
	parts := parseSignatureHeader(header)
	if parts.timestamp == "" || parts.v1 == "" {
		return false
	}
	signedContent := fmt.Sprintf("%s.%s", parts.timestamp, string(payload))

	for _, secret := range []string{s.cfg.Secret.Unmask(), s.cfg.PreviousSecret.Unmask()} {
		if secret == "" {
			continue
		}
		expected := computeHMAC(signedContent, secret)
		if hmac.Equal([]byte(parts.v1), []byte(expected)) {
			return true
		}
		if parts.v1Old != "" && hmac.Equal([]byte(parts.v1Old), []byte(expected)) {
			return true
		}
	}
	return false
}

type signatureParts struct {
	timestamp string
	v1        string
	v1Old     string
}

// parseSignatureHeader breaks a header into its components.
// Expected format: "t=<unix>,v1=<hex>[,v1_old=<hex>]"
func parseSignatureHeader(header string) signatureParts {
	var parts signatureParts
	for _, segment := range strings.Split(header, ",") {
		kv := strings.SplitN(segment, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "t":
			parts.timestamp = strings.TrimSpace(kv[1])
		case "v1":
			parts.v1 = strings.TrimSpace(kv[1])
		case "v1_old":
			parts.v1Old = strings.TrimSpace(kv[1])
		}
	}
	return parts
}

func computeHMAC(content, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}
