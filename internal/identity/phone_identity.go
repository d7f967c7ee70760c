package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"vaanikaam/internal/service"
)

type ProviderConfig struct {
	VerifyURL  string
	ServiceKey string
	Timeout    time.Duration
}

// HTTPPhoneIdentityVerifier validates client-obtained proof-of-phone-control
// tokens with the external identity provider. Invalid, expired or
// unverifiable assertions yield (nil, nil) — the flows deny and the reason is
// logged for operators.
type HTTPPhoneIdentityVerifier struct {
	cfg    ProviderConfig
	client *http.Client
}

func NewPhoneIdentityVerifier(cfg ProviderConfig) *HTTPPhoneIdentityVerifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVerifyTimeout
	}
	return &HTTPPhoneIdentityVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type assertionVerifyRequest struct {
	AssertionToken string `json:"assertionToken"`
}

type assertionVerifyResponse struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

func (v *HTTPPhoneIdentityVerifier) VerifyAssertion(ctx context.Context, assertionToken string) (*service.PhoneIdentityClaim, error) {
	if assertionToken == "" {
		return nil, nil
	}
	if v.cfg.VerifyURL == "" || v.cfg.ServiceKey == "" {
		slog.Warn("identity provider credentials not configured; assertion denied")
		return nil, nil
	}

	payload, err := json.Marshal(assertionVerifyRequest{AssertionToken: assertionToken})
	if err != nil {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.cfg.ServiceKey)

	resp, err := v.client.Do(req)
	if err != nil {
		slog.Warn("identity provider unreachable", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("identity provider rejected assertion", "status", resp.StatusCode)
		return nil, nil
	}

	var body assertionVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("identity provider returned undecodable body", "error", err)
		return nil, nil
	}

	return &service.PhoneIdentityClaim{
		Phone: body.PhoneNumber,
		Name:  body.Name,
		Email: body.Email,
	}, nil
}
