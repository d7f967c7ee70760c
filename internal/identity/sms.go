package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SMSConfig points at the provider's SMS gateway. When unconfigured the
// service falls back to debug-only delivery: codes are stored and logged but
// never sent.
type SMSConfig struct {
	SendURL    string
	ServiceKey string
	Timeout    time.Duration
}

// ProviderSMSDeliverer hands the OTP to the provider's SMS gateway.
type ProviderSMSDeliverer struct {
	cfg    SMSConfig
	client *http.Client
}

func NewProviderSMSDeliverer(cfg SMSConfig) *ProviderSMSDeliverer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVerifyTimeout
	}
	return &ProviderSMSDeliverer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type smsSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func otpMessage(code string) string {
	return fmt.Sprintf("Your VaaniKaam OTP is: %s. Valid for 10 minutes. Do not share this.", code)
}

func (d *ProviderSMSDeliverer) Deliver(ctx context.Context, phone, code string) error {
	payload, err := json.Marshal(smsSendRequest{Phone: phone, Message: otpMessage(code)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.SendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.ServiceKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	slog.Info("otp sms queued", "phone", phone)
	return nil
}

// DebugDeliverer never sends anything. The code is logged at debug level so
// local development works without provider credentials.
type DebugDeliverer struct{}

func (DebugDeliverer) Deliver(_ context.Context, phone, code string) error {
	slog.Debug("otp delivery skipped (debug mode)", "phone", phone, "otp", code)
	return nil
}
