package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vaanikaam/internal/service"
)

const defaultVerifyTimeout = 5 * time.Second

type BotCheckConfig struct {
	VerifyURL string
	Secret    string
	Timeout   time.Duration
}

// HTTPBotCheckVerifier validates challenge-response tokens against the
// external verification endpoint. Every failure mode — missing secret,
// network trouble, non-2xx, undecodable body — comes back as a rejection
// with a diagnostic code, never as an error that aborts the request.
type HTTPBotCheckVerifier struct {
	cfg    BotCheckConfig
	client *http.Client
}

func NewBotCheckVerifier(cfg BotCheckConfig) *HTTPBotCheckVerifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVerifyTimeout
	}
	return &HTTPBotCheckVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type botCheckAPIResponse struct {
	Success    bool     `json:"success"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *HTTPBotCheckVerifier) Verify(ctx context.Context, token, expectedAction string) service.BotCheckResult {
	if token == "" {
		return reject("missing-input-response")
	}
	if v.cfg.Secret == "" {
		slog.Error("bot-check secret is not configured")
		return reject("missing-secret")
	}

	form := url.Values{}
	form.Set("secret", v.cfg.Secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return reject("bad-request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		slog.Warn("bot-check verification unreachable", "error", err)
		return reject("verification-unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("bot-check verification failed", "status", resp.StatusCode)
		return reject("verification-http-" + strconv.Itoa(resp.StatusCode))
	}

	var body botCheckAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return reject("bad-verification-response")
	}
	if !body.Success {
		codes := body.ErrorCodes
		if len(codes) == 0 {
			codes = []string{"verification-rejected"}
		}
		return service.BotCheckResult{Accepted: false, ErrorCodes: codes}
	}
	if expectedAction != "" && body.Action != "" && body.Action != expectedAction {
		return reject("action-mismatch")
	}
	return service.BotCheckResult{Accepted: true}
}

func reject(code string) service.BotCheckResult {
	return service.BotCheckResult{Accepted: false, ErrorCodes: []string{code}}
}
