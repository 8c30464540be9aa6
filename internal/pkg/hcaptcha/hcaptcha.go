package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ufsoft/screener/internal/pkg/config"
)

const verifyURL = "https://hcaptcha.com/siteverify"

var ErrCaptchaFailed = errors.New("hCaptcha validation failed")

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks hCaptcha response tokens.
type Verifier struct {
	siteKey  string
	secret   string
	endpoint string
	client   *http.Client
}

// NewVerifier returns nil when hCaptcha is not configured; a nil Verifier
// accepts every request.
func NewVerifier(cfg config.HCaptcha) *Verifier {
	if !cfg.Enabled() {
		return nil
	}
	return &Verifier{
		siteKey:  cfg.SiteKey,
		secret:   cfg.Secret,
		endpoint: verifyURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint overrides the verification endpoint.
func (v *Verifier) WithEndpoint(endpoint string) *Verifier {
	v.endpoint = endpoint
	return v
}

// Enabled reports whether tokens are checked at all.
func (v *Verifier) Enabled() bool { return v != nil }

// SiteKey is the public key rendered by clients.
func (v *Verifier) SiteKey() string {
	if v == nil {
		return ""
	}
	return v.siteKey
}

// Verify checks token against the hCaptcha API.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if v == nil {
		return nil
	}
	if token == "" {
		return fmt.Errorf("%w: token is empty", ErrCaptchaFailed)
	}

	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode hCaptcha API response: %w", err)
	}
	if !response.Success {
		if len(response.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrCaptchaFailed, strings.Join(response.ErrorCodes, ", "))
		}
		return ErrCaptchaFailed
	}
	return nil
}
