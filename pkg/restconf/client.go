package restconf

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/openibn/openibn/pkg/telemetry"
)

// Default auth endpoints of the controller's REST gateway.
const (
	defaultTokenPath  = "/rest-gateway/rest/api/v1/auth/token"
	defaultRevokePath = "/rest-gateway/rest/api/v1/auth/revocation"
)

// ClientConfig configures the HTTP transport.
type ClientConfig struct {
	// BaseURL is the controller base URL, e.g. "https://nsp.example.com".
	BaseURL string

	// Username and Password are the OAuth2 client credentials.
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Timeout bounds every request including body read.
	Timeout time.Duration

	// TokenPath and RevokePath override the gateway auth endpoints.
	TokenPath  string
	RevokePath string
}

// Client is the concrete Transport talking HTTPS to the controller. It
// acquires an OAuth2 client-credentials bearer token lazily on the first
// request, injects it into every subsequent request, renews it once on a
// 401, and revokes it on Close.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	mu    sync.Mutex
	token string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger attaches a logger to the client.
func WithLogger(logger *telemetry.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.NewComponentLogger("restconf") }
}

// WithMetrics attaches a metrics collector to the client.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(c *Client) { c.metrics = metrics }
}

// WithTracer attaches a tracer to the client.
func WithTracer(tracer *telemetry.Tracer) ClientOption {
	return func(c *Client) { c.tracer = tracer }
}

// NewClient creates a Client for the given controller.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("controller base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid controller base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = defaultTokenPath
	}
	if cfg.RevokePath == "" {
		cfg.RevokePath = defaultRevokePath
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
				},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send implements Transport.
func (c *Client) Send(ctx context.Context, method, path string, body any, headers map[string]string) (status int, decoded any, err error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.StartRemoteCallSpan(ctx, method, path)
		defer func() {
			if err != nil {
				telemetry.RecordError(span, err)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
		}()
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	var raw string
	status, decoded, raw, err = c.do(ctx, method, path, body, headers, token)
	if err != nil {
		return status, decoded, err
	}

	// One renewal on an expired token; the gateway invalidates tokens
	// server-side without notice.
	if status == http.StatusUnauthorized {
		c.invalidateToken(token)
		token, err = c.ensureToken(ctx)
		if err != nil {
			return 0, nil, err
		}
		status, decoded, raw, err = c.do(ctx, method, path, body, headers, token)
		if err != nil {
			return status, decoded, err
		}
	}

	if status < 200 || status >= 300 {
		return status, decoded, &RequestError{
			StatusCode: status,
			Body:       decoded,
			RawBody:    raw,
			Method:     method,
			Path:       path,
		}
	}
	return status, decoded, nil
}

// do executes a single HTTP round trip.
func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, token string) (int, any, string, error) {
	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		var payload []byte
		switch b := body.(type) {
		case []byte:
			payload = b
		case string:
			payload = []byte(b)
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return 0, nil, "", fmt.Errorf("failed to encode request body: %w", err)
			}
			payload = encoded
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return 0, nil, "", err
	}

	req.Header.Set("Accept", ContentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", ContentTypeJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.logger != nil {
		c.logger.WithRequestID(requestID).Debugf("%s %s", method, path)
	}

	timer := telemetry.NewTimer()
	resp, err := c.http.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRemoteCallError(method)
		}
		return 0, nil, "", fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordRemoteCall(method, resp.StatusCode, timer.Duration())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded any
	if len(raw) > 0 {
		if jsonErr := json.Unmarshal(raw, &decoded); jsonErr != nil {
			decoded = string(raw)
		}
	}

	if c.logger != nil {
		c.logger.WithRequestID(requestID).Debugf("%s %s -> %d", method, path, resp.StatusCode)
	}

	return resp.StatusCode, decoded, string(raw), nil
}

// ensureToken returns the current bearer token, logging in if needed.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	if c.cfg.Username == "" {
		// Anonymous mode, e.g. a gateway-less lab controller.
		return "", nil
	}

	body := map[string]string{"grant_type": "client_credentials"}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+c.cfg.TokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", ContentTypeJSON)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.Username, c.cfg.Password))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(raw))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("no access_token in response: %s", string(raw))
	}

	c.token = tokenResp.AccessToken
	if c.logger != nil {
		c.logger.Debug("acquired bearer token")
	}
	return c.token, nil
}

// invalidateToken drops the cached token if it is still the one that
// failed, so a concurrent renewal is not discarded.
func (c *Client) invalidateToken(failed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == failed {
		c.token = ""
	}
}

// Close revokes the bearer token. Best effort: revocation failures are
// logged and swallowed.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()
	if token == "" {
		return nil
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", "token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+c.cfg.RevokePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.Username, c.cfg.Password))

	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("token revocation failed")
		}
		return nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
