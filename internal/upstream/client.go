package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/metrics"
	"github.com/TenKdoToLami/UpNext/internal/models"
)

// Client is the HTTP machinery shared by every provider adapter: one
// per-request timeout, optional proxy, transparent response decompression,
// JSON decoding, and per-provider request metrics. Each adapter owns its
// own instance so metrics and failures are attributed to the right upstream.
type Client struct {
	source     models.Source
	httpClient *http.Client
	userAgent  string
}

// StatusError is returned when the upstream answers with a non-2xx status.
// Adapters inspect the code to tell "not found" apart from a real failure.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsNotFound reports whether err is a StatusError with HTTP 404.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// New creates a client for one provider. Timeout and proxy come from config;
// the timeout bounds every outbound call including body read.
func New(source models.Source, cfg *config.Config) *Client {
	logger := config.GetLogger()

	timeout := 12 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsed, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 12s")
		} else {
			timeout = parsed
		}
	}

	// Clone DefaultTransport to preserve its pooling and HTTP/2 settings.
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Client{
		source: source,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newCodecTransport(baseTransport),
		},
		userAgent: config.GetUserAgent(),
	}
}

// GetJSON performs a GET and decodes the 2xx response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

// PostJSON performs a POST with a JSON payload and decodes the 2xx response
// body into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.source.String(), "error").Inc()
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.source.String(), fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.source.String(), "decode_error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.source.String(), "success").Inc()
	return nil
}
