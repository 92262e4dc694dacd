// Package messaging talks to the external WhatsApp-provisioning webhooks:
// instance lifecycle, QR code retrieval and connection state. The provider
// exposes two interchangeable provisioning endpoints; the fallback is tried
// when the primary fails.
package messaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

// Connection states reported by the provider
const (
	StateOpen       = "open"
	StateConnecting = "connecting"
	StateClosed     = "close"
)

// Provider is the messaging-provider webhook client
type Provider interface {
	// CreateInstance provisions a messaging instance, trying the fallback
	// endpoint if the primary call fails
	CreateInstance(ctx context.Context, instanceName string) error

	// FetchQR retrieves the current pairing QR code as PNG bytes
	FetchQR(ctx context.Context, instanceName string) ([]byte, error)

	// ConnectionState returns the provider's view of the instance
	ConnectionState(ctx context.Context, instanceName string) (string, error)

	// Disconnect logs the instance out without deleting it
	Disconnect(ctx context.Context, instanceName string) error

	// DeleteInstance tears the instance down
	DeleteInstance(ctx context.Context, instanceName string) error

	// Ping checks whether the provisioning endpoint is reachable
	Ping(ctx context.Context) error
}

// Client implements Provider over plain HTTP webhooks
type Client struct {
	primaryURL  string
	fallbackURL string
	apiKey      string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient creates a webhook client from the messaging configuration
func NewClient(cfg config.MessagingConfig, log *logger.Logger) *Client {
	return &Client{
		primaryURL:  strings.TrimRight(cfg.PrimaryURL, "/"),
		fallbackURL: strings.TrimRight(cfg.FallbackURL, "/"),
		apiKey:      cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: log,
	}
}

type instanceRequest struct {
	InstanceName string `json:"instanceName"`
}

// CreateInstance provisions a messaging instance. The primary endpoint is
// tried first; on any failure the fallback endpoint gets one attempt.
func (c *Client) CreateInstance(ctx context.Context, instanceName string) error {
	err := c.post(ctx, c.primaryURL, "/instance/create", instanceRequest{InstanceName: instanceName})
	if err == nil {
		metrics.RecordInstanceCreate("primary", "ok")
		return nil
	}
	metrics.RecordInstanceCreate("primary", "error")

	if c.fallbackURL == "" {
		return fmt.Errorf("create instance %s: %w", instanceName, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"instance": instanceName,
	}).WithError(err).Warn("Primary provisioning endpoint failed, trying fallback")

	if err := c.post(ctx, c.fallbackURL, "/instance/create", instanceRequest{InstanceName: instanceName}); err != nil {
		metrics.RecordInstanceCreate("fallback", "error")
		return fmt.Errorf("create instance %s (fallback): %w", instanceName, err)
	}
	metrics.RecordInstanceCreate("fallback", "ok")
	return nil
}

// qrResponse is the JSON shape some provider versions return; others answer
// with raw image bytes. Both are accepted.
type qrResponse struct {
	Base64 string `json:"base64"`
	Code   string `json:"code"`
}

// FetchQR retrieves the current pairing QR code. The response body is either
// raw PNG bytes or a JSON object carrying a base64 data field.
func (c *Client) FetchQR(ctx context.Context, instanceName string) ([]byte, error) {
	body, contentType, err := c.get(ctx, c.primaryURL, "/instance/qr/"+instanceName)
	if err != nil {
		metrics.RecordQRFetch("error")
		return nil, fmt.Errorf("fetch qr for %s: %w", instanceName, err)
	}

	if strings.HasPrefix(contentType, "image/") {
		metrics.RecordQRFetch("ok")
		return body, nil
	}

	var qr qrResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		metrics.RecordQRFetch("error")
		return nil, fmt.Errorf("fetch qr for %s: unexpected response: %w", instanceName, err)
	}

	data := qr.Base64
	if data == "" {
		data = qr.Code
	}
	// Some responses wrap the payload as a data URL
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+1:]
	}

	png, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		metrics.RecordQRFetch("error")
		return nil, fmt.Errorf("fetch qr for %s: invalid base64: %w", instanceName, err)
	}

	metrics.RecordQRFetch("ok")
	return png, nil
}

type stateResponse struct {
	State string `json:"state"`
}

// ConnectionState returns the provider's view of the instance
func (c *Client) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	body, _, err := c.get(ctx, c.primaryURL, "/instance/connectionState/"+instanceName)
	if err != nil {
		return "", fmt.Errorf("connection state for %s: %w", instanceName, err)
	}

	var st stateResponse
	if err := json.Unmarshal(body, &st); err != nil {
		// Some endpoints answer with a bare status string
		return strings.Trim(strings.TrimSpace(string(body)), `"`), nil
	}
	return st.State, nil
}

// Disconnect logs the instance out without deleting it
func (c *Client) Disconnect(ctx context.Context, instanceName string) error {
	if err := c.post(ctx, c.primaryURL, "/instance/logout/"+instanceName, nil); err != nil {
		return fmt.Errorf("disconnect %s: %w", instanceName, err)
	}
	return nil
}

// DeleteInstance tears the instance down
func (c *Client) DeleteInstance(ctx context.Context, instanceName string) error {
	if err := c.do(ctx, http.MethodDelete, c.primaryURL, "/instance/delete/"+instanceName, nil); err != nil {
		return fmt.Errorf("delete instance %s: %w", instanceName, err)
	}
	return nil
}

// Ping checks whether the provisioning endpoint is reachable. A 4xx answer
// still counts as reachable; only transport failures and 5xx do not.
func (c *Client) Ping(ctx context.Context) error {
	if c.primaryURL == "" {
		return fmt.Errorf("messaging endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.primaryURL+"/", nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, base, path string, body interface{}) error {
	return c.do(ctx, http.MethodPost, base, path, body)
}

func (c *Client) do(ctx context.Context, method, base, path string, body interface{}) error {
	if base == "" {
		return fmt.Errorf("messaging endpoint not configured")
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func (c *Client) get(ctx context.Context, base, path string) ([]byte, string, error) {
	if base == "" {
		return nil, "", fmt.Errorf("messaging endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, "", err
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// backoff returns the delay before retry attempt n (0-based), capped at 30s
func backoff(n int) time.Duration {
	d := time.Second << n
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
