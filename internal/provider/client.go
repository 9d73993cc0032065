package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/baely/banksync/pkg/model"
)

// Provider environments and their API hosts.
var environmentHosts = map[string]string{
	"sandbox":     "https://sandbox.api.bankfeed.io",
	"development": "https://development.api.bankfeed.io",
	"production":  "https://api.bankfeed.io",
}

// HTTPClient talks to the provider's REST API. It implements Client.
type HTTPClient struct {
	baseURI  string
	clientID string
	secret   string
	client   *http.Client
}

// ClientConfig contains configuration for the provider HTTP client
type ClientConfig struct {
	// Environment selects the provider host (sandbox, development,
	// production). Ignored when BaseURI is set.
	Environment string
	// BaseURI overrides the environment host, used in tests.
	BaseURI  string
	ClientID string
	Secret   string
	// Timeout bounds a single API call. This is independent of the
	// provider's webhook response deadline.
	Timeout time.Duration
}

// NewHTTPClient creates a new client for the provider API
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	baseURI := cfg.BaseURI
	if baseURI == "" {
		host, ok := environmentHosts[cfg.Environment]
		if !ok {
			host = environmentHosts["sandbox"]
		}
		baseURI = host
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURI:  baseURI,
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// request makes an API request to the provider
func (c *HTTPClient) request(ctx context.Context, endpoint string, payload, ret interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	uri := fmt.Sprintf("%s%s", c.baseURI, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Provider-Client-Id", c.clientID)
	req.Header.Add("Provider-Secret", c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if ret != nil {
		if err := json.NewDecoder(resp.Body).Decode(ret); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyStatus maps non-200 responses onto the client's error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrReauthRequired
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Error *model.ProviderError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != nil {
		if body.Error.ErrorCode == "ITEM_LOGIN_REQUIRED" {
			return fmt.Errorf("%w: %s", ErrReauthRequired, body.Error.Message)
		}
		return fmt.Errorf("provider error %s: %s", body.Error.ErrorCode, body.Error.Message)
	}

	return fmt.Errorf("request failed with status: %d", resp.StatusCode)
}

type cursorRequest struct {
	AccessToken string `json:"access_token"`
}

type cursorResponse struct {
	Cursor string `json:"cursor"`
}

// CreateCursor issues a fresh sync cursor for the linked account
func (c *HTTPClient) CreateCursor(ctx context.Context, accessToken string) (string, error) {
	var resp cursorResponse

	err := c.request(ctx, "/transactions/cursor", cursorRequest{AccessToken: accessToken}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Cursor, nil
}

type deltaRequest struct {
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

// FetchDelta returns one page of transaction changes since the cursor
func (c *HTTPClient) FetchDelta(ctx context.Context, accessToken, cursor string) (model.Delta, error) {
	var resp model.Delta

	err := c.request(ctx, "/transactions/delta", deltaRequest{AccessToken: accessToken, Cursor: cursor}, &resp)
	if err != nil {
		return model.Delta{}, err
	}

	return resp, nil
}
