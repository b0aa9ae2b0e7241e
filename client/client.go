// Package client consumes the gateway backend API. The backend owns every
// state transition and all fiat to ZEC conversion; this client only reads,
// merges and displays what it reports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gabstv/httpdigest"
)

type Config struct {
	// Base URL of the gateway, without the /api suffix
	// Example: https://pay.example.onion
	BaseUrl string
	// HTTP client to use. Defaults to http.DefaultClient
	Client *http.Client
	// Optional digest auth credentials for self hosted gateways
	Username *string
	Password *string
}

type Client struct {
	baseUrl string
	client  *http.Client
}

func New(config Config) (c *Client) {
	httpClient := config.Client
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.Username != nil && config.Password != nil {
		clone := *httpClient
		clone.Transport = httpdigest.New(*config.Username, *config.Password)
		httpClient = &clone
	}
	return &Client{
		baseUrl: config.BaseUrl,
		client:  httpClient,
	}
}

var ErrNotFound = errors.New("not found")

// Error is the backend's error envelope.
type Error struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *Error) Error() (s string) {
	return fmt.Sprintf("request failed: %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	var body bytes.Buffer
	if in != nil {
		err = json.NewEncoder(&body).Encode(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, &body)
	if err != nil {
		return fmt.Errorf("failed to prepare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to contact gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := Error{StatusCode: resp.StatusCode, Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
