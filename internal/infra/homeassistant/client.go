// Package homeassistant forwards shopper alerts to a Home Assistant notify
// service, so they reach whatever device the household already uses.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	service    string
	httpClient *http.Client
}

// NewClient targets notify.<service>; an empty service means notify.notify.
func NewClient(baseURL, token, service string) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if service == "" {
		service = "notify"
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		service:    service,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type notifyRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (c *Client) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(notifyRequest{Title: "Voice Cart", Message: message})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	path := fmt.Sprintf("/api/services/notify/%s", c.service)
	if err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: check your Home Assistant token")
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("home assistant API error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
