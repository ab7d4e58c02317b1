package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Timeouts bounds the phases of an outbound provider call.
type Timeouts struct {
	Connect  time.Duration
	Response time.Duration
}

// NewHTTPClient builds the provider HTTP client shared by all provider calls.
func NewHTTPClient(t Timeouts) *http.Client {
	if t.Connect <= 0 {
		t.Connect = 5 * time.Second
	}
	if t.Response <= 0 {
		t.Response = 5 * time.Second
	}
	dialer := &net.Dialer{Timeout: t.Connect, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   t.Connect,
		ResponseHeaderTimeout: t.Response,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   t.Connect + t.Response,
	}
}

// postJSON sends body as JSON and decodes a 2xx answer into out. Transport
// failures and non-2xx answers become a ProviderError.
func postJSON(ctx context.Context, client *http.Client, logger *slog.Logger, provider, url, auth string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth)

	logger.Debug("provider request", slog.String("provider", provider), slog.String("method", req.Method), slog.String("url", url))

	resp, err := client.Do(req)
	if err != nil {
		return &models.ProviderError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	logger.Debug("provider response", slog.String("provider", provider), slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &models.ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.ProviderError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
