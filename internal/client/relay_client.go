package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRejected is returned when the relay answers 2xx but reports success=false.
var ErrRejected = errors.New("relay rejected message")

// maxResponseBytes caps how much of a relay reply is read.
const maxResponseBytes = 64 << 10

// RelayClient posts reminder emails to an HTTP relay that owns the actual
// mail transport.
type RelayClient struct {
	url    string
	client *http.Client
}

func NewRelayClient(url string, timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelayClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (c *RelayClient) SendEmail(ctx context.Context, to, subject, message string) error {
	reqBody, err := json.Marshal(sendRequest{
		To:      to,
		Subject: subject,
		Message: message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			return fmt.Errorf("unexpected status code: %d (reading body: %v)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}
	if readErr != nil {
		return fmt.Errorf("failed to read response: %w", readErr)
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}
	if !sr.Success {
		if sr.Error == "" {
			return ErrRejected
		}
		return fmt.Errorf("%w: %s", ErrRejected, sr.Error)
	}

	return nil
}
