package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rentease/internal/models"
)

// HTTPWebhookClient posts booking events as JSON to a single endpoint.
type HTTPWebhookClient struct {
	url    string
	client *http.Client
}

func NewHTTPWebhookClient(url string) *HTTPWebhookClient {
	return &HTTPWebhookClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPWebhookClient) SendBookingEvent(ctx context.Context, eventType string, booking *models.Booking) error {
	body, err := json.Marshal(map[string]any{
		"event":   eventType,
		"booking": booking,
	})
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
