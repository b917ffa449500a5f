package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts notifications as JSON to a single HTTP endpoint.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty"`
}

func (s *WebhookSender) Send(message string, attachments []string) error {
	body, err := json.Marshal(webhookPayload{Message: message, Attachments: attachments})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
