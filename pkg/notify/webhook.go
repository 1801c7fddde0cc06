package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"libraryapp/pkg/circuitbreaker"
)

// WebhookNotifier posts each message as JSON to a notification service.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewWebhookNotifier(url string, client *http.Client, breaker *circuitbreaker.CircuitBreaker) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{url: url, client: client, breaker: breaker}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	send := func() error { return n.post(ctx, body) }
	if n.breaker == nil {
		return send()
	}
	return n.breaker.Execute(send)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := n.client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("notification service responded %d", response.StatusCode)
	}
	return nil
}
