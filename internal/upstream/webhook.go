package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// WebhookNotifier triggers the n8n workflow webhook. The workflow only reads
// query parameters, so notifications are GETs.
type WebhookNotifier struct {
	URL  string
	http HTTPClient
}

func NewWebhookNotifier(webhookURL string, httpClient HTTPClient) *WebhookNotifier {
	return &WebhookNotifier{URL: webhookURL, http: httpClient}
}

// Notify calls the webhook with order_id/status/reason and any extra params.
func (n *WebhookNotifier) Notify(ctx context.Context, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.URL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
