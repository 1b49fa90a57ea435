package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeliveryError is returned when a webhook answers with a non-2xx status.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// Sink delivers rendered text to a chat webhook.
type Sink interface {
	Send(ctx context.Context, webhookURL, text string) error
}

// Webhook posts to incoming-webhook endpoints. Each request is bounded by the
// client timeout.
type Webhook struct {
	client *http.Client
}

func NewWebhook(timeout time.Duration) *Webhook {
	return &Webhook{client: &http.Client{Timeout: timeout}}
}

// Send posts {"text": text} as JSON, the Google Chat webhook format.
func (w *Webhook) Send(ctx context.Context, webhookURL, text string) error {
	return w.PostJSON(ctx, webhookURL, map[string]string{"text": text})
}

func (w *Webhook) PostJSON(ctx context.Context, webhookURL string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return w.post(ctx, webhookURL, "application/json", bytes.NewReader(payload))
}

// PostForm posts url-encoded form values, the Slack incoming-webhook format.
func (w *Webhook) PostForm(ctx context.Context, webhookURL string, form url.Values) error {
	return w.post(ctx, webhookURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (w *Webhook) post(ctx context.Context, webhookURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
