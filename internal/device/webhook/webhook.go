package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/komari-monitor/companion/internal/device/factory"
)

type WebhookSender struct {
	Addition
	client *http.Client
}

func (w *WebhookSender) GetName() string {
	return "webhook"
}

func (w *WebhookSender) GetConfiguration() factory.Configuration {
	return &w.Addition
}

func (w *WebhookSender) Init() error {
	if w.Addition.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(w.Addition.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid url: %s", w.Addition.URL)
	}
	w.client = &http.Client{}
	return nil
}

func (w *WebhookSender) Destroy() error {
	if w.client != nil {
		w.client.CloseIdleConnections()
	}
	return nil
}

func (w *WebhookSender) Send(ctx context.Context, msg *factory.Message) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Addition.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Addition.Secret != "" {
		req.Header.Set("X-Companion-Secret", w.Addition.Secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned non-OK status: %d %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

var _ factory.ISender = (*WebhookSender)(nil)
