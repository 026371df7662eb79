package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

type WebhookConfig struct {
	URL        string            `yaml:"url"`
	Headers    map[string]string `yaml:"headers"`
	RetryCount int               `yaml:"retry_count"`
	Timeout    time.Duration     `yaml:"timeout"`
}

// Webhook POSTs the alert as JSON, retrying with quadratic backoff.
type Webhook struct {
	cfg     WebhookConfig
	client  *http.Client
	backoff func(attempt int) time.Duration
}

func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook notifier: url is required")
	}
	if cfg.RetryCount < 0 || cfg.RetryCount > 10 {
		return nil, fmt.Errorf("webhook notifier: retry_count must be between 0 and 10, got %d", cfg.RetryCount)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * 100 * time.Millisecond
		},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(ctx context.Context, ev domain.AlertEvent) error {
	body, err := Encode(ev, EncodingJSON)
	if err != nil {
		return &domain.NotifierError{Notifier: w.Name(), Err: err}
	}
	var lastErr error
	for attempt := 0; attempt <= w.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(w.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return &domain.NotifierError{Notifier: w.Name(), Err: errors.Join(ctx.Err(), lastErr)}
			case <-timer.C:
			}
		}
		if lastErr = w.post(ctx, body); lastErr == nil {
			return nil
		}
	}
	return &domain.NotifierError{Notifier: w.Name(), Err: lastErr}
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
