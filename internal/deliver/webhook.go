package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
	"github.com/mkarwowski/adscout/internal/metrics"
	"github.com/mkarwowski/adscout/internal/retry"
)

// Sender delivers payloads to the configured webhook. Delivery never raises:
// after the retry budget is spent the payload goes to the fail store and the
// pipeline moves on.
type Sender struct {
	url    string
	client *http.Client
	policy retry.Policy
	store  *FailStore
	log    *zap.Logger
}

// NewSender wires a Sender from the webhook configuration.
func NewSender(cfg config.WebhookConfig, store *FailStore, log *zap.Logger) *Sender {
	return &Sender{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		policy: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.BackoffBase,
		},
		store: store,
		log:   log,
	}
}

// Deliver POSTs payload as JSON and reports whether any attempt got a 2xx.
// Undelivered payloads are persisted before returning false.
func (s *Sender) Deliver(ctx context.Context, id string, payload any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		// A payload that cannot marshal cannot be persisted either.
		s.log.Error("payload marshal failed, record dropped",
			zap.String("id", id), zap.Error(err))
		metrics.Deliveries.WithLabelValues("dropped").Inc()
		return false
	}

	err = s.policy.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			s.log.Info("retrying delivery", zap.String("id", id), zap.Int("attempt", attempt+1))
		}
		return s.post(ctx, body)
	})
	if err != nil {
		s.log.Error("delivery exhausted", zap.String("id", id), zap.Error(err))
		metrics.Deliveries.WithLabelValues("failed").Inc()
		if _, perr := s.store.Persist(id, body); perr != nil {
			s.log.Error("persisting undeliverable payload failed",
				zap.String("id", id), zap.Error(perr))
		}
		return false
	}

	metrics.Deliveries.WithLabelValues("delivered").Inc()
	s.log.Info("record delivered", zap.String("id", id))
	return true
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
