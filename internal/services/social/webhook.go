package social

import (
	"context"
	"fmt"
	"time"

	domsvc "MoodPulse/internal/domain/service"
	xhttp "MoodPulse/pkg/http"
	applogger "MoodPulse/pkg/logger"
)

// WebhookPoster publishes commentary to a webhook endpoint (Discord,
// Slack, or any compatible receiver). Publishing is not idempotent, so a
// non-2xx response is reported as failure and the caller must not assume
// the post went out.
type WebhookPoster struct {
	webhookURL string
	client     *xhttp.Client
	logger     *applogger.Logger
}

func NewWebhookPoster(webhookURL string, timeout time.Duration, logger *applogger.Logger) *WebhookPoster {
	return &WebhookPoster{
		webhookURL: webhookURL,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:     logger,
	}
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

func (p *WebhookPoster) Publish(ctx context.Context, text, channel string) error {
	start := time.Now()
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.webhookURL,
		Body:   webhookPayload{Content: text, Username: channel},
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook publish: %w", err)
	}
	p.logger.Info("webhook post delivered",
		applogger.String("channel", channel),
		applogger.Int("chars", len(text)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

var _ domsvc.Poster = (*WebhookPoster)(nil)
