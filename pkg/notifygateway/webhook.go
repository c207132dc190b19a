package notifygateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/go-resty/resty/v2"
)

// WebhookGateway posts the notification payload as JSON to a fixed URL
type WebhookGateway struct {
	URL    string
	client *resty.Client
}

// NewWebhookGateway creates a new WebhookGateway
func NewWebhookGateway(url string, timeout time.Duration) *WebhookGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &WebhookGateway{URL: url, client: client}
}

func (g *WebhookGateway) Name() string { return config.ChannelWebhook }

type webhookPayload struct {
	models.Notification
	Text string `json:"text"`
}

// Send posts n and returns the receiver's messageId, if any
func (g *WebhookGateway) Send(ctx context.Context, n models.Notification, text string) (string, error) {
	var response struct {
		MessageID string `json:"messageId"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Notification: n, Text: text}).
		SetResult(&response).
		Post(g.URL)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return response.MessageID, nil
}
