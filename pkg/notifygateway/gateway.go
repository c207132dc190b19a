package notifygateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway delivers a rendered notification to the owner of a top-up request
type Gateway interface {
	Name() string
	Send(ctx context.Context, n models.Notification, text string) (string, error)
}

// New builds the gateway selected by cfg.Channel. The "none" channel returns a nil gateway.
func New(cfg config.NotifierConfig, log *zap.Logger) (Gateway, error) {
	switch cfg.Channel {
	case config.ChannelNone:
		return nil, nil
	case "", config.ChannelLog:
		return NewLogGateway(log), nil
	case config.ChannelTelegram:
		gw, err := NewTelegramGateway(cfg.Telegram.BotToken, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case config.ChannelWebhook:
		return NewWebhookGateway(cfg.Webhook.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported notifier channel %q", cfg.Channel)
	}
}

// LogGateway writes notifications to the application log
type LogGateway struct {
	log *zap.Logger
}

// NewLogGateway creates a new LogGateway
func NewLogGateway(log *zap.Logger) *LogGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogGateway{log: log.Named("notify.log")}
}

func (g *LogGateway) Name() string { return config.ChannelLog }

// Send logs the notification
func (g *LogGateway) Send(_ context.Context, n models.Notification, text string) (string, error) {
	msgID := "log-" + uuid.NewString()
	g.log.Info("topup notification",
		zap.String("message_id", msgID),
		zap.String("request_id", n.RequestID),
		zap.String("owner_ref", n.OwnerRef),
		zap.String("status", string(n.Status)),
		zap.String("text", text),
	)
	return msgID, nil
}

// MockGateway records notifications in memory for tests and local runs
type MockGateway struct {
	mu   sync.Mutex
	sent []models.Notification
	Err  error
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Name() string { return "mock" }

// Send records n, or returns Err when set
func (g *MockGateway) Send(_ context.Context, n models.Notification, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	g.sent = append(g.sent, n)
	return fmt.Sprintf("MOCK-MSG-%d", len(g.sent)), nil
}

// Sent returns a copy of the recorded notifications
func (g *MockGateway) Sent() []models.Notification {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Notification(nil), g.sent...)
}
