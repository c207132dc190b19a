package notifygateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramGateway sends notifications to a Telegram chat. The request owner_ref is the chat id.
type TelegramGateway struct {
	bot telegramSender
}

// NewTelegramGateway connects to the Bot API with token
func NewTelegramGateway(token string, timeout time.Duration) (*TelegramGateway, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = false
	return &TelegramGateway{bot: bot}, nil
}

func (g *TelegramGateway) Name() string { return config.ChannelTelegram }

// Send delivers text to the chat identified by n.OwnerRef
func (g *TelegramGateway) Send(ctx context.Context, n models.Notification, text string) (string, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(n.OwnerRef), 10, 64)
	if err != nil {
		return "", fmt.Errorf("owner_ref %q is not a telegram chat id", n.OwnerRef)
	}

	type result struct {
		msg tgbotapi.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := g.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- result{msg, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("telegram send: %w", r.err)
		}
		return strconv.Itoa(r.msg.MessageID), nil
	}
}
