// Package alerting posts operational alerts to a Telegram chat.
package alerting

import (
	"context"
	"fmt"
	"strings"

	"cancelsaga/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramAlerter struct {
	bot    TelegramSender
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return bot, nil
}

func NewTelegramAlerter(bot TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramAlerter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramAlerter{bot: bot, chatID: chatID, logger: logger}
}

func (a *TelegramAlerter) SendAlert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

// Handle is an events.EventHandler for cancellation_effect_failed.
func (a *TelegramAlerter) Handle(event *events.Event) error {
	var p events.EffectFailedPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return a.SendAlert(context.Background(), FormatEffectFailure(p))
}

func FormatEffectFailure(p events.EffectFailedPayload) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ Cancellation effect %s: %s\n", p.Status, p.Effect)
	fmt.Fprintf(&sb, "Booking: #%d\n", p.BookingID)
	if p.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", p.Error)
	}
	if !p.At.IsZero() {
		fmt.Fprintf(&sb, "At: %s\n", p.At.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("Queued for reconciliation.")
	return sb.String()
}
