package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramDispatcher posts the rendered text to the admin chat.
type TelegramDispatcher struct {
	bot    telegramSender
	chatID int64
}

func DialTelegram(token string, chatID int64) (*TelegramDispatcher, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramDispatcher(api, chatID), nil
}

func NewTelegramDispatcher(bot telegramSender, chatID int64) *TelegramDispatcher {
	return &TelegramDispatcher{bot: bot, chatID: chatID}
}

func (d *TelegramDispatcher) Send(ctx context.Context, templateID string, vars map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := Render(templateID, vars)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(d.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := d.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
