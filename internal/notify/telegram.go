package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends notifications through the Telegram Bot API. Renter
// identifiers are Telegram chat ids.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier authenticates the bot with the provided token.
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot init: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

// SendToRenter sends a plain message to the renter's chat.
func (n *TelegramNotifier) SendToRenter(_ context.Context, renterID string, text string) error {
	chatID, err := strconv.ParseInt(renterID, 10, 64)
	if err != nil {
		return fmt.Errorf("renter id %q is not a chat id: %w", renterID, err)
	}
	_, err = n.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// EditMessage rewrites a previously sent message in place.
func (n *TelegramNotifier) EditMessage(_ context.Context, ref MessageRef, text string) error {
	_, err := n.bot.Send(tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text))
	return err
}
