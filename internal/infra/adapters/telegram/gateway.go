package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-number-market/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TelegramGateway = (*Gateway)(nil)

// Gateway is the thin transport port over tgbotapi consumed by the gate and
// the broadcast dispatcher. The full bot adapter shares the same API client.
type Gateway struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

func NewGateway(bot *tgbotapi.BotAPI, logger *zerolog.Logger) *Gateway {
	return &Gateway{bot: bot, log: logger}
}

func (g *Gateway) BotID() int64 { return g.bot.Self.ID }

func (g *Gateway) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var msg tgbotapi.MessageConfig
	if params.Chat.Username != "" {
		msg = tgbotapi.NewMessageToChannel(params.Chat.Username, params.Text)
	} else {
		msg = tgbotapi.NewMessage(params.Chat.ID, params.Text)
	}
	msg.ParseMode = params.ParseMode
	if markup, ok := buildInlineKeyboard(params.Buttons); ok {
		msg.ReplyMarkup = markup
	}

	_, err := g.bot.Send(msg)
	return classifyError(err)
}

func (g *Gateway) GetChatMember(ctx context.Context, chat adapter.ChatRef, userID int64) (adapter.ChatMemberInfo, error) {
	select {
	case <-ctx.Done():
		return adapter.ChatMemberInfo{}, ctx.Err()
	default:
	}

	member, err := g.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID:             chat.ID,
			SuperGroupUsername: chat.Username,
			UserID:             userID,
		},
	})
	if err != nil {
		return adapter.ChatMemberInfo{}, classifyError(err)
	}
	return adapter.ChatMemberInfo{
		Status:          member.Status,
		CanSendMessages: member.CanSendMessages,
	}, nil
}

// classifyError maps tgbotapi rate-limit responses to the port's typed error
// so callers can read the retry-after duration.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return &adapter.RateLimitedError{RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second}
	}
	return err
}

// buildInlineKeyboard converts port buttons to a tgbotapi inline keyboard.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func buildInlineKeyboard(rows [][]adapter.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
