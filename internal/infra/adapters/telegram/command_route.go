package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/adapter"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  r.handleStartCommand,
		"sell":   r.handleSellCommand,
		"buy":    r.handleBuyCommand,
		"cancel": r.handleCancelCommand,
		"help":   r.handleHelpCommand,

		"announce": r.adminOnly(r.handleAnnounceCommand),
	}
}

// adminOnly guards commands reserved for the configured admin IDs.
func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if _, isAdmin := r.adminIDsMap[message.From.ID]; !isAdmin {
			return r.sendText(ctx, message.Chat.ID, r.translator.T("error_unauthorized"))
		}
		return next(ctx, message)
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	rows := [][]adapter.Button{
		{{Text: r.translator.T("button_sell"), Data: "flow:sell"}},
		{{Text: r.translator.T("button_buy"), Data: "flow:buy"}},
	}
	return r.sendButtons(ctx, message.Chat.ID, r.translator.T("welcome_message"), "", rows)
}

func (r *RealTelegramBotAdapter) handleSellCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleSellFlow(ctx, message.From.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("failed to start sell flow")
		return r.sendText(ctx, message.Chat.ID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleBuyCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleBuyFlow(ctx, message.From.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("failed to start buy flow")
		return r.sendText(ctx, message.Chat.ID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleCancel(ctx, message.From.ID)
	if err != nil {
		return r.sendText(ctx, message.Chat.ID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendText(ctx, message.Chat.ID, r.translator.T("help_message"))
}

// handleAnnounceCommand broadcasts an admin announcement to all targets.
func (r *RealTelegramBotAdapter) handleAnnounceCommand(ctx context.Context, message *tgbotapi.Message) error {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		return r.sendText(ctx, message.Chat.ID, r.translator.T("announce_usage"))
	}
	sent, err := r.facade.HandleAnnounce(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrNoTargets) {
			return r.sendText(ctx, message.Chat.ID, r.translator.T("publish_no_targets"))
		}
		r.log.Error().Err(err).Msg("announce failed")
		return r.sendText(ctx, message.Chat.ID, r.translator.T("announce_failed"))
	}
	if sent == 0 {
		return r.sendText(ctx, message.Chat.ID, r.translator.T("announce_failed"))
	}
	return r.sendText(ctx, message.Chat.ID, r.translator.T("announce_done", sent))
}
