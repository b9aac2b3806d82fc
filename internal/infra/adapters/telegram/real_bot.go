package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-number-market/internal/application"
	"telegram-number-market/internal/config"
	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/adapter"
	"telegram-number-market/internal/infra/i18n"
	"telegram-number-market/internal/infra/metrics"
	red "telegram-number-market/internal/infra/redis"
	"telegram-number-market/internal/usecase"
)

// RealTelegramBotAdapter polls updates with tgbotapi and delegates every
// inbound event to the BotFacade, rendering structured dialog replies back
// into localized messages and keyboards.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	gw          *Gateway
	cfg         *config.BotConfig
	facade      *application.BotFacade
	translator  *i18n.Translator
	rateLimiter *red.RateLimiter // nil when redis is not configured
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	bot *tgbotapi.BotAPI,
	gw *Gateway,
	cfg *config.BotConfig,
	facade *application.BotFacade,
	translator *i18n.Translator,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if bot == nil {
		return nil, errors.New("bot api is nil")
	}
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		gw:            gw,
		cfg:           cfg,
		facade:        facade,
		translator:    translator,
		rateLimiter:   rateLimiter,
		log:           logger,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	chatID := update.Message.Chat.ID

	command := "message"
	if update.Message.IsCommand() {
		command = "/" + update.Message.Command()
	}
	if !r.allow(ctx, tgUser.ID, command) {
		return r.sendText(ctx, chatID, r.translator.T("error_rate_limited"))
	}

	if update.Message.IsCommand() {
		metrics.IncCommandReceived(command)
		if fn, ok := r.commandRoutes()[update.Message.Command()]; ok {
			return fn(ctx, update.Message)
		}
		return r.sendText(ctx, chatID, r.translator.T("help_message"))
	}

	if update.Message.Text == "" {
		return nil
	}
	reply, err := r.facade.HandleText(ctx, tgUser.ID, update.Message.Text)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			// text outside any dialog gets the command hint
			return r.sendText(ctx, chatID, r.translator.T("help_message"))
		}
		r.log.Error().Err(err).Int64("tg_id", tgUser.ID).Msg("text handling failed")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	uid := query.From.ID
	chatID := uid
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	data := strings.TrimSpace(query.Data)
	if !r.allow(ctx, uid, "cb:"+data) {
		return r.sendText(ctx, chatID, r.translator.T("error_rate_limited"))
	}
	metrics.IncCommandReceived("callback")

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, uid, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, uid, chatID, data)
		}
	}
	r.log.Warn().Str("data", data).Int64("tg_id", uid).Msg("unknown callback data")
	return nil
}

// allow applies per-user throttling when a rate limiter is configured.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64, action string) bool {
	if r.rateLimiter == nil {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, action), 20, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter error")
		return true
	}
	return allowed
}

// renderReply maps a structured dialog reply to a localized outbound message.
func (r *RealTelegramBotAdapter) renderReply(ctx context.Context, chatID int64, reply *usecase.Reply) error {
	if reply == nil {
		return nil
	}
	switch reply.Kind {
	case usecase.ReplyNone:
		// mismatched or stale input, deliberately no reaction
		return nil

	case usecase.ReplyPrompt:
		text := r.translator.T(reply.PromptKey)
		if len(reply.Choices) == 0 {
			return r.sendText(ctx, chatID, text)
		}
		rows := make([][]adapter.Button, 0, len(reply.Choices)+1)
		for _, c := range reply.Choices {
			rows = append(rows, []adapter.Button{{Text: c, Data: "fld:" + reply.Field + ":" + c}})
		}
		rows = append(rows, []adapter.Button{{
			Text: r.translator.T("button_manual"),
			Data: "fld:" + reply.Field + ":manual",
		}})
		return r.sendButtons(ctx, chatID, text, "", rows)

	case usecase.ReplyPreview:
		text := r.translator.T("preview_header") + "\n\n" + reply.Preview + "\n\n" + r.translator.T("preview_question")
		rows := [][]adapter.Button{
			{{Text: r.translator.T("button_confirm"), Data: "confirm:yes"}},
			{{Text: r.translator.T("button_cancel"), Data: "confirm:no"}},
		}
		return r.sendButtons(ctx, chatID, text, "Markdown", rows)

	case usecase.ReplyMissing:
		var b strings.Builder
		b.WriteString(r.translator.T("gate_missing_header"))
		rows := make([][]adapter.Button, 0, len(reply.Missing)+1)
		for _, ch := range reply.Missing {
			b.WriteString("\n• ")
			b.WriteString(ch.String())
			if url := ch.InviteLink(); url != "" {
				rows = append(rows, []adapter.Button{{Text: ch.String(), URL: url}})
			}
		}
		rows = append(rows, []adapter.Button{{
			Text: r.translator.T("gate_recheck_button"),
			Data: "gate:recheck",
		}})
		return r.sendButtons(ctx, chatID, b.String(), "", rows)

	case usecase.ReplyPublished:
		return r.sendText(ctx, chatID, r.translator.T("published"))
	case usecase.ReplyFailed:
		return r.sendText(ctx, chatID, r.translator.T("publish_failed"))
	case usecase.ReplyNoTargets:
		return r.sendText(ctx, chatID, r.translator.T("publish_no_targets"))
	case usecase.ReplyCancelled:
		return r.sendText(ctx, chatID, r.translator.T("cancelled"))
	case usecase.ReplySubscribed:
		return r.sendText(ctx, chatID, r.translator.T("gate_ok"))
	}
	return nil
}

func (r *RealTelegramBotAdapter) sendText(ctx context.Context, chatID int64, text string) error {
	return r.gw.SendMessage(ctx, adapter.SendMessageParams{
		Chat: adapter.ChatRef{ID: chatID},
		Text: text,
	})
}

func (r *RealTelegramBotAdapter) sendButtons(ctx context.Context, chatID int64, text, parseMode string, rows [][]adapter.Button) error {
	return r.gw.SendMessage(ctx, adapter.SendMessageParams{
		Chat:      adapter.ChatRef{ID: chatID},
		Text:      text,
		ParseMode: parseMode,
		Buttons:   rows,
	})
}
