package telegram

import (
	"context"
	"strings"
)

type cbHandler func(ctx context.Context, userID, chatID int64, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"flow:sell":    r.sellFlowCBRoute,
		"flow:buy":     r.buyFlowCBRoute,
		"confirm:yes":  r.confirmCBRoute,
		"confirm:no":   r.cancelCBRoute,
		"gate:recheck": r.recheckCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: "fld:",
			Fn:     r.fieldPrefixCBRoute,
		},
	}
}

func (r *RealTelegramBotAdapter) sellFlowCBRoute(ctx context.Context, userID, chatID int64, _ string) error {
	reply, err := r.facade.HandleSellFlow(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", userID).Msg("failed to start sell flow")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) buyFlowCBRoute(ctx context.Context, userID, chatID int64, _ string) error {
	reply, err := r.facade.HandleBuyFlow(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", userID).Msg("failed to start buy flow")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) confirmCBRoute(ctx context.Context, userID, chatID int64, _ string) error {
	reply, err := r.facade.HandleConfirm(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", userID).Msg("confirm failed")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) cancelCBRoute(ctx context.Context, userID, chatID int64, _ string) error {
	reply, err := r.facade.HandleCancel(ctx, userID)
	if err != nil {
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) recheckCBRoute(ctx context.Context, userID, chatID int64, _ string) error {
	reply, err := r.facade.HandleRecheck(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", userID).Msg("gate re-check failed")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}

// fieldPrefixCBRoute parses "fld:<field>:<value>" choice-button presses.
func (r *RealTelegramBotAdapter) fieldPrefixCBRoute(ctx context.Context, userID, chatID int64, data string) error {
	payload := strings.TrimPrefix(data, "fld:")
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		r.log.Warn().Str("data", data).Msg("malformed field callback")
		return nil
	}
	reply, err := r.facade.HandleChoice(ctx, userID, parts[0], parts[1])
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", userID).Msg("choice handling failed")
		return r.sendText(ctx, chatID, r.translator.T("error_generic"))
	}
	return r.renderReply(ctx, chatID, reply)
}
