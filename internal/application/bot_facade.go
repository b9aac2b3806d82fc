package application

import (
	"context"

	"telegram-number-market/internal/domain/model"
	"telegram-number-market/internal/usecase"
)

// BotFacade composes usecases into the high-level bot surface. The Telegram
// adapter and the admin API talk to this type only.
type BotFacade struct {
	DialogUC    usecase.DialogUseCase
	BroadcastUC usecase.BroadcastUseCase
}

func NewBotFacade(dialogUC usecase.DialogUseCase, broadcastUC usecase.BroadcastUseCase) *BotFacade {
	return &BotFacade{
		DialogUC:    dialogUC,
		BroadcastUC: broadcastUC,
	}
}

// HandleSellFlow enters the sell dialog for the user.
func (b *BotFacade) HandleSellFlow(ctx context.Context, tgID int64) (*usecase.Reply, error) {
	return b.DialogUC.StartFlow(ctx, tgID, model.FlowSell)
}

// HandleBuyFlow enters the buy dialog for the user.
func (b *BotFacade) HandleBuyFlow(ctx context.Context, tgID int64) (*usecase.Reply, error) {
	return b.DialogUC.StartFlow(ctx, tgID, model.FlowBuy)
}

// HandleText feeds a free-text message into the user's dialog.
func (b *BotFacade) HandleText(ctx context.Context, tgID int64, text string) (*usecase.Reply, error) {
	return b.DialogUC.HandleText(ctx, tgID, text)
}

// HandleChoice feeds a choice-button press into the user's dialog.
func (b *BotFacade) HandleChoice(ctx context.Context, tgID int64, field, value string) (*usecase.Reply, error) {
	return b.DialogUC.HandleChoice(ctx, tgID, field, value)
}

// HandleConfirm submits the previewed listing.
func (b *BotFacade) HandleConfirm(ctx context.Context, tgID int64) (*usecase.Reply, error) {
	return b.DialogUC.Confirm(ctx, tgID)
}

// HandleCancel ends the user's dialog regardless of its state.
func (b *BotFacade) HandleCancel(ctx context.Context, tgID int64) (*usecase.Reply, error) {
	return b.DialogUC.Cancel(ctx, tgID)
}

// HandleRecheck re-evaluates the subscription gate for a suspended dialog.
func (b *BotFacade) HandleRecheck(ctx context.Context, tgID int64) (*usecase.Reply, error) {
	return b.DialogUC.Recheck(ctx, tgID)
}

// HandleAnnounce broadcasts an admin announcement to all configured targets
// and returns how many sends succeeded.
func (b *BotFacade) HandleAnnounce(ctx context.Context, text string) (int, error) {
	return b.BroadcastUC.Broadcast(ctx, text)
}
