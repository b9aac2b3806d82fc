package usecase

import (
	"context"

	"telegram-number-market/internal/domain/ports/adapter"
	"telegram-number-market/internal/infra/logging"
	"telegram-number-market/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ GateUseCase = (*gateUC)(nil)

// GateUseCase checks which of the required channels a user has not joined yet.
type GateUseCase interface {
	// MissingChannels returns the required channels the user is not a member
	// of, in configuration order. It never fails: a lookup error counts the
	// channel as missing.
	MissingChannels(ctx context.Context, userID int64) []adapter.ChatRef
}

type gateUC struct {
	tg       adapter.TelegramGateway
	channels []adapter.ChatRef
	log      *zerolog.Logger
}

func NewGateUseCase(tg adapter.TelegramGateway, channels []adapter.ChatRef, logger *zerolog.Logger) *gateUC {
	return &gateUC{tg: tg, channels: channels, log: logger}
}

func (g *gateUC) MissingChannels(ctx context.Context, userID int64) []adapter.ChatRef {
	defer logging.TraceDuration(g.log, "GateUC.MissingChannels")()
	metrics.IncGateCheck()

	var missing []adapter.ChatRef
	for _, ch := range g.channels {
		info, err := g.tg.GetChatMember(ctx, ch, userID)
		if err != nil {
			// A failed lookup blocks publication rather than letting an
			// unverified user through; the cost of the retry is one button press.
			g.log.Warn().Err(err).Str("channel", ch.String()).Int64("tg_id", userID).
				Msg("membership lookup failed, treating as not subscribed")
			missing = append(missing, ch)
			continue
		}
		if !info.IsParticipant() {
			missing = append(missing, ch)
		}
	}
	if len(missing) > 0 {
		metrics.IncGateBlocked()
	}
	return missing
}
