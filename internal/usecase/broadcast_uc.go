package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/adapter"
	"telegram-number-market/internal/infra/logging"
	"telegram-number-market/internal/infra/metrics"
	"telegram-number-market/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase fans a rendered post out to all configured targets.
type BroadcastUseCase interface {
	// Broadcast sends text to every target and returns how many sends
	// succeeded. It returns domain.ErrNoTargets when no targets are
	// configured; per-target failures only lower the count.
	Broadcast(ctx context.Context, text string) (int, error)
}

type broadcastUC struct {
	tg       adapter.TelegramGateway
	targets  []adapter.ChatRef
	precheck bool
	pool     *worker.Pool
	log      *zerolog.Logger
}

func NewBroadcastUseCase(
	tg adapter.TelegramGateway,
	targets []adapter.ChatRef,
	precheck bool,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		tg:       tg,
		targets:  targets,
		precheck: precheck,
		pool:     pool,
		log:      logger,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, text string) (int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Broadcast")()

	if len(uc.targets) == 0 {
		return 0, domain.ErrNoTargets
	}

	var sent int32
	var wg sync.WaitGroup
	for _, target := range uc.targets {
		task := uc.sendTask(target, text, &sent, &wg)
		wg.Add(1)
		if err := uc.pool.Submit(task); err != nil {
			// queue saturated: a user is waiting on the aggregate result,
			// so run the task inline instead of dropping the target
			_ = task(ctx)
		}
	}
	wg.Wait()

	n := int(atomic.LoadInt32(&sent))
	uc.log.Info().Int("sent", n).Int("targets", len(uc.targets)).Msg("broadcast finished")
	return n, nil
}

func (uc *broadcastUC) sendTask(target adapter.ChatRef, text string, sent *int32, wg *sync.WaitGroup) worker.Task {
	return func(ctx context.Context) error {
		defer wg.Done()

		if uc.precheck {
			info, err := uc.tg.GetChatMember(ctx, target, uc.tg.BotID())
			if err != nil || !info.CanPost() {
				uc.log.Warn().Err(err).Str("target", target.String()).Str("status", info.Status).
					Msg("skipping target, bot is not allowed to post there")
				metrics.IncBroadcastSend("skipped")
				return nil
			}
		}

		err := uc.send(ctx, target, text)

		var rl *adapter.RateLimitedError
		if errors.As(err, &rl) {
			// single bounded backoff, then one retry
			metrics.IncRateLimitRetry()
			uc.log.Warn().Str("target", target.String()).Dur("retry_after", rl.RetryAfter).
				Msg("rate limited, retrying once")
			select {
			case <-time.After(rl.RetryAfter):
			case <-ctx.Done():
				metrics.IncBroadcastSend("failed")
				return nil
			}
			err = uc.send(ctx, target, text)
		}

		if err != nil {
			uc.log.Warn().Err(err).Str("target", target.String()).Msg("broadcast send failed")
			metrics.IncBroadcastSend("failed")
			return nil // failures are per-target, never abort the fan-out
		}

		atomic.AddInt32(sent, 1)
		metrics.IncBroadcastSend("ok")
		return nil
	}
}

func (uc *broadcastUC) send(ctx context.Context, target adapter.ChatRef, text string) error {
	return uc.tg.SendMessage(ctx, adapter.SendMessageParams{
		Chat:      target,
		Text:      text,
		ParseMode: "Markdown",
	})
}
