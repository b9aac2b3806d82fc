package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/model"
	"telegram-number-market/internal/domain/ports/adapter"
	"telegram-number-market/internal/domain/ports/repository"
	"telegram-number-market/internal/infra/logging"
	"telegram-number-market/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// ReplyKind discriminates the structured outcomes of one inbound dialog event.
type ReplyKind int

const (
	// ReplyNone means the event did not match what the current step expects
	// (e.g. a stale button press) and is deliberately ignored.
	ReplyNone ReplyKind = iota
	ReplyPrompt
	ReplyPreview
	ReplyMissing
	ReplyPublished
	ReplyFailed
	ReplyNoTargets
	ReplyCancelled
	ReplySubscribed
)

// Reply is what the dialog engine emits; the transport adapter turns it into
// localized text and keyboards.
type Reply struct {
	Kind      ReplyKind
	PromptKey string            // ReplyPrompt
	Field     string            // ReplyPrompt, choice steps
	Choices   []string          // ReplyPrompt, choice steps
	Preview   string            // ReplyPreview: rendered post
	Missing   []adapter.ChatRef // ReplyMissing
}

const manualPromptKey = "prompt_manual"

// DialogUseCase is the per-user dialog state machine. One method per inbound
// event kind; every method leaves the session in a well-defined state even
// when a downstream call fails.
type DialogUseCase interface {
	StartFlow(ctx context.Context, tgID int64, kind model.FlowKind) (*Reply, error)
	HandleText(ctx context.Context, tgID int64, text string) (*Reply, error)
	HandleChoice(ctx context.Context, tgID int64, field, value string) (*Reply, error)
	Confirm(ctx context.Context, tgID int64) (*Reply, error)
	Cancel(ctx context.Context, tgID int64) (*Reply, error)
	Recheck(ctx context.Context, tgID int64) (*Reply, error)
}

// Compile-time check
var _ DialogUseCase = (*dialogUC)(nil)

type dialogUC struct {
	sessions    repository.SessionRepository
	gate        GateUseCase
	broadcaster BroadcastUseCase
	archive     repository.ListingArchiveRepository // optional, may be nil
	log         *zerolog.Logger
}

func NewDialogUseCase(
	sessions repository.SessionRepository,
	gate GateUseCase,
	broadcaster BroadcastUseCase,
	archive repository.ListingArchiveRepository,
	logger *zerolog.Logger,
) *dialogUC {
	return &dialogUC{
		sessions:    sessions,
		gate:        gate,
		broadcaster: broadcaster,
		archive:     archive,
		log:         logger,
	}
}

// StartFlow begins a new dialog, overwriting any previous session of the user.
func (uc *dialogUC) StartFlow(ctx context.Context, tgID int64, kind model.FlowKind) (*Reply, error) {
	defer logging.TraceDuration(uc.log, "DialogUC.StartFlow")()

	if !kind.Valid() {
		return nil, domain.ErrUnknownFlow
	}
	sess := &repository.DialogSession{
		Flow:   kind,
		Stage:  repository.StageCollecting,
		Fields: make(map[string]string),
	}
	if err := uc.sessions.Set(ctx, tgID, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.IncDialogStarted(string(kind))
	return promptReply(model.Steps(kind)[0], false), nil
}

// HandleText consumes a free-text message. Returns domain.ErrNoSession when
// the user has no dialog at all, so the adapter can show the command hint.
func (uc *dialogUC) HandleText(ctx context.Context, tgID int64, text string) (*Reply, error) {
	sess, err := uc.sessions.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Stage != repository.StageCollecting {
		return &Reply{Kind: ReplyNone}, nil
	}

	steps := model.Steps(sess.Flow)
	st := steps[sess.Step]
	if st.Input == model.InputChoice && !sess.Manual {
		// a button press is expected here, not text
		return &Reply{Kind: ReplyNone}, nil
	}
	value := strings.TrimSpace(text)
	if value == "" {
		return &Reply{Kind: ReplyNone}, nil
	}
	return uc.advance(ctx, tgID, sess, value)
}

// HandleChoice consumes a button press on a choice step. Mismatched or stale
// presses are ignored without touching the session.
func (uc *dialogUC) HandleChoice(ctx context.Context, tgID int64, field, value string) (*Reply, error) {
	sess, err := uc.sessions.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Reply{Kind: ReplyNone}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Stage != repository.StageCollecting {
		return &Reply{Kind: ReplyNone}, nil
	}

	st := model.Steps(sess.Flow)[sess.Step]
	if st.Input != model.InputChoice || sess.Manual || st.Field != field {
		return &Reply{Kind: ReplyNone}, nil
	}

	if value == model.ChoiceManual {
		sess.Manual = true
		if err := uc.sessions.Set(ctx, tgID, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return &Reply{Kind: ReplyPrompt, PromptKey: manualPromptKey}, nil
	}

	valid := false
	for _, c := range st.Choices {
		if c == value {
			valid = true
			break
		}
	}
	if !valid {
		return &Reply{Kind: ReplyNone}, nil
	}
	return uc.advance(ctx, tgID, sess, value)
}

// advance stores the answer for the current step and moves the session to the
// next step or to the confirmation stage.
func (uc *dialogUC) advance(ctx context.Context, tgID int64, sess *repository.DialogSession, value string) (*Reply, error) {
	steps := model.Steps(sess.Flow)
	sess.Fields[steps[sess.Step].Field] = value
	sess.Manual = false
	sess.Step++

	if sess.Step >= len(steps) {
		sess.Stage = repository.StageConfirmation
		if err := uc.sessions.Set(ctx, tgID, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return &Reply{Kind: ReplyPreview, Preview: model.RenderPost(sess.Flow, sess.Fields)}, nil
	}

	if err := uc.sessions.Set(ctx, tgID, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return promptReply(steps[sess.Step], false), nil
}

// Confirm runs the membership gate and either publishes or suspends the
// session at the gate with the rendered post stored in it.
func (uc *dialogUC) Confirm(ctx context.Context, tgID int64) (*Reply, error) {
	defer logging.TraceDuration(uc.log, "DialogUC.Confirm")()

	sess, err := uc.sessions.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Reply{Kind: ReplyNone}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Stage != repository.StageConfirmation {
		// stale confirm button; publishing twice is never acceptable
		return &Reply{Kind: ReplyNone}, nil
	}

	text := model.RenderPost(sess.Flow, sess.Fields)

	missing := uc.gate.MissingChannels(ctx, tgID)
	if len(missing) > 0 {
		// Suspend: the pending post must live in the session store, not in a
		// local variable, because the re-check may arrive hours later.
		sess.Stage = repository.StageGate
		sess.PendingPost = text
		sess.PendingFlow = sess.Flow
		if err := uc.sessions.Set(ctx, tgID, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return &Reply{Kind: ReplyMissing, Missing: missing}, nil
	}

	return uc.publish(ctx, tgID, sess.Flow, sess.Fields, text)
}

// Recheck re-evaluates the gate for a suspended session. With no pending post
// it answers affirmatively without broadcasting anything.
func (uc *dialogUC) Recheck(ctx context.Context, tgID int64) (*Reply, error) {
	defer logging.TraceDuration(uc.log, "DialogUC.Recheck")()

	sess, err := uc.sessions.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Reply{Kind: ReplySubscribed}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.PendingPost == "" {
		return &Reply{Kind: ReplySubscribed}, nil
	}

	missing := uc.gate.MissingChannels(ctx, tgID)
	if len(missing) > 0 {
		return &Reply{Kind: ReplyMissing, Missing: missing}, nil
	}
	return uc.publish(ctx, tgID, sess.PendingFlow, sess.Fields, sess.PendingPost)
}

// Cancel unconditionally ends the dialog.
func (uc *dialogUC) Cancel(ctx context.Context, tgID int64) (*Reply, error) {
	if err := uc.sessions.Clear(ctx, tgID); err != nil {
		uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear session on cancel")
	}
	return &Reply{Kind: ReplyCancelled}, nil
}

// publish broadcasts the post, archives it best-effort and ends the dialog.
// The session is cleared on every outcome: a confirmed submission is spent
// whether or not the sends succeeded.
func (uc *dialogUC) publish(ctx context.Context, tgID int64, flow model.FlowKind, fields map[string]string, text string) (*Reply, error) {
	sent, err := uc.broadcaster.Broadcast(ctx, text)

	if clearErr := uc.sessions.Clear(ctx, tgID); clearErr != nil {
		uc.log.Warn().Err(clearErr).Int64("tg_id", tgID).Msg("failed to clear session after publish")
	}

	if errors.Is(err, domain.ErrNoTargets) {
		uc.log.Warn().Int64("tg_id", tgID).Msg("publish requested but no targets configured")
		return &Reply{Kind: ReplyNoTargets}, nil
	}
	if err != nil {
		uc.log.Error().Err(err).Int64("tg_id", tgID).Msg("broadcast failed")
		metrics.IncPublishFailed()
		return &Reply{Kind: ReplyFailed}, nil
	}
	if sent == 0 {
		metrics.IncPublishFailed()
		return &Reply{Kind: ReplyFailed}, nil
	}

	metrics.IncListingPublished(string(flow))
	if uc.archive != nil {
		listing := model.NewListing(flow, fields, text, tgID)
		if err := uc.archive.Save(ctx, listing); err != nil {
			uc.log.Warn().Err(err).Str("listing_id", listing.ID).Msg("failed to archive listing")
		}
	}
	return &Reply{Kind: ReplyPublished}, nil
}

func promptReply(st model.Step, manual bool) *Reply {
	r := &Reply{Kind: ReplyPrompt, PromptKey: st.PromptKey, Field: st.Field}
	if st.Input == model.InputChoice && !manual {
		r.Choices = st.Choices
	}
	return r
}
