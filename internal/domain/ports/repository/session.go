package repository

import (
	"context"

	"telegram-number-market/internal/domain/model"
)

// DialogStage names the coarse state of a user's dialog.
type DialogStage string

const (
	StageCollecting   DialogStage = "collecting"
	StageConfirmation DialogStage = "awaiting_confirmation"
	StageGate         DialogStage = "awaiting_gate"
)

// DialogSession holds a user's progress through a listing dialog.
// PendingPost is set if and only if Stage == StageGate: it is the single
// authoritative copy of the rendered-but-unsent post that the re-check
// handler reads after the user subscribes.
type DialogSession struct {
	Flow        model.FlowKind    `json:"flow"`
	Stage       DialogStage       `json:"stage"`
	Step        int               `json:"step"`
	Manual      bool              `json:"manual,omitempty"` // choice step switched to free text
	Fields      map[string]string `json:"fields"`
	PendingPost string            `json:"pending_post,omitempty"`
	PendingFlow model.FlowKind    `json:"pending_flow,omitempty"`
}

// SessionRepository is the port for the per-user dialog session store.
// Get returns domain.ErrNotFound when the user has no active session.
type SessionRepository interface {
	Set(ctx context.Context, tgID int64, s *DialogSession) error
	Get(ctx context.Context, tgID int64) (*DialogSession, error)
	Clear(ctx context.Context, tgID int64) error
}
