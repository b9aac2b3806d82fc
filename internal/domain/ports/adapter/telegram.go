package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-number-market/internal/domain"
)

// ChatRef identifies a channel or chat either by numeric ID or by @username.
type ChatRef struct {
	ID       int64
	Username string
}

// ParseChatRef accepts "-1001234567890" style numeric IDs and "@handle" /
// "handle" style usernames.
func ParseChatRef(s string) (ChatRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ChatRef{}, fmt.Errorf("empty chat reference: %w", domain.ErrInvalidArgument)
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ChatRef{ID: id}, nil
	}
	return ChatRef{Username: "@" + strings.TrimPrefix(s, "@")}, nil
}

func (c ChatRef) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

// InviteLink returns a t.me link for username refs, "" for numeric ones.
func (c ChatRef) InviteLink() string {
	if c.Username == "" {
		return ""
	}
	return "https://t.me/" + strings.TrimPrefix(c.Username, "@")
}

// ChatMemberInfo is the result of a membership lookup.
type ChatMemberInfo struct {
	Status          string // creator | administrator | member | restricted | left | kicked
	CanSendMessages bool
}

// IsParticipant reports whether the status counts as being subscribed.
// "restricted" and "left"/"kicked" do not.
func (m ChatMemberInfo) IsParticipant() bool {
	switch m.Status {
	case "creator", "administrator", "member":
		return true
	}
	return false
}

// CanPost reports whether this member may post into the chat. Used for the
// sender's own pre-check before broadcasting into a target.
func (m ChatMemberInfo) CanPost() bool {
	switch m.Status {
	case "creator", "administrator":
		return true
	case "member":
		return true
	case "restricted":
		return m.CanSendMessages
	}
	return false
}

type Button struct {
	Text string
	Data string
	URL  string
}

type SendMessageParams struct {
	Chat      ChatRef
	Text      string
	ParseMode string // "" | "Markdown" | "MarkdownV2"
	Buttons   [][]Button
}

// RateLimitedError signals a transport-level rate limit carrying the wait
// duration reported by the platform.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// TelegramGateway is the narrow transport port consumed by the gate and the
// broadcast dispatcher. The full bot adapter implements it.
type TelegramGateway interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	GetChatMember(ctx context.Context, chat ChatRef, userID int64) (ChatMemberInfo, error)
	// BotID returns the bot's own Telegram user ID, for self-membership checks.
	BotID() int64
}
