package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing is an archived record of a published post.
type Listing struct {
	ID        string            `json:"id"`
	Kind      FlowKind          `json:"kind"`
	Fields    map[string]string `json:"fields"`
	Body      string            `json:"body"`
	CreatedBy int64             `json:"created_by"` // Telegram user ID of the author
	CreatedAt time.Time         `json:"created_at"`
}

func NewListing(kind FlowKind, fields map[string]string, body string, createdBy int64) *Listing {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Listing{
		ID:        uuid.NewString(),
		Kind:      kind,
		Fields:    cp,
		Body:      body,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}
