package repository

import (
	"context"

	"telegram-number-market/internal/domain/model"
)

// ListingArchiveRepository stores published listings for later inspection.
// Archiving is best-effort: the dialog flow never fails on archive errors.
type ListingArchiveRepository interface {
	Save(ctx context.Context, l *model.Listing) error
	ListRecent(ctx context.Context, limit int) ([]*model.Listing, error)
}
