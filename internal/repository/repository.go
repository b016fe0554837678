package repository

import (
	"context"

	"github.com/naco727/StudentCards/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// CardRepository is the persistence contract for the card collection.
// The sqlite package implements it; services only ever see this interface.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	GetByID(ctx context.Context, id int64) (*model.Card, error)
	List(ctx context.Context, opts ListOptions) ([]model.Card, error)
	// UpdateStamps persists the full stamp state of an existing card in one
	// write — every toggle hits storage before the next interaction runs.
	UpdateStamps(ctx context.Context, card *model.Card) error
	Delete(ctx context.Context, id int64) error
}

// ShareRepository records issued share tokens and their resolution counts.
type ShareRepository interface {
	RecordShare(ctx context.Context, share *model.Share) error
	// TouchShare bumps the access count of the share matching token.
	// Unknown tokens are not an error — tokens resolve without a server
	// record all the time (pasted from another instance, legacy links).
	TouchShare(ctx context.Context, token string) error
}
