// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the SQLite file
//
// The service takes repository interfaces, not concrete types, so tests
// swap in in-memory mocks and the HTTP layer never touches SQL. Mutations
// follow a strict sequential discipline: every state change is persisted
// before the method returns, so no caller ever observes a card whose
// in-memory state is ahead of storage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/naco727/StudentCards/internal/apperror"
	"github.com/naco727/StudentCards/internal/codec"
	"github.com/naco727/StudentCards/internal/model"
	"github.com/naco727/StudentCards/internal/repository"
	"github.com/naco727/StudentCards/internal/snapshot"
)

const (
	MaxCardNameLength = 100
	DefaultListLimit  = 20
	MaxListLimit      = 100

	// createdLabelFormat is the display-formatted creation text captured at
	// creation time and carried through the share token verbatim.
	createdLabelFormat = "Jan 2, 2006"
)

// CardService handles business logic for reward cards and their share tokens.
type CardService struct {
	cards  repository.CardRepository
	shares repository.ShareRepository
	logger *slog.Logger

	// now is swappable so tests can pin the created label.
	now func() time.Time
}

// NewCardService creates a new CardService.
// The caller decides which repository implementations to inject —
// sqlite in production, in-memory mocks in tests.
func NewCardService(cards repository.CardRepository, shares repository.ShareRepository, logger *slog.Logger) *CardService {
	return &CardService{
		cards:  cards,
		shares: shares,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and saves a new card: provided name, no stamps earned
// yet, a randomly assigned theme, and a creation label from the clock.
func (s *CardService) Create(ctx context.Context, name string) (*model.Card, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "card name is required")
	}
	if len(name) > MaxCardNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("card name must be %d characters or less", MaxCardNameLength))
	}

	card := &model.Card{
		Name:         name,
		Stamps:       make([]bool, model.StampCapacity),
		Theme:        model.RandomTheme(),
		CreatedLabel: s.now().Format(createdLabelFormat),
	}

	if err := s.cards.Create(ctx, card); err != nil {
		s.logger.Error("failed to create card",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating card: %w", err)
	}

	s.logger.Info("card created",
		slog.Int64("id", card.ID),
		slog.String("name", card.Name),
		slog.String("theme", string(card.Theme)),
	)

	return card, nil
}

// GetByID retrieves a card by its ID.
// Returns apperror.ErrNotFound if the card doesn't exist.
func (s *CardService) GetByID(ctx context.Context, id int64) (*model.Card, error) {
	return s.cards.GetByID(ctx, id)
}

// List retrieves cards with clamped pagination.
func (s *CardService) List(ctx context.Context, limit, offset int) ([]model.Card, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	cards, err := s.cards.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing cards: %w", err)
	}

	return cards, nil
}

// ToggleStamp flips one stamp on a card, recomputes the count, and persists
// the whole stamp state before returning. The fetch-flip-write sequence is
// atomic from the caller's perspective: the updated card is only returned
// once storage has accepted it.
func (s *CardService) ToggleStamp(ctx context.Context, id int64, index int) (*model.Card, error) {
	if index < 0 || index >= model.StampCapacity {
		return nil, apperror.ValidationFailed("index",
			fmt.Sprintf("stamp index must be between 0 and %d", model.StampCapacity-1))
	}

	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	card.Stamps[index] = !card.Stamps[index]
	card.RecountStamps()

	if err := s.cards.UpdateStamps(ctx, card); err != nil {
		s.logger.Error("failed to persist stamp toggle",
			slog.Int64("id", id),
			slog.Int("index", index),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("toggling stamp: %w", err)
	}

	s.logger.Info("stamp toggled",
		slog.Int64("id", id),
		slog.Int("index", index),
		slog.Bool("earned", card.Stamps[index]),
		slog.Int("count", card.StampCount),
	)

	return card, nil
}

// Delete removes a card (and, via the schema, its share records).
func (s *CardService) Delete(ctx context.Context, id int64) error {
	if err := s.cards.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("card deleted", slog.Int64("id", id))
	return nil
}

// Share encodes a card into a share token and records the issuance.
// The audit record is best effort: if writing it fails, the token is still
// returned — the share link matters more than the bookkeeping.
func (s *CardService) Share(ctx context.Context, id int64) (*model.Share, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	token, err := codec.Encode(card)
	if err != nil {
		return nil, fmt.Errorf("encoding card %d: %w", id, err)
	}

	share := &model.Share{CardID: card.ID, Token: token}
	if err := s.shares.RecordShare(ctx, share); err != nil {
		s.logger.Warn("failed to record share, token still issued",
			slog.Int64("cardId", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("share token issued", slog.Int64("cardId", id))
	return share, nil
}

// ResolveToken decodes an incoming share token into a read-only snapshot.
//
// Unlike the startup resolver (which silently falls back to editable mode),
// this is the explicit decode path: a bad token is returned as an error for
// the handler to report. A successful resolve bumps the access count on the
// matching share record, when one exists.
func (s *CardService) ResolveToken(ctx context.Context, token string) (*model.Snapshot, error) {
	snap, err := codec.Decode(token)
	if err != nil {
		s.logger.Warn("share token rejected", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.shares.TouchShare(ctx, token); err != nil {
		// Diagnostic only — counting failures must not break the view.
		s.logger.Warn("failed to bump share access count", slog.String("error", err.Error()))
	}

	return snap, nil
}

// SimulatePreview returns the read-only snapshot projection of a locally
// stored card, bypassing the codec. See snapshot.Simulate.
func (s *CardService) SimulatePreview(ctx context.Context, id int64) (*model.Snapshot, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot.Simulate(card), nil
}
