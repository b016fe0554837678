package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/naco727/StudentCards/internal/apperror"
	"github.com/naco727/StudentCards/internal/model"
	"github.com/naco727/StudentCards/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately — much earlier
// than the first call site that passes *DB where the interface is expected.
var _ repository.CardRepository = (*DB)(nil)

// Create inserts a new card.
//
// The card's identifier is SQLite's AUTOINCREMENT rowid — a monotonically
// increasing integer, which is exactly the identifier shape the share-token
// format ignores (a decoded snapshot regenerates it as 0). We read it back
// with LastInsertId and write it into the caller's struct, so Create takes
// a pointer receiver argument on purpose.
func (db *DB) Create(ctx context.Context, card *model.Card) error {
	card.NormalizeStamps()

	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO cards (name, stamps, theme, created_label, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		card.Name,
		model.PackStamps(card.Stamps),
		string(card.Theme),
		card.CreatedLabel,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new card id: %w", err)
	}
	card.ID = id

	return nil
}

// GetByID retrieves a single card by its ID.
// sql.ErrNoRows translates to the domain NotFound error so the handler
// layer can map it to 404 without knowing about database/sql.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Card, error) {
	var (
		card model.Card
		mask int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, stamps, theme, created_label, created_at, updated_at
		 FROM cards
		 WHERE id = ?`,
		id,
	).Scan(
		&card.ID,
		&card.Name,
		&mask,
		&card.Theme,
		&card.CreatedLabel,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("card", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting card %d: %w", id, err)
	}

	unpackInto(&card, mask)
	return &card, nil
}

// List retrieves cards with pagination, newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Card, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, stamps, theme, created_label, created_at, updated_at
		 FROM cards
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.Card, 0, limit)
	for rows.Next() {
		var (
			card model.Card
			mask int64
		)
		if err := rows.Scan(
			&card.ID, &card.Name, &mask, &card.Theme,
			&card.CreatedLabel, &card.CreatedAt, &card.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning card row: %w", err)
		}
		unpackInto(&card, mask)
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cards: %w", err)
	}

	return cards, nil
}

// UpdateStamps persists a card's current stamp state.
// Name, theme and created_label are immutable after creation, so this is
// the only UPDATE the card table ever sees.
func (db *DB) UpdateStamps(ctx context.Context, card *model.Card) error {
	card.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE cards SET stamps = ?, updated_at = ? WHERE id = ?`,
		model.PackStamps(card.Stamps),
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating card %d stamps: %w", card.ID, err)
	}

	// Zero rows affected means the WHERE clause matched nothing → not found.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("card", strconv.FormatInt(card.ID, 10))
	}

	return nil
}

// Delete removes a card by its ID. Same RowsAffected pattern as UpdateStamps.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM cards WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting card %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("card", strconv.FormatInt(id, 10))
	}

	return nil
}

// unpackInto expands a stored bitmask into the card's stamp fields.
// StampCount is derived on every load, never read from storage.
func unpackInto(card *model.Card, mask int64) {
	card.Stamps = model.UnpackStamps(mask)
	card.RecountStamps()
}
