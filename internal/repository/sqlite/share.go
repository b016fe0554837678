package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/naco727/StudentCards/internal/model"
	"github.com/naco727/StudentCards/internal/repository"
)

var _ repository.ShareRepository = (*DB)(nil)

// RecordShare inserts an audit record for a freshly minted share token.
//
// Share records get xid identifiers: 20 URL-safe characters, sortable by
// creation time — handy when eyeballing the shares table in order.
func (db *DB) RecordShare(ctx context.Context, share *model.Share) error {
	share.ID = xid.New().String()
	share.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shares (id, card_id, token, access_count, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		share.ID,
		share.CardID,
		share.Token,
		share.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording share: %w", err)
	}

	return nil
}

// TouchShare bumps the access count of every share record carrying this
// exact token. Matching zero rows is fine: tokens decode without any server
// record (legacy links, tokens minted elsewhere), so this is best effort.
func (db *DB) TouchShare(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE shares SET access_count = access_count + 1 WHERE token = ?`,
		token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching share: %w", err)
	}
	return nil
}
