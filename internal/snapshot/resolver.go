// Package snapshot decides, once per session start, whether the application
// runs against its persisted card collection or against a single decoded
// read-only snapshot carried in on a share link.
package snapshot

import (
	"log/slog"
	"net/url"

	"github.com/naco727/StudentCards/internal/codec"
	"github.com/naco727/StudentCards/internal/model"
)

// QueryParam is the designated query parameter a share token travels in:
// ?s=<token>.
const QueryParam = "s"

// Resolver inspects an addressable location for a share token and turns it
// into a snapshot through the codec. It owns the fallback policy: a missing
// or undecodable token always means normal editable mode, never a crash and
// never a user-facing parse error.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve checks rawURL for the share-token query parameter.
//
// Returns (snapshot, true) when a token is present and decodes cleanly —
// the caller should render read-only from the snapshot and skip loading
// persisted data. Returns (nil, false) when the parameter is absent OR the
// token is undecodable; decode failures are logged as diagnostics and the
// session proceeds in editable mode, keeping the safe default available.
//
// This is evaluated exactly once at session start, not on later navigation.
func (r *Resolver) Resolve(rawURL string) (*model.Snapshot, bool) {
	location, err := url.Parse(rawURL)
	if err != nil {
		r.logger.Warn("unparseable startup location, using editable mode",
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return r.ResolveToken(location.Query().Get(QueryParam))
}

// ResolveToken decodes a bare token with the same fallback policy as
// Resolve. An empty token means "no token supplied".
func (r *Resolver) ResolveToken(token string) (*model.Snapshot, bool) {
	if token == "" {
		return nil, false
	}

	snap, err := codec.Decode(token)
	if err != nil {
		r.logger.Warn("share token rejected, using editable mode",
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return snap, true
}

// Simulate feeds a locally held card straight into the snapshot shape the
// read-only renderer consumes, bypassing the codec entirely. This lets a
// user preview the shared experience without minting a real link.
//
// The Simulated flag is the one observable difference from a decoded
// snapshot: only a simulated preview gets an exit affordance, because only
// a simulated preview has a local session to exit back to.
func Simulate(card *model.Card) *model.Snapshot {
	stamps := model.NormalizeStamps(card.Stamps)
	return &model.Snapshot{
		ID:           0,
		Name:         card.Name,
		Stamps:       stamps,
		StampCount:   model.CountStamps(stamps),
		Theme:        card.Theme,
		CreatedLabel: card.CreatedLabel,
		Simulated:    true,
	}
}
