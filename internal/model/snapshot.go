package model

import "time"

// Snapshot is a read-only projection of a card's shareable fields.
//
// A snapshot comes from one of two places:
//   - decoding an incoming share token (Simulated = false)
//   - a user previewing one of their own cards through the same read-only
//     renderer without minting a real token (Simulated = true)
//
// Either way it is transient: it is never written back into the persisted
// collection, and its ID is always 0 because a decoded token does not
// correspond to any locally stored card.
//
// The Simulated flag is what lets the UI show an "exit preview" affordance
// for locally sourced snapshots only — an externally shared snapshot has
// nothing in that session's data to exit back to.
type Snapshot struct {
	ID           int64  `json:"id"` // always 0 — not a persisted card
	Name         string `json:"name"`
	StampCount   int    `json:"stampCount"`
	Stamps       []bool `json:"stampStates"`
	CreatedLabel string `json:"createdLabel"`
	Theme        Theme  `json:"themeColor"`
	Simulated    bool   `json:"simulated"`
}

// Share is the audit record kept for every issued share token: who was
// shared (the card), the exact token handed out, and how often it has been
// resolved back through this server.
type Share struct {
	ID          string    `json:"id"` // xid, sortable by creation time
	CardID      int64     `json:"cardId"`
	Token       string    `json:"token"`
	AccessCount int       `json:"accessCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
