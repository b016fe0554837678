// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// StampCapacity is the fixed number of stamp slots on every card.
//
// This constant is the single source of truth for the grid size, the bitmask
// width in the share-token codec, and the persisted bitmask column. Every
// place that needs "30" references this constant — duplicated literals would
// let the encode and decode sides silently drift apart.
//
// NOTE: raising this past 62 breaks the int64 bitmask used by PackStamps and
// by the codec. The codec has a compile-time guard for exactly that.
const StampCapacity = 30

// Card represents one tracked subject with its achievement stamps.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON when it travels through the HTTP API.
type Card struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	StampCount   int       `json:"stampCount"`   // always recomputed from Stamps
	Stamps       []bool    `json:"stampStates"`  // length is always StampCapacity
	CreatedLabel string    `json:"createdLabel"` // display-formatted creation text, opaque
	Theme        Theme     `json:"themeColor"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeStamps forces c.Stamps to exactly StampCapacity entries,
// padding with false or truncating as needed, and recounts.
// Call this after filling the struct from any external source.
func (c *Card) NormalizeStamps() {
	c.Stamps = NormalizeStamps(c.Stamps)
	c.RecountStamps()
}

// RecountStamps recomputes StampCount from Stamps. The count is derived
// state — it is never trusted from a token or a database row.
func (c *Card) RecountStamps() {
	c.StampCount = CountStamps(c.Stamps)
}

// NormalizeStamps returns a copy of states with exactly StampCapacity entries.
func NormalizeStamps(states []bool) []bool {
	normalized := make([]bool, StampCapacity)
	copy(normalized, states)
	return normalized
}

// CountStamps returns the number of true entries in states.
func CountStamps(states []bool) int {
	count := 0
	for _, set := range states {
		if set {
			count++
		}
	}
	return count
}

// PackStamps collapses a stamp sequence into a bitmask: bit i is set when
// states[i] is true. Entries beyond StampCapacity are ignored.
//
// The bitmask is both the wire representation inside share tokens and the
// storage representation in the cards table, so pack/unpack live here in the
// model package where both the codec and the repository can reach them.
func PackStamps(states []bool) int64 {
	var mask int64
	for i, set := range states {
		if i >= StampCapacity {
			break
		}
		if set {
			mask |= 1 << i
		}
	}
	return mask
}

// UnpackStamps expands a bitmask back into a StampCapacity-length sequence.
// Bits at or above StampCapacity are ignored.
func UnpackStamps(mask int64) []bool {
	states := make([]bool, StampCapacity)
	for i := range states {
		states[i] = mask&(1<<i) != 0
	}
	return states
}
