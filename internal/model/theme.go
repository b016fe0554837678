package model

import "math/rand/v2"

// Theme is one of the fixed visual colour identifiers a card can carry.
type Theme string

// Themes is the fixed, ordered enumeration of valid themes.
//
// ORDER IS PART OF THE WIRE FORMAT:
// Share tokens carry a theme as its index into this slice, not as text.
// Reordering or removing entries changes the meaning of every token already
// out in the wild, so this list is append-only (and appending still needs a
// format version bump before anything relies on an index above 3).
var Themes = []Theme{
	"bg-indigo-500",
	"bg-rose-500",
	"bg-emerald-500",
	"bg-amber-500",
}

// ThemeIndex resolves a theme to its wire-format index.
// Unknown themes map to 0 — decode does the same, so an unknown theme
// round-trips deterministically to the first enumeration member.
func ThemeIndex(theme Theme) int {
	for i, t := range Themes {
		if t == theme {
			return i
		}
	}
	return 0
}

// ThemeAt resolves a wire-format index back to a theme.
// Out-of-range indexes fall back to Themes[0] — this is deliberate recovery,
// not an error: a stale token should still render with some valid theme.
func ThemeAt(index int) Theme {
	if index < 0 || index >= len(Themes) {
		return Themes[0]
	}
	return Themes[index]
}

// RandomTheme picks a theme for a newly created card.
func RandomTheme() Theme {
	return Themes[rand.IntN(len(Themes))]
}
