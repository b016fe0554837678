// Package codec implements the compact share-token codec: a bidirectional,
// lossy-by-design transform between a card and a short URL-safe text token.
//
// TOKEN LAYOUT (inside-out):
//
//	[name, bitmask, themeIndex, createdLabel]   JSON array
//	→ percent-encoded (byte-safe ASCII)
//	→ URL-safe base64
//
// The 30 stamp booleans collapse into a single integer bitmask (bit i set ⇔
// stamp i earned), which is what keeps the token short enough to paste into
// a link. The price of that compactness is a hard ceiling: the format cannot
// carry more stamps than the bitmask has bits, so the capacity constant is
// guarded at compile time below.
//
// This package is a leaf: pure functions, no storage, no HTTP, no clock.
// Encode and Decode are deterministic and safe to call from anywhere.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"net/url"

	"github.com/naco727/StudentCards/internal/apperror"
	"github.com/naco727/StudentCards/internal/model"
)

// tokenArity is the element count of the compact array form:
// [name, bitmask, themeIndex, createdLabel].
const tokenArity = 4

// Compile-time guard: if StampCapacity is ever raised past the usable width
// of the int64 bitmask (bit 62 is the last bit that keeps the mask positive),
// this array type gets a negative length and the build fails — loudly,
// instead of Encode silently truncating high stamps.
var _ [62 - model.StampCapacity]struct{}

// legacyToken is the keyed object shape produced by an earlier, less compact
// encoder. Decode must keep accepting it indefinitely: tokens live in old
// chat messages and bookmarks with no way to reissue them.
//
// Field meanings: n=name, p=points (stamp count, untrusted), s=stamp states,
// t=theme name (text, not an index), d=created label.
type legacyToken struct {
	Name    string  `json:"n"`
	Points  int     `json:"p"`
	Stamps  []bool  `json:"s"`
	Theme   *string `json:"t"`
	Created string  `json:"d"`
}

// Encode serializes the shareable subset of a card into an opaque token.
//
// The result is URL-safe as-is: the base64.URLEncoding alphabet uses '-' and
// '_' instead of '+' and '/', so the token can be dropped straight into a
// query parameter without further escaping. Deterministic, no side effects,
// does not mutate the card.
func Encode(card *model.Card) (string, error) {
	if card == nil {
		return "", apperror.ValidationFailed("card", "card is required")
	}

	tuple := []any{
		card.Name,
		model.PackStamps(card.Stamps),
		model.ThemeIndex(card.Theme),
		card.CreatedLabel,
	}

	payload, err := json.Marshal(tuple)
	if err != nil {
		// Unreachable with the field types above, but the error path stays.
		return "", apperror.MalformedToken("encode", err)
	}

	escaped := url.QueryEscape(string(payload))
	return base64.URLEncoding.EncodeToString([]byte(escaped)), nil
}

// Decode parses a presumed Encode output back into a read-only snapshot.
//
// The input is untrusted external text — it arrives on a URL anyone can
// construct — so every stage validates before the next runs, and any failure
// yields an error, never a partial or best-guess snapshot. Two payload shapes
// are accepted: the compact positional array Encode produces, and the legacy
// keyed object (see legacyToken).
func Decode(token string) (*model.Snapshot, error) {
	unescaped, err := decodeTransport(token)
	if err != nil {
		return nil, err
	}

	// Shape-sniff: a token payload is either a JSON array (compact form)
	// or a JSON object (legacy form). Anything else is not a token.
	var elements []json.RawMessage
	if err := json.Unmarshal(unescaped, &elements); err == nil {
		return decodeArray(elements)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(unescaped, &keys); err != nil {
		// Neither an array nor an object — scalars and broken syntax both
		// land here.
		return nil, apperror.MalformedToken("json", err)
	}
	// json.Unmarshal accepts {} happily, so presence of the name key is
	// checked explicitly — an object without it is not a legacy token.
	if _, ok := keys["n"]; !ok {
		return nil, apperror.UnexpectedShape("object missing name key")
	}
	var legacy legacyToken
	if err := json.Unmarshal(unescaped, &legacy); err != nil {
		return nil, apperror.UnexpectedShape("legacy field has wrong type")
	}
	return decodeLegacy(&legacy), nil
}

// decodeTransport reverses the two transport layers: base64, then
// percent-encoding. Returns the raw JSON payload bytes.
func decodeTransport(token string) ([]byte, error) {
	raw, err := decodeBase64(token)
	if err != nil {
		return nil, apperror.MalformedToken("base64", err)
	}
	unescaped, err := url.QueryUnescape(string(raw))
	if err != nil {
		return nil, apperror.MalformedToken("percent-encoding", err)
	}
	return []byte(unescaped), nil
}

// decodeBase64 tries the URL-safe alphabet first (what Encode emits), then
// the standard alphabet, each with and without padding. Previously issued
// tokens used the standard alphabet, so all four variants stay accepted.
func decodeBase64(token string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawURLEncoding,
		base64.RawStdEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(token)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// decodeArray interprets the compact positional form.
func decodeArray(elements []json.RawMessage) (*model.Snapshot, error) {
	if len(elements) != tokenArity {
		return nil, apperror.UnexpectedShape("wrong array length")
	}

	var name string
	if err := json.Unmarshal(elements[0], &name); err != nil {
		return nil, apperror.UnexpectedShape("name is not a string")
	}

	// Unmarshalling into int64 rejects floats, exponents, and strings —
	// "non-numeric bitmask" fails here rather than truncating.
	var bitmask int64
	if err := json.Unmarshal(elements[1], &bitmask); err != nil {
		return nil, apperror.UnexpectedShape("bitmask is not an integer")
	}
	if bitmask < 0 || bitmask >= 1<<model.StampCapacity {
		return nil, apperror.UnexpectedShape("bitmask out of range")
	}

	var themeIndex int
	if err := json.Unmarshal(elements[2], &themeIndex); err != nil {
		return nil, apperror.UnexpectedShape("theme index is not an integer")
	}

	var created string
	if err := json.Unmarshal(elements[3], &created); err != nil {
		return nil, apperror.UnexpectedShape("created label is not a string")
	}

	stamps := model.UnpackStamps(bitmask)
	return &model.Snapshot{
		ID:           0, // a decoded snapshot never maps to a stored card
		Name:         name,
		Stamps:       stamps,
		StampCount:   model.CountStamps(stamps),
		Theme:        model.ThemeAt(themeIndex), // out-of-range falls back, by contract
		CreatedLabel: created,
	}, nil
}

// decodeLegacy interprets the keyed object form. The stamp count is always
// recomputed from the states — the transmitted p field is a convenience the
// old encoder wrote, not something to trust.
func decodeLegacy(legacy *legacyToken) *model.Snapshot {
	stamps := model.NormalizeStamps(legacy.Stamps)

	// Legacy tokens carry the theme as text, not an index. Unknown or
	// missing names get the same first-member fallback as out-of-range
	// indexes: round through the enumeration and back.
	theme := model.Themes[0]
	if legacy.Theme != nil {
		theme = model.ThemeAt(model.ThemeIndex(model.Theme(*legacy.Theme)))
	}

	return &model.Snapshot{
		ID:           0,
		Name:         legacy.Name,
		Stamps:       stamps,
		StampCount:   model.CountStamps(stamps),
		Theme:        theme,
		CreatedLabel: legacy.Created,
	}
}
