package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/naco727/StudentCards/internal/service"
	"github.com/naco727/StudentCards/internal/snapshot"
)

// ShareHandler covers everything token-shaped: issuing share links,
// resolving incoming tokens into read-only snapshots, and the simulated
// preview that reuses the snapshot shape without a token.
type ShareHandler struct {
	service *service.CardService
	logger  *slog.Logger
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(service *service.CardService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{service: service, logger: logger}
}

// shareResponse is the body returned when a share link is issued.
type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// HandleShare issues a share token for a card.
//
// HTTP: POST /api/cards/{id}/share
// RESPONSE: {"token":"...", "url":"http://host/shared?s=..."}
//
// The URL is assembled from the incoming request's host so the link works
// wherever this instance happens to be reachable.
func (h *ShareHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	share, err := h.service.Share(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	query := url.Values{snapshot.QueryParam: {share.Token}}.Encode()

	writeJSON(w, http.StatusCreated, shareResponse{
		Token: share.Token,
		URL:   fmt.Sprintf("%s://%s/shared?%s", scheme, r.Host, query),
	})
}

// HandleShared resolves an incoming share token into a read-only snapshot.
//
// HTTP: GET /shared?s=<token>
//
// This is the explicit decode endpoint: unlike the startup resolver, a bad
// token here is answered with 400 rather than a silent fallback — the caller
// asked for exactly this token to be decoded.
func (h *ShareHandler) HandleShared(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(snapshot.QueryParam)
	if token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("Query parameter %q is required", snapshot.QueryParam),
		})
		return
	}

	snap, err := h.service.ResolveToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandlePreview returns the simulated read-only snapshot of a local card.
//
// HTTP: GET /api/cards/{id}/preview
//
// The response is the same shape HandleShared produces, with Simulated set —
// the client renders both through the same read-only view and shows the exit
// affordance only for this one.
func (h *ShareHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	snap, err := h.service.SimulatePreview(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// cardID mirrors CardHandler.cardID for the share routes.
func (h *ShareHandler) cardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseCardID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Card ID must be an integer",
		})
		return 0, false
	}
	return id, true
}
