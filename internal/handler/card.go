package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/naco727/StudentCards/internal/service"
)

// CardHandler exposes the card collection over HTTP.
//
// It owns nothing but request parsing and response writing — validation and
// persistence live in the service, which is why the handler never returns a
// status code the service didn't cause (apart from parse failures).
type CardHandler struct {
	service *service.CardService
	logger  *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(service *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{service: service, logger: logger}
}

// createCardRequest is the body of POST /api/cards.
type createCardRequest struct {
	Name string `json:"name"`
}

// HandleList returns the card collection.
//
// HTTP: GET /api/cards?limit=20&offset=0
func (h *CardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	// Unparseable pagination values fall back to 0; the service clamps.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	cards, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// HandleCreate creates a new card.
//
// HTTP: POST /api/cards
// REQUEST BODY: {"name": "Ben"}
func (h *CardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid card JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_json",
			Message: "Request body must be valid JSON",
		})
		return
	}

	card, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

// HandleGet returns a single card.
//
// HTTP: GET /api/cards/{id}
func (h *CardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	card, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// HandleDelete removes a card.
//
// HTTP: DELETE /api/cards/{id}
func (h *CardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleStamp flips one stamp on a card and returns the updated card.
//
// HTTP: POST /api/cards/{id}/stamps/{index}
func (h *CardHandler) HandleToggleStamp(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Stamp index must be an integer",
		})
		return
	}

	card, err := h.service.ToggleStamp(r.Context(), id, index)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// cardID parses the {id} path parameter, writing the error response itself
// when the value isn't a valid integer identifier.
func (h *CardHandler) cardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
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

// parseCardID extracts the {id} path parameter as an int64.
func parseCardID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
