package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naco727/StudentCards/internal/apperror"
	"github.com/naco727/StudentCards/internal/handler"
	"github.com/naco727/StudentCards/internal/model"
	"github.com/naco727/StudentCards/internal/repository"
	"github.com/naco727/StudentCards/internal/service"
)

// In-memory repositories so handler tests run against the real service
// without SQLite. Same trick as the service tests — the interfaces make
// the storage swappable.

type memCardRepo struct {
	cards  map[int64]*model.Card
	nextID int64
}

func (m *memCardRepo) Create(_ context.Context, card *model.Card) error {
	m.nextID++
	card.ID = m.nextID
	card.NormalizeStamps()
	stored := *card
	stored.Stamps = append([]bool(nil), card.Stamps...)
	m.cards[card.ID] = &stored
	return nil
}

func (m *memCardRepo) GetByID(_ context.Context, id int64) (*model.Card, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, apperror.NotFound("card", strconv.FormatInt(id, 10))
	}
	result := *card
	result.Stamps = append([]bool(nil), card.Stamps...)
	return &result, nil
}

func (m *memCardRepo) List(_ context.Context, _ repository.ListOptions) ([]model.Card, error) {
	result := make([]model.Card, 0, len(m.cards))
	for _, c := range m.cards {
		result = append(result, *c)
	}
	return result, nil
}

func (m *memCardRepo) UpdateStamps(_ context.Context, card *model.Card) error {
	stored, ok := m.cards[card.ID]
	if !ok {
		return apperror.NotFound("card", strconv.FormatInt(card.ID, 10))
	}
	stored.Stamps = append([]bool(nil), card.Stamps...)
	return nil
}

func (m *memCardRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.cards[id]; !ok {
		return apperror.NotFound("card", strconv.FormatInt(id, 10))
	}
	delete(m.cards, id)
	return nil
}

type memShareRepo struct {
	touched map[string]int
}

func (m *memShareRepo) RecordShare(_ context.Context, share *model.Share) error {
	share.ID = "share-1"
	return nil
}

func (m *memShareRepo) TouchShare(_ context.Context, token string) error {
	m.touched[token]++
	return nil
}

func newTestHandlers(t *testing.T) (*handler.CardHandler, *handler.ShareHandler, *service.CardService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewCardService(
		&memCardRepo{cards: make(map[int64]*model.Card)},
		&memShareRepo{touched: make(map[string]int)},
		logger,
	)
	return handler.NewCardHandler(svc, logger), handler.NewShareHandler(svc, logger), svc
}

func createCard(t *testing.T, svc *service.CardService, name string) *model.Card {
	t.Helper()
	card, err := svc.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("creating fixture card: %v", err)
	}
	return card
}

func TestCardHandler_HandleCreate(t *testing.T) {
	cards, _, _ := newTestHandlers(t)

	t.Run("valid create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards",
			bytes.NewBufferString(`{"name":"Ben"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		cards.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var card model.Card
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&card))
		assert.Equal(t, "Ben", card.Name)
		assert.Equal(t, 0, card.StampCount)
		assert.Len(t, card.Stamps, model.StampCapacity)
		assert.NotZero(t, card.ID)
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards",
			bytes.NewBufferString(`{"name":`))
		rr := httptest.NewRecorder()

		cards.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards",
			bytes.NewBufferString(`{"name":"  "}`))
		rr := httptest.NewRecorder()

		cards.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errResp handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
		assert.Equal(t, "validation_error", errResp.Error)
	})
}

func TestCardHandler_HandleToggleStamp(t *testing.T) {
	cards, _, svc := newTestHandlers(t)
	card := createCard(t, svc, "Toggler")

	t.Run("toggle on", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/1/stamps/5", nil)
		req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
		req.SetPathValue("index", "5")
		rr := httptest.NewRecorder()

		cards.HandleToggleStamp(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var updated model.Card
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
		assert.True(t, updated.Stamps[5])
		assert.Equal(t, 1, updated.StampCount)
	})

	t.Run("index out of range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/1/stamps/30", nil)
		req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
		req.SetPathValue("index", "30")
		rr := httptest.NewRecorder()

		cards.HandleToggleStamp(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("non-numeric index", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/1/stamps/five", nil)
		req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
		req.SetPathValue("index", "five")
		rr := httptest.NewRecorder()

		cards.HandleToggleStamp(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown card", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/999/stamps/0", nil)
		req.SetPathValue("id", "999")
		req.SetPathValue("index", "0")
		rr := httptest.NewRecorder()

		cards.HandleToggleStamp(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCardHandler_HandleDelete(t *testing.T) {
	cards, _, svc := newTestHandlers(t)
	card := createCard(t, svc, "Doomed")

	req := httptest.NewRequest(http.MethodDelete, "/api/cards/1", nil)
	req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
	rr := httptest.NewRecorder()

	cards.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Deleting again: gone.
	rr = httptest.NewRecorder()
	cards.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestShareHandler_ShareAndResolve(t *testing.T) {
	_, shares, svc := newTestHandlers(t)
	card := createCard(t, svc, "Shared Card")
	if _, err := svc.ToggleStamp(context.Background(), card.ID, 3); err != nil {
		t.Fatalf("toggling fixture stamp: %v", err)
	}

	// Issue the share link.
	req := httptest.NewRequest(http.MethodPost, "/api/cards/1/share", nil)
	req.Host = "cards.example"
	req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
	rr := httptest.NewRecorder()

	shares.HandleShare(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var issued struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&issued))
	assert.NotEmpty(t, issued.Token)
	assert.Contains(t, issued.URL, "http://cards.example/shared?s=")

	// Resolve it back through the shared endpoint.
	req = httptest.NewRequest(http.MethodGet, "/shared?s="+issued.Token, nil)
	rr = httptest.NewRecorder()

	shares.HandleShared(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var snap model.Snapshot
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.Equal(t, "Shared Card", snap.Name)
	assert.Equal(t, 1, snap.StampCount)
	assert.True(t, snap.Stamps[3])
	assert.False(t, snap.Simulated)
	assert.Zero(t, snap.ID)
}

func TestShareHandler_HandleShared_BadToken(t *testing.T) {
	_, shares, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/shared?s=garbage!!!", nil)
	rr := httptest.NewRecorder()

	shares.HandleShared(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp handler.ErrorResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "invalid_token", errResp.Error)
}

func TestShareHandler_HandleShared_MissingToken(t *testing.T) {
	_, shares, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/shared", nil)
	rr := httptest.NewRecorder()

	shares.HandleShared(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestShareHandler_HandlePreview(t *testing.T) {
	_, shares, svc := newTestHandlers(t)
	card := createCard(t, svc, "Preview Me")

	req := httptest.NewRequest(http.MethodGet, "/api/cards/1/preview", nil)
	req.SetPathValue("id", strconv.FormatInt(card.ID, 10))
	rr := httptest.NewRecorder()

	shares.HandlePreview(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var snap model.Snapshot
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.True(t, snap.Simulated, "preview snapshots carry the exit affordance marker")
	assert.Equal(t, "Preview Me", snap.Name)
}
