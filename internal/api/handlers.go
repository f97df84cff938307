package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Qqcola/ads-price-compare/internal/catalog"
	"github.com/Qqcola/ads-price-compare/internal/config"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

const similarItemsLimit = 15

type ItemStore interface {
	SearchItems(ctx context.Context, q string, limit int) ([]store.Item, error)
	TrendingItems(ctx context.Context) ([]store.Item, error)
	ItemByID(ctx context.Context, id string) (*store.Item, error)
	ItemsByBrand(ctx context.Context, brand, excludeID string) ([]store.Item, error)
}

type ConversationStore interface {
	PushConversation(ctx context.Context, conv *store.Conversation) error
	AppendExchange(ctx context.Context, id, userText, botText, editTime string) error
	ConversationsByUser(ctx context.Context, userID string) ([]store.Conversation, error)
	DeleteConversationByID(ctx context.Context, id string) error
}

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UserByID(ctx context.Context, id string) (*store.User, error)
	CreateUser(ctx context.Context, user *store.User) (*store.User, error)
	SetRefreshTokenID(ctx context.Context, userID, jti string) error
}

type APIHandler struct {
	items ItemStore
	convs ConversationStore
	users UserStore
	cfg   config.Config
}

func NewAPIHandler(items ItemStore, convs ConversationStore, users UserStore, cfg config.Config) *APIHandler {
	return &APIHandler{items: items, convs: convs, users: users, cfg: cfg}
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.items.SearchItems(r.Context(), q, limit)
	if err != nil {
		log.Printf("Error searching items for %q: %v", q, err)
		writeJSONError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, catalog.DedupeItems(items))
}

func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.TrendingItems(r.Context())
	if err != nil {
		log.Printf("Error fetching trending items: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch trending")
		return
	}
	writeJSON(w, http.StatusOK, catalog.DedupeItems(items))
}

type ItemByIDResponse struct {
	Item         *store.Item  `json:"item"`
	SimilarItems []store.Item `json:"similarItems"`
}

func (h *APIHandler) ItemByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.items.ItemByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Item not found")
			return
		}
		log.Printf("Error fetching item %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch item")
		return
	}

	candidates, err := h.items.ItemsByBrand(r.Context(), item.Brand, item.ID)
	if err != nil {
		// Similar items are decoration; the item page still works without them.
		log.Printf("Error fetching similar items for %s: %v", id, err)
		candidates = []store.Item{}
	}
	similar := catalog.RankSimilar(*item, candidates)
	if len(similar) > similarItemsLimit {
		similar = similar[:similarItemsLimit]
	}

	writeJSON(w, http.StatusOK, ItemByIDResponse{Item: item, SimilarItems: similar})
}

type PushConversationRequest struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	EditTime string `json:"edit_time"`
	UserText string `json:"user_text"`
	BotText  string `json:"bot_text"`
}

func (h *APIHandler) PushConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req PushConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "id is required")
		return
	}

	conv := &store.Conversation{
		ID:       req.ID,
		UserID:   h.effectiveUserID(r, req.UserID),
		Name:     req.Name,
		EditTime: req.EditTime,
		History: []store.HistoryEntry{
			{Speaker: store.SpeakerUser, Text: req.UserText},
			{Speaker: store.SpeakerBot, Text: req.BotText},
		},
	}
	if err := h.convs.PushConversation(r.Context(), conv); err != nil {
		log.Printf("Error pushing conversation %s: %v", req.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to save conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type UpdateConversationRequest struct {
	ID       string `json:"id"`
	UserText string `json:"user_text"`
	BotText  string `json:"bot_text"`
	EditTime string `json:"edit_time"`
}

func (h *APIHandler) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := h.convs.AppendExchange(r.Context(), req.ID, req.UserText, req.BotText, req.EditTime)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		log.Printf("Error updating conversation %s: %v", req.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type FindConversationsRequest struct {
	UserID string `json:"user_id"`
}

func (h *APIHandler) FindConversationsByUserHandler(w http.ResponseWriter, r *http.Request) {
	var req FindConversationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	convs, err := h.convs.ConversationsByUser(r.Context(), h.effectiveUserID(r, req.UserID))
	if err != nil {
		log.Printf("Error finding conversations for %s: %v", req.UserID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load conversations")
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

type DeleteConversationRequest struct {
	ID string `json:"id"`
}

func (h *APIHandler) DeleteConversationByIDHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.convs.DeleteConversationByID(r.Context(), req.ID); err != nil {
		log.Printf("Error deleting conversation %s: %v", req.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// effectiveUserID prefers the authenticated identity from the access cookie
// and falls back to the caller-supplied user id (guest marker included).
func (h *APIHandler) effectiveUserID(r *http.Request, supplied string) string {
	if claims := identityFromContext(r.Context()); claims != nil && claims.Email != "" {
		return claims.Email
	}
	if supplied == "" {
		return "guest"
	}
	return supplied
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
