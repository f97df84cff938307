package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Qqcola/ads-price-compare/internal/core"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

type InferenceRequest struct {
	Query   string               `json:"query"`
	History []store.HistoryEntry `json:"history"`
}

// NewChatRouter wires the inference service. The streamer owns the response
// once decoding succeeds; errors after that point cannot become status codes.
func NewChatRouter(streamer *core.AnswerStreamer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	r.Post("/inference", func(w http.ResponseWriter, req *http.Request) {
		var in InferenceRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		streamer.Stream(req.Context(), w, in.Query, in.History)
	})

	return r
}
