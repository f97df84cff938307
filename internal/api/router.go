package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the web server: catalog and conversation APIs, auth, and
// the websocket relay endpoint.
func NewRouter(apiHandler *APIHandler, relayHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(apiHandler.WithIdentity)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		})

		r.Get("/search", apiHandler.SearchHandler)
		r.Get("/trending", apiHandler.TrendingHandler)
		r.Get("/itemById", apiHandler.ItemByIDHandler)

		r.Post("/pushConversation", apiHandler.PushConversationHandler)
		r.Put("/updateConversation", apiHandler.UpdateConversationHandler)
		r.Post("/findConversationByUser", apiHandler.FindConversationsByUserHandler)
		r.Put("/deleteConversationById", apiHandler.DeleteConversationByIDHandler)

		r.Get("/session", apiHandler.SessionHandler)
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireAuth)
			r.Get("/me", apiHandler.MeHandler)
		})
	})

	r.Post("/signup", apiHandler.SignupHandler)
	r.Post("/login", apiHandler.LoginHandler)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/refresh", apiHandler.RefreshHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
	})

	r.Handle("/ws", relayHandler)

	return r
}
