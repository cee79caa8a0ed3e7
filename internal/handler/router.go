package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/harshal-star/fragrance-chatbot/internal/config"
	chathandler "github.com/harshal-star/fragrance-chatbot/internal/handler/chat"
	streamhandler "github.com/harshal-star/fragrance-chatbot/internal/handler/stream"
	wshandler "github.com/harshal-star/fragrance-chatbot/internal/handler/ws"
	"github.com/harshal-star/fragrance-chatbot/internal/middleware"
	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
	"github.com/harshal-star/fragrance-chatbot/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatservice.Service, aiSvc *aiservice.Service, static config.StaticConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	chatHandler := chathandler.New(chatSvc, aiSvc)
	streamHandler := streamhandler.New(aiSvc, chatSvc)
	wsHandler := wshandler.New(aiSvc, chatSvc)

	// The single chat endpoint plus the front-end page, matching the
	// original deployment surface.
	r.Post("/chat", chatHandler.HandleChat)
	r.Get("/", serveIndex(static.Dir))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(static.Dir))))

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Error().Err(err).Str("session", sessionID).Msg("stream request failed")
			}
		})
	})

	return r
}

func serveIndex(staticDir string) http.HandlerFunc {
	index := filepath.Join(staticDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	}
}
