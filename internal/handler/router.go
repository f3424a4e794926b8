package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/talan-labs/avatar/backend/internal/handler/chat"
	"github.com/talan-labs/avatar/backend/internal/handler/events"
	panelHandler "github.com/talan-labs/avatar/backend/internal/handler/panel"
	streamHandler "github.com/talan-labs/avatar/backend/internal/handler/stream"
	middlewarePkg "github.com/talan-labs/avatar/backend/internal/middleware"
	"github.com/talan-labs/avatar/backend/internal/service/bridge"
	leaveService "github.com/talan-labs/avatar/backend/internal/service/leave"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
	"github.com/talan-labs/avatar/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, leaveSvc *leaveService.Service, strategy string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	panelBridge := bridge.New(sessions)

	chatH := chatHandler.New(sessions)
	panelH := panelHandler.New(leaveSvc, panelBridge)
	streamH := streamHandler.New(sessions)
	eventsH := events.NewWebSocketHandler(sessions)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		panelH.RegisterRoutes(api)
		eventsH.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "healthy",
				"resolver": strategy,
			})
		})
	})

	return r
}
