package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandlePoolConnection subscribes the caller to one pool's events.
func (h *WebSocketHandler) HandlePoolConnection(w http.ResponseWriter, r *http.Request) {
	poolName := r.URL.Query().Get("pool")
	if poolName == "" {
		http.Error(w, "pool is required", http.StatusBadRequest)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = AnonymousUser
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, poolName); err != nil {
		if errors.Is(err, ErrTooManyConnections) {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		// the upgrader has already written the error response
		log.Error().
			Err(err).
			Str("pool", poolName).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats reports open subscribers per pool.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/pool", h.HandlePoolConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
