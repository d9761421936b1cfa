package handlers

import (
	"context"
	"net/http"
	"time"

	"chatsales_api/pkg/logger"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
	log  logger.Logger
}

// NewHealthHandler takes the storage ping; nil means there is nothing to check.
func NewHealthHandler(ping func(ctx context.Context) error, log logger.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.log.Log("health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, h.log)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.log)
}
