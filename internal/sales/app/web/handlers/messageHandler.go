package handlers

import (
	"net/http"

	"chatsales_api/internal/auth"
	"chatsales_api/pkg/logger"
)

type MessageHandler struct {
	responder *Responder
	log       logger.Logger
}

func NewMessageHandler(responder *Responder, log logger.Logger) *MessageHandler {
	return &MessageHandler{responder: responder, log: log}
}

// PostMessage answers {tenant_id, customer_id, text} with the engine's reply.
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := decodeMessage(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if claims, ok := auth.FromContext(r.Context()); ok && !claims.CanActFor(msg.TenantID) {
		http.Error(w, "Access denied for tenant", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, h.responder.Reply(r.Context(), msg), h.log)
}
