package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"chatsales_api/internal/sales/business/engine"
	"chatsales_api/pkg/logger"
)

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type interactiveReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type inboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string            `json:"type"`
		ButtonReply *interactiveReply `json:"button_reply,omitempty"`
		ListReply   *interactiveReply `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// content is what the engine should read. Menu selections carry their id so that
// prod_ and cat_ tokens reach the matcher.
func (m inboundMessage) content() string {
	if i := m.Interactive; i != nil {
		switch {
		case i.ButtonReply != nil:
			return i.ButtonReply.ID
		case i.ListReply != nil:
			return i.ListReply.ID
		}
	}
	if m.Text != nil {
		return m.Text.Body
	}
	return ""
}

type WebhookHandler struct {
	responder   *Responder
	sender      Sender
	verifyToken string
	log         logger.Logger
}

// NewWebhookHandler accepts a nil sender; replies are then computed and logged only.
func NewWebhookHandler(responder *Responder, sender Sender, verifyToken string, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{responder: responder, sender: sender, verifyToken: verifyToken, log: log}
}

// Verify answers the provider's subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || h.verifyToken == "" || q.Get("hub.verify_token") != h.verifyToken {
		http.Error(w, "Verification token mismatch", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, q.Get("hub.challenge"))
}

// Receive always answers 200 so the provider does not redeliver; failures are logged.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")

	var payload webhookPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.log.Log("Failed to decode webhook for %s: %v", tenantID, err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "invalid payload"}, h.log)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				h.handle(r, tenantID, m)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.log)
}

func (h *WebhookHandler) handle(r *http.Request, tenantID string, m inboundMessage) {
	text := strings.TrimSpace(m.content())
	if text == "" || m.From == "" {
		h.log.Log("skipping %s message %s from %q", m.Type, m.ID, m.From)
		return
	}

	reply := h.responder.Reply(r.Context(), engine.Message{TenantID: tenantID, CustomerID: m.From, Text: text})
	if h.sender == nil {
		h.log.Log("no sender configured, reply to %s dropped", m.From)
		return
	}
	if _, err := h.sender.Send(r.Context(), m.From, reply); err != nil {
		h.log.Log("Failed to deliver reply to %s: %v", m.From, err)
	}
}
