package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatsales_api/internal/sales/business/engine"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/metrics"
	"chatsales_api/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Conversation answers one customer message.
type Conversation interface {
	HandleMessage(ctx context.Context, msg engine.Message, bot models.Bot) (models.Reply, error)
}

// Sender delivers a reply over the customer's channel.
type Sender interface {
	Send(ctx context.Context, to string, reply models.Reply) (string, error)
}

// Responder resolves the tenant's bot and turns engine failures into the generic
// technical-problem reply, so channels always get something to show.
type Responder struct {
	conv Conversation
	bots engine.BotDirectory
	log  logger.Logger
}

func NewResponder(conv Conversation, bots engine.BotDirectory, log logger.Logger) *Responder {
	return &Responder{conv: conv, bots: bots, log: log}
}

func (r *Responder) Reply(ctx context.Context, msg engine.Message) models.Reply {
	var bot models.Bot
	var ok bool
	if r.bots != nil {
		bot, ok = r.bots.BotFor(ctx, msg.TenantID)
	}
	if !ok {
		bot = engine.DefaultBot(msg.TenantID)
	}

	reply, err := r.conv.HandleMessage(ctx, msg, bot)
	if err != nil {
		if errors.Is(err, storage.ErrCartStore) {
			r.log.Log("cart store failure for %s/%s: %v", msg.TenantID, msg.CustomerID, err)
		} else {
			r.log.Log("Failed to handle message for %s/%s: %v", msg.TenantID, msg.CustomerID, err)
		}
		metrics.RecordReply(models.SourceError, "")
		return engine.TechnicalProblemReply()
	}
	return reply
}

func decodeMessage(body io.Reader) (engine.Message, error) {
	var msg engine.Message
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&msg); err != nil {
		return msg, fmt.Errorf("failed to decode request body: %w", err)
	}
	msg.TenantID = strings.TrimSpace(msg.TenantID)
	msg.CustomerID = strings.TrimSpace(msg.CustomerID)
	switch {
	case msg.TenantID == "":
		return msg, errors.New("tenant_id is required")
	case msg.CustomerID == "":
		return msg, errors.New("customer_id is required")
	case strings.TrimSpace(msg.Text) == "":
		return msg, errors.New("text is required")
	}
	return msg, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Log("Failed to encode response: %v", err)
	}
}
