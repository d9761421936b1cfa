package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatsales_api/internal/auth"
	"chatsales_api/internal/sales/business/engine"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/pkg/logger"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConversation struct {
	mu    sync.Mutex
	seen  []engine.Message
	bots  []models.Bot
	reply models.Reply
	err   error
}

func (f *fakeConversation) HandleMessage(_ context.Context, msg engine.Message, bot models.Bot) (models.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, msg)
	f.bots = append(f.bots, bot)
	if f.err != nil {
		return models.Reply{}, f.err
	}
	return f.reply, nil
}

type sent struct {
	to    string
	reply models.Reply
}

type fakeSender struct {
	out []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to string, reply models.Reply) (string, error) {
	f.out = append(f.out, sent{to: to, reply: reply})
	return "wamid.1", f.err
}

func quietLog() logger.Logger {
	return logger.NewSilentLogger(io.Discard, "[test]")
}

func newResponder(conv Conversation) *Responder {
	bots := engine.NewStaticBots([]models.Bot{{ID: 7, TenantID: "shop", Name: "Zapatería", Active: true}})
	return NewResponder(conv, bots, quietLog())
}

func TestPostMessage_ReturnsReply(t *testing.T) {
	conv := &fakeConversation{reply: models.TextReply("¡Hola!")}
	h := NewMessageHandler(newResponder(conv), quietLog())

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"tenant_id":"shop","customer_id":"c1","text":"hola"}`))
	rec := httptest.NewRecorder()
	h.PostMessage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"kind":"text","text":"¡Hola!"}`, rec.Body.String())
	require.Len(t, conv.seen, 1)
	assert.Equal(t, engine.Message{TenantID: "shop", CustomerID: "c1", Text: "hola"}, conv.seen[0])
	assert.Equal(t, int64(7), conv.bots[0].ID)
}

func TestPostMessage_UnknownTenantGetsDefaultBot(t *testing.T) {
	conv := &fakeConversation{reply: models.TextReply("ok")}
	h := NewMessageHandler(newResponder(conv), quietLog())

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"tenant_id":"other","customer_id":"c1","text":"hola"}`))
	h.PostMessage(httptest.NewRecorder(), req)

	require.Len(t, conv.bots, 1)
	assert.Equal(t, engine.DefaultBot("other"), conv.bots[0])
}

func TestPostMessage_Validation(t *testing.T) {
	h := NewMessageHandler(newResponder(&fakeConversation{}), quietLog())

	for _, body := range []string{
		`not json`,
		`{"customer_id":"c1","text":"hola"}`,
		`{"tenant_id":"shop","text":"hola"}`,
		`{"tenant_id":"shop","customer_id":"c1","text":"   "}`,
	} {
		rec := httptest.NewRecorder()
		h.PostMessage(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestPostMessage_CartStoreFailureRendersApology(t *testing.T) {
	conv := &fakeConversation{err: &storage.CartStoreError{Op: "begin", Err: errors.New("connection reset")}}
	h := NewMessageHandler(newResponder(conv), quietLog())

	rec := httptest.NewRecorder()
	h.PostMessage(rec, httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"tenant_id":"shop","customer_id":"c1","text":"quiero 2"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), engine.TechnicalProblemReply().Text)
}

func TestPostMessage_TenantMustMatchClaims(t *testing.T) {
	conv := &fakeConversation{reply: models.TextReply("ok")}
	h := NewMessageHandler(newResponder(conv), quietLog())
	protected := auth.AuthMiddleware("secret")(http.HandlerFunc(h.PostMessage))

	token, err := auth.IssueToken("secret", "shop", auth.RoleChannel, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"tenant_id":"other","customer_id":"c1","text":"hola"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, conv.seen)
}

func TestWebhookVerify(t *testing.T) {
	h := NewWebhookHandler(newResponder(&fakeConversation{}), nil, "verify-me", quietLog())

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp/shop?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	rec = httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp/shop?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

const webhookBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [
          {"from": "5491111", "id": "m1", "type": "text", "text": {"body": "hola"}},
          {"from": "5491111", "id": "m2", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "view_cart", "title": "Ver carrito"}}},
          {"from": "5492222", "id": "m3", "type": "interactive",
           "interactive": {"type": "list_reply", "list_reply": {"id": "prod_3", "title": "Sandalias"}}},
          {"from": "5493333", "id": "m4", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestWebhookReceive_RunsEngineAndSends(t *testing.T) {
	conv := &fakeConversation{reply: models.TextReply("respuesta")}
	sender := &fakeSender{}
	h := NewWebhookHandler(newResponder(conv), sender, "v", quietLog())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhooks/whatsapp/{tenant}", h.Receive)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp/shop", strings.NewReader(webhookBody)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Len(t, conv.seen, 3)
	assert.Equal(t, engine.Message{TenantID: "shop", CustomerID: "5491111", Text: "hola"}, conv.seen[0])
	assert.Equal(t, "view_cart", conv.seen[1].Text)
	assert.Equal(t, "prod_3", conv.seen[2].Text)

	require.Len(t, sender.out, 3)
	assert.Equal(t, "5492222", sender.out[2].to)
	assert.Equal(t, "respuesta", sender.out[2].reply.Text)
}

func TestWebhookReceive_AlwaysAnswers200(t *testing.T) {
	conv := &fakeConversation{err: errors.New("catalog down")}
	sender := &fakeSender{err: errors.New("meta down")}
	h := NewWebhookHandler(newResponder(conv), sender, "v", quietLog())

	rec := httptest.NewRecorder()
	h.Receive(rec, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp/shop", strings.NewReader(webhookBody)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.out, 3)
	assert.Equal(t, engine.TechnicalProblemReply().Text, sender.out[0].reply.Text)

	rec = httptest.NewRecorder()
	h.Receive(rec, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp/shop", strings.NewReader("{broken")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, quietLog()).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := func(context.Context) error { return errors.New("no db") }
	rec = httptest.NewRecorder()
	NewHealthHandler(down, quietLog()).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLambdaHandler(t *testing.T) {
	conv := &fakeConversation{reply: models.TextReply("hola desde lambda")}
	h := NewLambdaHandler(newResponder(conv), "secret", quietLog())
	token, err := auth.IssueToken("secret", "shop", auth.RoleChannel, time.Hour)
	require.NoError(t, err)

	body := `{"tenant_id":"shop","customer_id":"c1","text":"hola"}`
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		Headers:         map[string]string{"authorization": "Bearer " + token},
		Body:            base64.StdEncoding.EncodeToString([]byte(body)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"kind":"text","text":"hola desde lambda"}`, resp.Body)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{Body: body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{
		Headers: map[string]string{"Authorization": "Bearer " + token},
		Body:    `{"tenant_id":"other","customer_id":"c1","text":"hola"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Len(t, conv.seen, 1)
}
