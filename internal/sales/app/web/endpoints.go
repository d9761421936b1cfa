package web

import (
	"net/http"

	"chatsales_api/internal/auth"
	"chatsales_api/internal/sales/app/web/handlers"
	"chatsales_api/metrics"
	"chatsales_api/pkg/logger"
	"chatsales_api/pkg/middleware"
)

type Handlers struct {
	Messages *handlers.MessageHandler
	Webhook  *handlers.WebhookHandler
	Health   *handlers.HealthHandler
}

// SetupRoutes builds the service mux. An empty jwtSecret leaves /api/messages open.
func SetupRoutes(h Handlers, jwtSecret string, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	var messages http.Handler = http.HandlerFunc(h.Messages.PostMessage)
	if jwtSecret != "" {
		messages = auth.AuthMiddleware(jwtSecret)(auth.RoleMiddleware(auth.RoleChannel, auth.RoleAdmin)(messages))
	} else {
		log.Log("JWT secret is not set, /api/messages accepts unauthenticated requests")
	}
	mux.Handle("POST /api/messages", messages)

	mux.HandleFunc("GET /webhooks/whatsapp/{tenant}", h.Webhook.Verify)
	mux.HandleFunc("POST /webhooks/whatsapp/{tenant}", h.Webhook.Receive)
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.Handle("GET /metrics", metrics.MetricsHandler())

	return middleware.PrometheusMiddleware(middleware.LoggingMiddleware(log)(mux))
}
