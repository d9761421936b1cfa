package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chatsales_api/internal/auth"
	"chatsales_api/pkg/logger"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler serves the /api/messages contract behind API Gateway.
type LambdaHandler struct {
	responder *Responder
	jwtSecret string
	log       logger.Logger
}

func NewLambdaHandler(responder *Responder, jwtSecret string, log logger.Logger) *LambdaHandler {
	return &LambdaHandler{responder: responder, jwtSecret: jwtSecret, log: log}
}

func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errorResponse(http.StatusBadRequest, "invalid base64 body"), nil
		}
		body = string(decoded)
	}

	msg, err := decodeMessage(strings.NewReader(body))
	if err != nil {
		return errorResponse(http.StatusBadRequest, err.Error()), nil
	}

	if h.jwtSecret != "" {
		claims, err := auth.ClaimsFromHeader(header(req.Headers, "Authorization"), h.jwtSecret)
		if err != nil {
			if !errors.Is(err, auth.ErrNoToken) {
				h.log.Log("rejected token: %v", err)
			}
			return errorResponse(http.StatusUnauthorized, "unauthorized"), nil
		}
		if !claims.CanActFor(msg.TenantID) {
			return errorResponse(http.StatusForbidden, "access denied for tenant"), nil
		}
	}

	out, err := json.Marshal(h.responder.Reply(ctx, msg))
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(out),
	}, nil
}

// header looks a key up case-insensitively; API Gateway passes them as sent.
func header(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
