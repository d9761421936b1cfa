package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatsales_api/pkg/logger"
	"chatsales_api/pkg/middleware"

	"golang.org/x/time/rate"
)

type BaseClient struct {
	ApiURL  string
	token   string
	log     logger.Logger
	client  *http.Client
	limiter *rate.Limiter
	do      middleware.RequestFunc
}

// NewBaseClient limits outbound calls to perSecond (unlimited when <= 0).
func NewBaseClient(apiURL, token string, perSecond int, log logger.Logger, mws ...middleware.Middleware) *BaseClient {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	c := &BaseClient{
		ApiURL:  apiURL,
		token:   token,
		log:     log,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, max(perSecond, 1)),
	}
	c.do = middleware.Chain(c.doRequest, mws...)
	return c
}

func (c *BaseClient) Do(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return c.do(ctx, method, endpoint, requestBody, response)
}

func (c *BaseClient) doRequest(ctx context.Context, method, endpoint string, requestBody interface{}, response interface{}) error {
	var bodyBytes []byte
	if requestBody != nil {
		var err error
		bodyBytes, err = json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ApiURL+endpoint, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			return fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if response == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-OK status: %d: %s", e.Code, e.Body)
}
