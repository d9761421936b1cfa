package middleware

import (
	"context"
	"time"

	"chatsales_api/metrics"
	"chatsales_api/pkg/logger"
)

// RequestFunc is the shape of an outbound client call.
type RequestFunc func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error

type Middleware func(next RequestFunc) RequestFunc

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(fn RequestFunc, mws ...Middleware) RequestFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		fn = mws[i](fn)
	}
	return fn
}

// Outbound logs and counts every provider call made through a client.
func Outbound(provider string, log logger.Logger) Middleware {
	return func(next RequestFunc) RequestFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			start := time.Now()
			err := next(ctx, method, endpoint, requestBody, response)
			metrics.RecordOutbound(provider, err)
			if err != nil {
				log.Log("%s %s failed after %s: %v", method, endpoint, time.Since(start).Round(time.Millisecond), err)
			}
			return err
		}
	}
}
