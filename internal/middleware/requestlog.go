// Package middleware provides client-side HTTP middlewares for tracing and
// logging calls to the remote data service.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// WithRequestID returns ctx carrying id, which WithRequestLogging sends
// instead of generating a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestIDFromContext returns the request id stored in ctx, or "".
func GetRequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithRequestLogging wraps next so every outgoing request gets an
// X-Request-ID header and one log entry with method, url, status and
// duration. Failed round trips are logged at warn level. A nil next uses
// http.DefaultTransport.
func WithRequestLogging(logger *zap.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = GetRequestIDFromContext(req.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)

		start := time.Now()
		resp, err := next.RoundTrip(req)
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Warn("remote request failed", append(fields, zap.Error(err))...)
			return nil, err
		}
		logger.Info("remote request", append(fields, zap.Int("status", resp.StatusCode))...)
		return resp, nil
	})
}
