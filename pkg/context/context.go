package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	frameKey
)

const (
	RequestIDHeader = "X-Request-ID"
	UnknownID       = "unknown"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return UnknownID
	}
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return UnknownID
	}
	return requestID
}

// WithFrame marks ctx as belonging to the seq-th frame of a stream.
func WithFrame(ctx context.Context, seq int) context.Context {
	return context.WithValue(ctx, frameKey, seq)
}

// GetFrame returns the stream frame number, if ctx belongs to a stream frame.
func GetFrame(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	seq, ok := ctx.Value(frameKey).(int)
	return seq, ok
}

// FromFiberCtx derives a request context carrying the request id set by the
// request id middleware.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	return WithRequestID(c.UserContext(), FiberRequestID(c))
}

func FiberRequestID(c *fiber.Ctx) string {
	if requestID, ok := c.Locals(RequestIDHeader).(string); ok && requestID != "" {
		return requestID
	}
	if requestID := c.Get(RequestIDHeader); requestID != "" {
		return requestID
	}
	return UnknownID
}
