package server

import "context"

// contextKey is unexported so request-scoped values set by the
// middleware chain cannot collide with keys from other packages.
type contextKey string

const (
	// contextKeyRequestID carries the X-Request-Id value for the request
	contextKeyRequestID contextKey = "requestID"
	// contextKeyAPIVersion carries the negotiated API version
	contextKeyAPIVersion contextKey = "apiVersion"
)

// requestIDFrom returns the request ID stored on the context, or the
// empty string when the middleware chain has not run.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}
