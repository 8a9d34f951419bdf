package grpcx

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

type requestIDKey struct{}

// RequestIDMetadataKey carries the request id in gRPC metadata. It matches
// the X-Request-Id HTTP header so ids survive a gateway hop.
const RequestIDMetadataKey = "x-request-id"

const maxRequestIDLen = 128

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// incomingRequestID returns the caller's id, or a new UUID when it is
// missing or oversized.
func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
			if id := strings.TrimSpace(vals[0]); id != "" && len(id) <= maxRequestIDLen {
				return id
			}
		}
	}
	return uuid.NewString()
}
