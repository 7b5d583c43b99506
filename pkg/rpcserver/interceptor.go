package rpcserver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
)

// requestIDKey tags the context with a per-call correlation id. A fresh id
// is generated for every call, so separate calls from the same caller get
// different ids.
type requestIDKey struct{}

// LoggingInterceptor stamps every unary call with a request id and logs its
// method, duration, and outcome (spec §9 ambient logging, no log.Printf).
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey{}, id)

		start := time.Now()
		resp, err := handler(ctx, req)
		dur := time.Since(start)

		evt := log.Info()
		if err != nil {
			evt = log.Error().Err(err)
		}
		evt.Str("request_id", id).Str("method", info.FullMethod).Dur("duration", dur).Msg("rpc")
		return resp, err
	}
}
