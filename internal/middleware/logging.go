package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, session ID, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			logRPC(ctx, procedure, time.Since(start), err)
			return resp, err
		}
	}
}

func logRPC(ctx context.Context, procedure string, elapsed time.Duration, err error) {
	sessionID := GetSessionID(ctx) // empty while the lock is off
	duration := elapsed.Milliseconds()
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			slog.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"session_id", sessionID,
				"duration_ms", duration,
			)
		} else {
			slog.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"session_id", sessionID,
				"duration_ms", duration,
			)
		}
		return
	}
	slog.Info("RPC ok",
		"procedure", procedure,
		"session_id", sessionID,
		"duration_ms", duration,
	)
}
