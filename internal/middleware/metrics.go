package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/metrics"
)

// MetricsInterceptor returns a Connect interceptor that counts RPC calls by
// procedure and result code. Streams are recorded when they end.
func MetricsInterceptor(m *metrics.Metrics) connect.Interceptor {
	return &metricsInterceptor{m: m}
}

type metricsInterceptor struct {
	m *metrics.Metrics
}

func (i *metricsInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		if !req.Spec().IsClient {
			i.m.ObserveRPC(req.Spec().Procedure, codeOf(err), time.Since(start))
		}
		return resp, err
	}
}

func (i *metricsInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *metricsInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		i.m.ObserveRPC(conn.Spec().Procedure, codeOf(err), time.Since(start))
		return err
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}
