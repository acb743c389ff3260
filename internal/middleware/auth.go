package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionIDKey is the context key for storing the unlocked session ID.
const SessionIDKey contextKey = "session_id"

// GetSessionID extracts the session ID from the context.
// Returns empty string if not found (lock disabled or exempt procedure).
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
// value. It returns an empty string when the header is missing or malformed.
func BearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireUnlock returns an interceptor that enforces the till lock on unary and
// streaming handlers. While no passcode is set every call passes. The exempt
// procedures (unlocking, status) are always allowed.
func RequireUnlock(gate *auth.Gate, exempt ...string) connect.Interceptor {
	set := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		set[p] = struct{}{}
	}
	return &unlockInterceptor{gate: gate, exempt: set}
}

type unlockInterceptor struct {
	gate   *auth.Gate
	exempt map[string]struct{}
}

func (i *unlockInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		ctx, err := i.authorize(ctx, req.Spec().Procedure, req.Header().Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *unlockInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *unlockInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authorize(ctx, conn.Spec().Procedure, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *unlockInterceptor) authorize(ctx context.Context, procedure, header string) (context.Context, error) {
	if _, ok := i.exempt[procedure]; ok {
		return ctx, nil
	}

	claims, err := i.gate.Check(ctx, BearerToken(header))
	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
		return ctx, connect.NewError(connect.CodeUnauthenticated, err)
	}
	if err != nil {
		return ctx, connect.NewError(connect.CodeInternal, err)
	}
	if claims != nil {
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
	}
	return ctx, nil
}

// RequireUnlockHTTP is the till lock for plain HTTP routes such as downloads.
// The token is read from the Authorization header or the "token" query
// parameter so links can be opened directly.
func RequireUnlockHTTP(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			claims, err := gate.Check(r.Context(), token)
			if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
				http.Error(w, "locked", http.StatusUnauthorized)
				return
			}
			if err != nil {
				slog.Error("Lock check failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			ctx := r.Context()
			if claims != nil {
				ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
