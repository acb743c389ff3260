package service

import (
	"context"
	"log/slog"
	"net"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/auth"
	"github.com/mmynk/weighbill/internal/middleware"
)

// Ensure LockService implements the handler interface
var _ apiconnect.LockServiceHandler = (*LockService)(nil)

// LockService implements the Connect LockService.
type LockService struct {
	gate *auth.Gate
}

// NewLockService creates a new LockService.
func NewLockService(gate *auth.Gate) *LockService {
	return &LockService{gate: gate}
}

// LockExemptProcedures can be called while the till is locked.
var LockExemptProcedures = []string{
	apiconnect.LockServiceUnlockProcedure,
	apiconnect.LockServiceStatusProcedure,
}

// clientKey identifies the caller for attempt limiting.
func clientKey(peer connect.Peer) string {
	host, _, err := net.SplitHostPort(peer.Addr)
	if err != nil || host == "" {
		return peer.Addr
	}
	return host
}

// Unlock exchanges the passcode for a session token.
func (s *LockService) Unlock(ctx context.Context, req *connect.Request[api.UnlockRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.gate.Unlock(ctx, clientKey(req.Peer()), req.Msg.Passcode)
	if err != nil {
		slog.Warn("Unlock rejected", "client", clientKey(req.Peer()), "error", err)
		return nil, toConnectError("Unlock", err)
	}
	return connect.NewResponse(&api.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	}), nil
}

// SetPasscode sets, changes or removes the passcode. The call itself requires
// an unlocked session once a passcode exists.
func (s *LockService) SetPasscode(ctx context.Context, req *connect.Request[api.SetPasscodeRequest]) (*connect.Response[api.SetPasscodeResponse], error) {
	session, err := s.gate.SetPasscode(ctx, clientKey(req.Peer()), req.Msg.Current, req.Msg.Next)
	if err != nil {
		return nil, toConnectError("SetPasscode", err)
	}
	if session == nil {
		slog.Info("Till lock removed", "session_id", middleware.GetSessionID(ctx))
		return connect.NewResponse(&api.SetPasscodeResponse{Enabled: false}), nil
	}
	slog.Info("Till passcode changed", "session_id", middleware.GetSessionID(ctx))
	return connect.NewResponse(&api.SetPasscodeResponse{
		Enabled:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	}), nil
}

// Status reports whether the lock is on and whether the caller's token opens it.
func (s *LockService) Status(ctx context.Context, req *connect.Request[api.LockStatusRequest]) (*connect.Response[api.LockStatusResponse], error) {
	token := middleware.BearerToken(req.Header().Get("Authorization"))
	enabled, unlocked, err := s.gate.Status(ctx, token)
	if err != nil {
		return nil, toConnectError("Status", err)
	}
	return connect.NewResponse(&api.LockStatusResponse{Enabled: enabled, Unlocked: unlocked}), nil
}
