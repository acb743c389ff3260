package auth

import (
	"context"
	"errors"
	"time"
)

// Session is an unlocked till session.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Gate combines the authenticator, session tokens and attempt limiting into
// the till lock.
type Gate struct {
	auth    Authenticator
	tokens  *JWTManager
	limiter *AttemptLimiter
}

// NewGate creates a Gate.
func NewGate(auth Authenticator, tokens *JWTManager, limiter *AttemptLimiter) *Gate {
	return &Gate{auth: auth, tokens: tokens, limiter: limiter}
}

// Unlock verifies the passcode and issues a session token. clientKey
// identifies the caller for attempt limiting.
func (g *Gate) Unlock(ctx context.Context, clientKey, passcode string) (*Session, error) {
	if err := g.limiter.Allow(ctx, clientKey); err != nil {
		return nil, err
	}
	if err := g.auth.Authenticate(ctx, passcode); err != nil {
		return nil, err
	}
	if err := g.limiter.Reset(ctx, clientKey); err != nil {
		return nil, err
	}
	return g.issue()
}

// SetPasscode changes the passcode. It returns a fresh session when a new
// passcode was set and nil when the lock was removed.
func (g *Gate) SetPasscode(ctx context.Context, clientKey, current, next string) (*Session, error) {
	if err := g.limiter.Allow(ctx, clientKey); err != nil {
		return nil, err
	}
	if err := g.auth.SetCredential(ctx, current, next); err != nil {
		return nil, err
	}
	if err := g.limiter.Reset(ctx, clientKey); err != nil {
		return nil, err
	}
	if next == "" {
		return nil, nil
	}
	return g.issue()
}

// Status reports whether the lock is enabled and whether token unlocks it.
func (g *Gate) Status(ctx context.Context, token string) (enabled, unlocked bool, err error) {
	enabled, err = g.auth.Enabled(ctx)
	if err != nil {
		return false, false, err
	}
	if !enabled {
		return false, true, nil
	}
	_, err = g.Check(ctx, token)
	if errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) {
		return true, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, true, nil
}

// Check authorises a request. While the lock is disabled it returns nil
// claims and no error. Tokens issued before the last passcode change are
// rejected.
func (g *Gate) Check(ctx context.Context, token string) (*Claims, error) {
	enabled, err := g.auth.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, nil
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	changedAt, err := g.auth.ChangedAt(ctx)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Unix() < changedAt {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (g *Gate) issue() (*Session, error) {
	token, expires, err := g.tokens.Generate()
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires}, nil
}
