package auth

import "context"

// Authenticator defines the interface for till lock implementations.
// This abstraction allows swapping the passcode for another credential
// (PIN pad, NFC card, ...) without changing the service layer code.
type Authenticator interface {
	// Enabled reports whether a credential is configured. While disabled,
	// every request is allowed.
	Enabled(ctx context.Context) (bool, error)

	// Authenticate verifies the credential.
	// Returns ErrInvalidPasscode if it does not match.
	Authenticate(ctx context.Context, credential string) error

	// SetCredential replaces the credential. When one is already configured,
	// current must match it. An empty next removes the lock.
	SetCredential(ctx context.Context, current, next string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error

	// ChangedAt returns the Unix time of the last credential change, or 0.
	ChangedAt(ctx context.Context) (int64, error)
}
