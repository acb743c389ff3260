package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
)

var (
	ErrInvalidPasscode = errors.New("invalid passcode")
	ErrWeakPasscode    = errors.New("passcode must be 4 to 32 characters")
)

// Ensure PasscodeAuthenticator implements Authenticator
var _ Authenticator = (*PasscodeAuthenticator)(nil)

// PasscodeAuthenticator implements the till lock with a bcrypt-hashed
// passcode stored under storage.KeyLock.
type PasscodeAuthenticator struct {
	store storage.KV
	cost  int
	now   func() time.Time

	mu sync.Mutex
}

// NewPasscodeAuthenticator creates a new passcode authenticator.
func NewPasscodeAuthenticator(store storage.KV) *PasscodeAuthenticator {
	return &PasscodeAuthenticator{
		store: store,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

// ValidateCredential checks if the passcode meets minimum requirements.
func (a *PasscodeAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 4 || len(credential) > 32 {
		return ErrWeakPasscode
	}
	return nil
}

// Enabled reports whether a passcode is set.
func (a *PasscodeAuthenticator) Enabled(ctx context.Context) (bool, error) {
	lock, err := a.load(ctx)
	if err != nil {
		return false, err
	}
	return lock.Enabled(), nil
}

// ChangedAt returns when the passcode was last changed.
func (a *PasscodeAuthenticator) ChangedAt(ctx context.Context) (int64, error) {
	lock, err := a.load(ctx)
	if err != nil {
		return 0, err
	}
	return lock.UpdatedAt, nil
}

// Authenticate compares the passcode with the stored hash.
func (a *PasscodeAuthenticator) Authenticate(ctx context.Context, credential string) error {
	lock, err := a.load(ctx)
	if err != nil {
		return err
	}
	return verify(lock, credential)
}

// SetCredential replaces the passcode.
func (a *PasscodeAuthenticator) SetCredential(ctx context.Context, current, next string) error {
	if next != "" {
		if err := a.ValidateCredential(next); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	lock, err := a.load(ctx)
	if err != nil {
		return err
	}
	if lock.Enabled() {
		if err := verify(lock, current); err != nil {
			return err
		}
	}

	updated := models.Lock{UpdatedAt: a.now().Unix()}
	if next != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(next), a.cost)
		if err != nil {
			return fmt.Errorf("failed to hash passcode: %w", err)
		}
		updated.PasscodeHash = string(hash)
	}

	if err := storage.SetJSON(ctx, a.store, storage.KeyLock, updated); err != nil {
		return fmt.Errorf("failed to save passcode: %w", err)
	}
	return nil
}

func (a *PasscodeAuthenticator) load(ctx context.Context) (models.Lock, error) {
	var lock models.Lock
	if _, err := storage.GetJSON(ctx, a.store, storage.KeyLock, &lock); err != nil {
		return models.Lock{}, fmt.Errorf("failed to load lock: %w", err)
	}
	return lock, nil
}

func verify(lock models.Lock, credential string) error {
	if !lock.Enabled() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(lock.PasscodeHash), []byte(credential)); err != nil {
		return ErrInvalidPasscode
	}
	return nil
}
