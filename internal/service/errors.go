package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/auth"
	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/history"
	"github.com/mmynk/weighbill/internal/settings"
)

// toConnectError maps domain errors to Connect codes. Unknown errors are
// logged and reported as internal.
func toConnectError(op string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, calculator.ErrNothingToSave), errors.Is(err, calculator.ErrNothingToCommit):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, history.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, catalog.ErrInvalidItem), errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, auth.ErrWeakPasscode):
		code = connect.CodeInvalidArgument
	case errors.Is(err, auth.ErrInvalidPasscode):
		code = connect.CodeUnauthenticated
	case errors.Is(err, auth.ErrTooManyAttempts):
		code = connect.CodeResourceExhausted
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	return connect.NewError(code, err)
}
