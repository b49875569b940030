package booking

import "tattoostudio/internal/pkg/apperr"

var (
	ErrValidation        = apperr.New(apperr.KindInvalidInput, "validation error")
	ErrNotFound          = apperr.New(apperr.KindNotFound, "booking request not found")
	ErrInvalidTransition = apperr.New(apperr.KindInvalidTransition, "invalid status transition")
	ErrInvalidState      = apperr.New(apperr.KindInvalidState, "booking request is not in the required state")
	ErrStaleStatus       = apperr.New(apperr.KindInvalidTransition, "status changed concurrently")
	ErrDepositRequired   = apperr.New(apperr.KindInvalidInput, "deposit amount is required")
	ErrPaymentMismatch   = apperr.New(apperr.KindConflict, "deposit already paid with a different reference")
)

func invalid(format string, args ...any) error {
	return apperr.Wrap(ErrValidation, apperr.KindInvalidInput, format, args...)
}
