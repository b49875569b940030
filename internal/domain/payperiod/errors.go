package payperiod

import "tattoostudio/internal/pkg/apperr"

var (
	ErrInvalidInput       = apperr.New(apperr.KindInvalidInput, "invalid pay period input")
	ErrNotFound           = apperr.New(apperr.KindNotFound, "pay period not found")
	ErrCommissionNotFound = apperr.New(apperr.KindNotFound, "earned commission not found")
	ErrNotOpen            = apperr.New(apperr.KindInvalidState, "pay period is not open")
	ErrNotClosed          = apperr.New(apperr.KindInvalidState, "pay period is not closed")
	ErrAlreadyAssigned    = apperr.New(apperr.KindAlreadyAssigned, "commission already belongs to another pay period")
	ErrOverlap            = apperr.New(apperr.KindConflict, "pay period overlaps an existing period")
)
