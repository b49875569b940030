package commission

import "tattoostudio/internal/pkg/apperr"

var (
	ErrInvalidInput             = apperr.New(apperr.KindInvalidInput, "invalid input")
	ErrInvalidRuleConfiguration = apperr.New(apperr.KindInvalidRuleConfiguration, "invalid commission rule configuration")
	ErrRuleNotFound             = apperr.New(apperr.KindNotFound, "commission rule not found")
	ErrNoApplicableRule         = apperr.New(apperr.KindNotFound, "no commission rule assigned and no active default rule")
	ErrAssignmentNotFound       = apperr.New(apperr.KindNotFound, "artist has no commission rule assigned")
	ErrEarnedNotFound           = apperr.New(apperr.KindNotFound, "earned commission not found")
	ErrRuleInUse                = apperr.New(apperr.KindConflict, "commission rule is assigned to artists")
	ErrRuleInactive             = apperr.New(apperr.KindInvalidState, "commission rule is inactive")
)

func invalidRule(format string, args ...any) error {
	return apperr.Wrap(ErrInvalidRuleConfiguration, apperr.KindInvalidRuleConfiguration, format, args...)
}

func invalidInput(format string, args ...any) error {
	return apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, format, args...)
}
