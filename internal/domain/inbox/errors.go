package inbox

import "tattoostudio/internal/pkg/apperr"

var (
	ErrInvalidInput         = apperr.New(apperr.KindInvalidInput, "invalid input")
	ErrConversationNotFound = apperr.New(apperr.KindNotFound, "conversation not found")
	ErrMessageNotFound      = apperr.New(apperr.KindNotFound, "message not found")
	ErrDeliveryNotTracked   = apperr.New(apperr.KindInvalidInput, "delivery status only applies to outbound email and sms")
)

func invalid(format string, args ...any) error {
	return apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, format, args...)
}
