package notification

import "tattoostudio/internal/pkg/apperr"

var ErrEventNotFound = apperr.New(apperr.KindNotFound, "notification event not found")
