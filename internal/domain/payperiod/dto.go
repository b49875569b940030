package payperiod

import "time"

type createRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Notes     string    `json:"notes" validate:"max=2000"`
}

type commissionIDsRequest struct {
	CommissionIDs []int64 `json:"commission_ids" validate:"required,min=1,dive,gt=0"`
}

type markPaidRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,max=255"`
}
