package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

type tierRequest struct {
	MinRevenue int64   `json:"min_revenue" validate:"gte=0"`
	MaxRevenue *int64  `json:"max_revenue"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type ruleRequest struct {
	Name           string        `json:"name" validate:"required,max=120"`
	Description    string        `json:"description" validate:"max=2000"`
	IsDefault      bool          `json:"is_default"`
	IsActive       *bool         `json:"is_active"`
	CommissionType string        `json:"commission_type" validate:"required,oneof=percentage flat_fee tiered"`
	Percentage     *float64      `json:"percentage"`
	FlatFeeAmount  *int64        `json:"flat_fee_amount"`
	Tiers          []tierRequest `json:"tiers" validate:"dive"`
}

func (r ruleRequest) toInput() RuleInput {
	in := RuleInput{
		Name:           r.Name,
		Description:    r.Description,
		IsDefault:      r.IsDefault,
		IsActive:       r.IsActive,
		CommissionType: Type(r.CommissionType),
		FlatFeeAmount:  r.FlatFeeAmount,
	}
	if r.Percentage != nil {
		pct := decimal.NewFromFloat(*r.Percentage).Round(2)
		in.Percentage = &pct
	}
	for _, t := range r.Tiers {
		in.Tiers = append(in.Tiers, TierInput{
			MinRevenue: t.MinRevenue,
			MaxRevenue: t.MaxRevenue,
			Percentage: decimal.NewFromFloat(t.Percentage).Round(2),
		})
	}
	return in
}

type calculateRequest struct {
	ServiceTotal int64 `json:"service_total"`
}

type assignRequest struct {
	ArtistID int64 `json:"artist_id" validate:"required,gt=0"`
	RuleID   int64 `json:"rule_id" validate:"required,gt=0"`
}

type recordEarnedRequest struct {
	ArtistID         int64      `json:"artist_id" validate:"required,gt=0"`
	BookingRequestID int64      `json:"booking_request_id" validate:"required,gt=0"`
	ServiceTotal     int64      `json:"service_total" validate:"gte=0"`
	EarnedAt         *time.Time `json:"earned_at"`
}
