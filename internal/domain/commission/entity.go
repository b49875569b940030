package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Type selects how a rule splits a service total between studio and artist.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFlatFee    Type = "flat_fee"
	TypeTiered     Type = "tiered"
)

func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFlatFee || t == TypeTiered
}

// Rule is a studio-scoped commission policy. Percentages are always the
// artist's share; the studio keeps the rest.
type Rule struct {
	ID             int64            `json:"id" gorm:"primaryKey"`
	StudioID       int64            `json:"studio_id" gorm:"not null;index"`
	Name           string           `json:"name" gorm:"type:varchar(120);not null"`
	Description    string           `json:"description,omitempty" gorm:"type:text"`
	IsDefault      bool             `json:"is_default" gorm:"not null"`
	IsActive       bool             `json:"is_active" gorm:"not null"`
	CommissionType Type             `json:"commission_type" gorm:"type:varchar(16);not null"`
	Percentage     *decimal.Decimal `json:"percentage,omitempty" gorm:"type:decimal(5,2)"`
	FlatFeeAmount  *int64           `json:"flat_fee_amount,omitempty"`
	Tiers          []Tier           `json:"tiers,omitempty" gorm:"foreignKey:RuleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (Rule) TableName() string { return "commission_rules" }

// Tier is one revenue bracket of a tiered rule. MaxRevenue is exclusive; nil
// marks the open top tier.
type Tier struct {
	ID         int64           `json:"-" gorm:"primaryKey"`
	RuleID     int64           `json:"-" gorm:"not null;index"`
	Position   int             `json:"position" gorm:"not null"`
	MinRevenue int64           `json:"min_revenue" gorm:"not null"`
	MaxRevenue *int64          `json:"max_revenue"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:decimal(5,2);not null"`
}

func (Tier) TableName() string { return "commission_tiers" }

func (t Tier) contains(amount int64) bool {
	if amount < t.MinRevenue {
		return false
	}
	return t.MaxRevenue == nil || amount < *t.MaxRevenue
}

// ArtistAssignment binds an artist to at most one rule.
type ArtistAssignment struct {
	ArtistID   int64     `json:"artist_id" gorm:"primaryKey;autoIncrement:false"`
	StudioID   int64     `json:"studio_id" gorm:"not null;index"`
	RuleID     int64     `json:"rule_id" gorm:"not null;index"`
	AssignedAt time.Time `json:"assigned_at"`
}

func (ArtistAssignment) TableName() string { return "commission_artist_assignments" }

// TierSnapshot is a frozen copy of a tier.
type TierSnapshot struct {
	MinRevenue int64           `json:"min_revenue"`
	MaxRevenue *int64          `json:"max_revenue"`
	Percentage decimal.Decimal `json:"percentage"`
}

// RuleSnapshot freezes the numeric parameters a commission was computed with.
// Later rule edits never touch it.
type RuleSnapshot struct {
	RuleID         int64            `json:"rule_id"`
	Name           string           `json:"name"`
	CommissionType Type             `json:"commission_type"`
	Percentage     *decimal.Decimal `json:"percentage,omitempty"`
	FlatFeeAmount  *int64           `json:"flat_fee_amount,omitempty"`
	Tiers          []TierSnapshot   `json:"tiers,omitempty"`
	AppliedTier    *TierSnapshot    `json:"applied_tier,omitempty"`
}

// EarnedCommission records the split of one completed service. Only
// PayPeriodID changes after creation.
type EarnedCommission struct {
	ID               int64                            `json:"id" gorm:"primaryKey"`
	StudioID         int64                            `json:"studio_id" gorm:"not null;index"`
	ArtistID         int64                            `json:"artist_id" gorm:"not null;index"`
	BookingRequestID int64                            `json:"booking_request_id" gorm:"not null;uniqueIndex"`
	RuleID           int64                            `json:"rule_id" gorm:"not null"`
	RuleSnapshot     datatypes.JSONType[RuleSnapshot] `json:"rule_snapshot" gorm:"not null"`
	Details          datatypes.JSONType[Details]      `json:"calculation_details" gorm:"not null"`
	ServiceTotal     int64                            `json:"service_total" gorm:"not null"`
	CommissionAmount int64                            `json:"commission_amount" gorm:"not null"`
	ArtistPayout     int64                            `json:"artist_payout" gorm:"not null"`
	PayPeriodID      *int64                           `json:"pay_period_id" gorm:"index"`
	EarnedAt         time.Time                        `json:"earned_at" gorm:"not null;index"`
	CreatedAt        time.Time                        `json:"created_at"`
}

func (EarnedCommission) TableName() string { return "earned_commissions" }

// Snapshot returns the frozen rule parameters.
func (e EarnedCommission) Snapshot() RuleSnapshot {
	return e.RuleSnapshot.Data()
}

// Calculation is the engine output. CommissionAmount is the studio cut.
type Calculation struct {
	ServiceTotal     int64   `json:"service_total"`
	CommissionAmount int64   `json:"commission_amount"`
	ArtistPayout     int64   `json:"artist_payout"`
	Details          Details `json:"calculation_details"`
}

// Details explains how a calculation was produced.
type Details struct {
	CommissionType   Type             `json:"commission_type"`
	ArtistPercentage *decimal.Decimal `json:"artist_percentage,omitempty"`
	FlatFeeAmount    *int64           `json:"flat_fee_amount,omitempty"`
	FlatFeeCapped    bool             `json:"flat_fee_capped,omitempty"`
	AppliedTier      *TierSnapshot    `json:"applied_tier,omitempty"`
	TierBasis        string           `json:"tier_basis,omitempty"`
	RoundingPolicy   string           `json:"rounding_policy"`
}

// EarnedFilter narrows ListEarned.
type EarnedFilter struct {
	ArtistID       *int64
	PayPeriodID    *int64
	UnassignedOnly bool
	EarnedFrom     *time.Time
	EarnedBefore   *time.Time
}
