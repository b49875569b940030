package payperiod

import "time"

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusPaid   Status = "paid"
)

// PayPeriod is a payroll window [StartDate, EndDate) that collects earned
// commissions. Lifecycle: open -> closed -> paid.
type PayPeriod struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	StudioID         int64      `json:"studio_id" gorm:"not null;index"`
	StartDate        time.Time  `json:"start_date" gorm:"not null"`
	EndDate          time.Time  `json:"end_date" gorm:"not null"`
	Status           Status     `json:"status" gorm:"type:varchar(16);not null;index"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty" gorm:"type:varchar(255)"`
	Notes            string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (PayPeriod) TableName() string { return "pay_periods" }

// Contains reports whether t falls inside the period window.
func (p PayPeriod) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && t.Before(p.EndDate)
}

// ArtistTotal is one row of the payout report.
type ArtistTotal struct {
	ArtistID         int64 `json:"artist_id"`
	CommissionCount  int   `json:"commission_count"`
	ServiceTotal     int64 `json:"service_total"`
	CommissionAmount int64 `json:"commission_amount"`
	ArtistPayout     int64 `json:"artist_payout"`
}

type Report struct {
	PayPeriod PayPeriod     `json:"pay_period"`
	Artists   []ArtistTotal `json:"artists"`
	Totals    PeriodTotals  `json:"totals"`
}

// PeriodTotals sums the whole period.
type PeriodTotals struct {
	CommissionCount  int   `json:"commission_count"`
	ServiceTotal     int64 `json:"service_total"`
	CommissionAmount int64 `json:"commission_amount"`
	ArtistPayout     int64 `json:"artist_payout"`
}
