package booking

import (
	"context"
	"time"

	"tattoostudio/internal/domain/commission"
)

// ReferenceGenerator issues human-readable booking reference codes.
type ReferenceGenerator interface {
	Next(ctx context.Context, studioID int64) (string, error)
}

// PaymentLinkGenerator creates a hosted link the client uses to pay a deposit.
type PaymentLinkGenerator interface {
	Generate(ctx context.Context, b *BookingRequest, amount int64, expiresAt time.Time) (string, error)
}

type DepositRequestNotice struct {
	BookingID      int64     `json:"booking_id"`
	StudioID       int64     `json:"studio_id"`
	ReferenceCode  string    `json:"reference_code"`
	ClientName     string    `json:"client_name"`
	ClientEmail    string    `json:"client_email"`
	Amount         int64     `json:"amount"`
	ExpiresAt      time.Time `json:"expires_at"`
	PaymentLinkURL string    `json:"payment_link_url,omitempty"`
	Message        string    `json:"message,omitempty"`
	Superseded     bool      `json:"superseded"`
}

type ConfirmationNotice struct {
	BookingID     int64     `json:"booking_id"`
	StudioID      int64     `json:"studio_id"`
	ReferenceCode string    `json:"reference_code"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	ArtistID      *int64    `json:"artist_id,omitempty"`
	ScheduledDate time.Time `json:"scheduled_date"`
	DurationHours float64   `json:"duration_hours"`
}

type DepositExpiredNotice struct {
	BookingID     int64     `json:"booking_id"`
	StudioID      int64     `json:"studio_id"`
	ReferenceCode string    `json:"reference_code"`
	ClientEmail   string    `json:"client_email"`
	Amount        int64     `json:"amount"`
	ExpiredAt     time.Time `json:"expired_at"`
}

// Notifier delivers client-facing side effects. Failures never roll back the
// transition that triggered them.
type Notifier interface {
	DepositRequested(ctx context.Context, n DepositRequestNotice) error
	BookingConfirmed(ctx context.Context, n ConfirmationNotice) error
	DepositExpired(ctx context.Context, n DepositExpiredNotice) error
}

// CommissionRecorder stores the commission earned by a completed booking.
type CommissionRecorder interface {
	RecordEarned(ctx context.Context, in commission.RecordInput) (*commission.EarnedCommission, error)
}
