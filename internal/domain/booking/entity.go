package booking

import "time"

type Status string

const (
	StatusPending          Status = "pending"
	StatusReviewing        Status = "reviewing"
	StatusQuoted           Status = "quoted"
	StatusDepositRequested Status = "deposit_requested"
	StatusDepositPaid      Status = "deposit_paid"
	StatusConfirmed        Status = "confirmed"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending, StatusReviewing, StatusQuoted, StatusDepositRequested, StatusDepositPaid,
	StatusConfirmed, StatusCompleted, StatusRejected, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

type SizeClass string

const (
	SizeTiny       SizeClass = "tiny"
	SizeSmall      SizeClass = "small"
	SizeMedium     SizeClass = "medium"
	SizeLarge      SizeClass = "large"
	SizeExtraLarge SizeClass = "extra_large"
	SizeFullSleeve SizeClass = "full_sleeve"
	SizeBackPiece  SizeClass = "back_piece"
)

func (s SizeClass) Valid() bool {
	switch s {
	case SizeTiny, SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge, SizeFullSleeve, SizeBackPiece:
		return true
	}
	return false
}

// BookingRequest is a client's tattoo inquiry. Money fields are cents.
type BookingRequest struct {
	ID            int64  `json:"id" gorm:"primaryKey"`
	StudioID      int64  `json:"studio_id" gorm:"not null;index"`
	ReferenceCode string `json:"reference_code" gorm:"type:varchar(32);not null;uniqueIndex"`
	ArtistID      *int64 `json:"artist_id" gorm:"index"`
	Status        Status `json:"status" gorm:"type:varchar(24);not null;index"`

	ClientName  string `json:"client_name" gorm:"type:varchar(255);not null"`
	ClientEmail string `json:"client_email" gorm:"type:varchar(255);not null"`
	ClientPhone string `json:"client_phone,omitempty" gorm:"type:varchar(32)"`

	DesignDescription string    `json:"design_description" gorm:"type:text;not null"`
	Placement         string    `json:"placement" gorm:"type:varchar(120)"`
	Size              SizeClass `json:"size" gorm:"type:varchar(16);not null"`
	ColorPreference   string    `json:"color_preference,omitempty" gorm:"type:varchar(64)"`
	IsCoverUp         bool      `json:"is_cover_up"`
	IsFirstTattoo     bool      `json:"is_first_tattoo"`

	QuotedPrice             *int64     `json:"quoted_price"`
	EstimatedHours          *float64   `json:"estimated_hours"`
	DepositAmount           *int64     `json:"deposit_amount"`
	DepositMessage          string     `json:"deposit_message,omitempty" gorm:"type:text"`
	DepositRequestedAt      *time.Time `json:"deposit_requested_at"`
	DepositRequestExpiresAt *time.Time `json:"deposit_request_expires_at"`
	DepositRequestCount     int        `json:"deposit_request_count" gorm:"not null;default:0"`
	PaymentLinkURL          string     `json:"payment_link_url,omitempty" gorm:"type:varchar(512)"`
	DepositPaidAt           *time.Time `json:"deposit_paid_at"`
	DepositPaymentReference *string    `json:"deposit_payment_reference,omitempty" gorm:"type:varchar(255)"`
	DepositExpiryNotifiedAt *time.Time `json:"deposit_expiry_notified_at,omitempty"`

	ScheduledDate          *time.Time `json:"scheduled_date"`
	ScheduledDurationHours *float64   `json:"scheduled_duration_hours"`
	ServiceTotal           *int64     `json:"service_total"`
	CompletedAt            *time.Time `json:"completed_at"`

	QuoteNotes         string `json:"quote_notes,omitempty" gorm:"type:text"`
	InternalNotes      string `json:"internal_notes,omitempty" gorm:"type:text"`
	RejectionReason    string `json:"rejection_reason,omitempty" gorm:"type:text"`
	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`

	ReferenceImages []ReferenceImage `json:"reference_images" gorm:"foreignKey:BookingRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BookingRequest) TableName() string { return "booking_requests" }

// DepositExpired reports whether a pending deposit request has lapsed at now.
func (b *BookingRequest) DepositExpired(now time.Time) bool {
	return b.Status == StatusDepositRequested &&
		b.DepositRequestExpiresAt != nil &&
		!now.Before(*b.DepositRequestExpiresAt)
}

// ReferenceImage is an ordered attachment owned by a booking request.
type ReferenceImage struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	BookingRequestID int64     `json:"-" gorm:"not null;index"`
	Position         int       `json:"position" gorm:"not null"`
	URL              string    `json:"url" gorm:"type:varchar(1024);not null"`
	Caption          string    `json:"caption,omitempty" gorm:"type:varchar(255)"`
	CreatedAt        time.Time `json:"created_at"`
}

func (ReferenceImage) TableName() string { return "booking_reference_images" }

// ListFilter narrows List.
type ListFilter struct {
	Status   *Status
	ArtistID *int64
	Limit    int
	Offset   int
}
