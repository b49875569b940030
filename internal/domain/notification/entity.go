package notification

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Type names an outbound event. Consumers (email, SMS, calendar) subscribe
// by type.
type Type string

const (
	TypeDepositRequested Type = "booking.deposit_requested"
	TypeBookingConfirmed Type = "booking.confirmed"
	TypeDepositExpired   Type = "booking.deposit_expired"
	TypeOutboundMessage  Type = "inbox.outbound_message"
)

// Envelope is the wire format published to the broker.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	StudioID   int64           `json:"studio_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Event is the dispatch log entry kept for every envelope, so failed
// hand-offs can be inspected and retried.
type Event struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	EventID     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	StudioID    int64          `gorm:"not null;index" json:"studio_id"`
	Type        Type           `gorm:"type:varchar(64);not null;index" json:"type"`
	Key         string         `gorm:"size:64;not null" json:"key"`
	Payload     datatypes.JSON `json:"payload"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	FailedAt    *time.Time     `json:"failed_at,omitempty"`
	LastError   string         `gorm:"size:500" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (Event) TableName() string { return "notification_events" }

func (e *Event) Published() bool { return e.PublishedAt != nil }

type ListFilter struct {
	Type       Type
	FailedOnly bool
	Limit      int
}
