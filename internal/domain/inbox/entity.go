package inbox

import "time"

// Status tracks whether a conversation needs attention.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusPending, StatusResolved:
		return true
	}
	return false
}

type Channel string

const (
	ChannelInternal Channel = "internal"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelInternal, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// DeliveryStatus is the badge shown next to an outbound email or SMS.
type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = ""
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Conversation is a thread with one client.
type Conversation struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	StudioID         int64      `gorm:"not null;index" json:"studio_id"`
	ClientName       string     `gorm:"size:255;not null" json:"client_name"`
	ClientEmail      string     `gorm:"size:255" json:"client_email,omitempty"`
	ClientPhone      string     `gorm:"size:50" json:"client_phone,omitempty"`
	Subject          string     `gorm:"size:255" json:"subject,omitempty"`
	Status           Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	AssigneeID       *int64     `gorm:"index" json:"assignee_id"`
	BookingRequestID *int64     `gorm:"index" json:"booking_request_id,omitempty"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Conversation) TableName() string { return "inbox_conversations" }

// Message belongs to exactly one conversation. Delivery columns are only
// written for outbound email and SMS.
type Message struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string     `gorm:"type:varchar(36);not null;index" json:"conversation_id"`
	Channel        Channel    `gorm:"type:varchar(20);not null" json:"channel"`
	Direction      Direction  `gorm:"type:varchar(20);not null" json:"direction"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	SenderID       *int64     `json:"sender_id,omitempty"`
	ReadAt         *time.Time `gorm:"index" json:"read_at,omitempty"`
	SentAt         time.Time  `gorm:"not null" json:"sent_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
	FailureReason  string     `gorm:"size:500" json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "inbox_messages" }

// TracksDelivery reports whether delivery receipts apply to m.
func (m *Message) TracksDelivery() bool {
	return m.Direction == DirectionOutbound && (m.Channel == ChannelEmail || m.Channel == ChannelSMS)
}

// DeliveryStatus is DeliveryNone for internal and inbound messages.
func (m *Message) DeliveryStatus() DeliveryStatus {
	switch {
	case !m.TracksDelivery():
		return DeliveryNone
	case m.FailedAt != nil:
		return DeliveryFailed
	case m.DeliveredAt != nil:
		return DeliveryDelivered
	default:
		return DeliverySent
	}
}

// Unread reports whether m counts towards the conversation's unread total.
func (m *Message) Unread() bool {
	return m.Direction == DirectionInbound && m.ReadAt == nil
}

type ConversationSummary struct {
	Conversation
	UnreadCount int64 `json:"unread_count"`
}

type ConversationDetail struct {
	Conversation
	UnreadCount int64     `json:"unread_count"`
	Messages    []Message `json:"-"`
}

type ListFilter struct {
	Status     *Status
	AssigneeID *int64
	Unassigned bool
	Limit      int
	Offset     int
}
