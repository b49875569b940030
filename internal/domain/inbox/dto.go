package inbox

import "time"

type createConversationRequest struct {
	ClientName       string `json:"client_name" validate:"required,max=255"`
	ClientEmail      string `json:"client_email" validate:"omitempty,email"`
	ClientPhone      string `json:"client_phone" validate:"omitempty,max=50"`
	Subject          string `json:"subject" validate:"max=255"`
	BookingRequestID *int64 `json:"booking_request_id"`
	AssigneeID       *int64 `json:"assignee_id"`
}

type assignRequest struct {
	// null unassigns
	AssigneeID *int64 `json:"assignee_id"`
}

type statusRequest struct {
	Status Status `json:"status" validate:"required,oneof=unread pending resolved"`
}

type outboundRequest struct {
	Channel Channel `json:"channel" validate:"required,oneof=internal email sms"`
	Body    string  `json:"body" validate:"required,max=10000"`
}

type inboundRequest struct {
	Channel Channel   `json:"channel" validate:"required,oneof=internal email sms"`
	Body    string    `json:"body" validate:"required,max=10000"`
	SentAt  time.Time `json:"sent_at"`
}

type deliveryRequest struct {
	Status DeliveryStatus `json:"status" validate:"required,oneof=delivered failed"`
	Reason string         `json:"reason" validate:"max=500"`
	At     time.Time      `json:"at"`
}

type messageView struct {
	*Message
	DeliveryStatus DeliveryStatus `json:"delivery_status,omitempty"`
}

func viewMessage(m *Message) messageView {
	return messageView{Message: m, DeliveryStatus: m.DeliveryStatus()}
}

type conversationView struct {
	Conversation
	UnreadCount int64         `json:"unread_count"`
	Messages    []messageView `json:"messages"`
}

func viewDetail(d *ConversationDetail) conversationView {
	v := conversationView{
		Conversation: d.Conversation,
		UnreadCount:  d.UnreadCount,
		Messages:     make([]messageView, len(d.Messages)),
	}
	for i := range d.Messages {
		v.Messages[i] = viewMessage(&d.Messages[i])
	}
	return v
}
