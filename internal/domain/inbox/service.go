package inbox

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tattoostudio/internal/pkg/apperr"
)

// OutboundMessage is handed to the email/SMS collaborator.
type OutboundMessage struct {
	MessageID      string  `json:"message_id"`
	ConversationID string  `json:"conversation_id"`
	StudioID       int64   `json:"studio_id"`
	Channel        Channel `json:"channel"`
	To             string  `json:"to"`
	Body           string  `json:"body"`
}

// ChannelSender delivers outbound email and SMS. Delivery confirmation
// arrives later through RecordDelivery.
type ChannelSender interface {
	SendMessage(ctx context.Context, m OutboundMessage) error
}

// Broadcaster pushes realtime events to connected staff.
type Broadcaster interface {
	BroadcastToStudio(studioID int64, e *Event)
}

type Service struct {
	repo   Repository
	sender ChannelSender
	events Broadcaster
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, sender ChannelSender, events Broadcaster, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		sender: sender,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) broadcast(studioID int64, e *Event) {
	if s.events != nil {
		s.events.BroadcastToStudio(studioID, e)
	}
}

type CreateConversationInput struct {
	ClientName       string
	ClientEmail      string
	ClientPhone      string
	Subject          string
	BookingRequestID *int64
	AssigneeID       *int64
}

func (s *Service) CreateConversation(ctx context.Context, studioID int64, in CreateConversationInput) (*Conversation, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return nil, invalid("client_name is required")
	}
	now := s.now()
	c := &Conversation{
		ID:               uuid.NewString(),
		StudioID:         studioID,
		ClientName:       name,
		ClientEmail:      strings.TrimSpace(in.ClientEmail),
		ClientPhone:      strings.TrimSpace(in.ClientPhone),
		Subject:          strings.TrimSpace(in.Subject),
		Status:           StatusPending,
		AssigneeID:       in.AssigneeID,
		BookingRequestID: in.BookingRequestID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListConversations(ctx context.Context, studioID int64, f ListFilter) ([]ConversationSummary, int64, error) {
	convs, total, err := s.repo.ListConversations(ctx, studioID, f)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(convs))
	for i := range convs {
		ids[i] = convs[i].ID
	}
	unread, err := s.repo.UnreadByConversation(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ConversationSummary, len(convs))
	for i := range convs {
		out[i] = ConversationSummary{Conversation: convs[i], UnreadCount: unread[convs[i].ID]}
	}
	return out, total, nil
}

func (s *Service) GetConversation(ctx context.Context, studioID int64, id string) (*ConversationDetail, error) {
	c, err := s.repo.GetConversation(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	d := &ConversationDetail{Conversation: *c, Messages: msgs}
	for i := range msgs {
		if msgs[i].Unread() {
			d.UnreadCount++
		}
	}
	return d, nil
}

// Assign sets or clears (nil) the team member handling the conversation.
func (s *Service) Assign(ctx context.Context, studioID int64, id string, assigneeID *int64) (*Conversation, error) {
	c, err := s.repo.GetConversation(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil && *assigneeID <= 0 {
		return nil, invalid("assignee_id must be positive")
	}
	if err := s.repo.UpdateConversation(ctx, c.ID, map[string]any{
		"assignee_id": assigneeID,
		"updated_at":  s.now(),
	}); err != nil {
		return nil, err
	}
	s.broadcast(studioID, &Event{
		Type:           EventAssigned,
		ConversationID: c.ID,
		Payload:        map[string]any{"assignee_id": assigneeID},
	})
	return s.repo.GetConversation(ctx, studioID, id)
}

func (s *Service) UpdateStatus(ctx context.Context, studioID int64, id string, status Status) (*Conversation, error) {
	if !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	c, err := s.repo.GetConversation(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if err := s.repo.UpdateConversation(ctx, c.ID, map[string]any{
		"status":     status,
		"updated_at": s.now(),
	}); err != nil {
		return nil, err
	}
	s.log.Info("conversation status changed",
		zap.String("conversation_id", c.ID),
		zap.String("from", string(c.Status)),
		zap.String("to", string(status)))
	return s.repo.GetConversation(ctx, studioID, id)
}

type InboundInput struct {
	Channel Channel
	Body    string
	// SentAt is when the client sent it; defaults to receipt time.
	SentAt time.Time
}

// ReceiveInbound stores a client message and flags the conversation unread.
func (s *Service) ReceiveInbound(ctx context.Context, conversationID string, in InboundInput) (*Message, error) {
	if !in.Channel.Valid() {
		return nil, invalid("unknown channel %q", in.Channel)
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, invalid("body is required")
	}
	c, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sentAt := in.SentAt.UTC()
	if in.SentAt.IsZero() {
		sentAt = now
	}
	m := &Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		Channel:        in.Channel,
		Direction:      DirectionInbound,
		Body:           body,
		SentAt:         sentAt,
		CreatedAt:      now,
	}
	if err := s.repo.CreateMessage(ctx, m, map[string]any{
		"status":          StatusUnread,
		"last_message_at": now,
		"updated_at":      now,
	}); err != nil {
		return nil, err
	}
	s.broadcast(c.StudioID, &Event{Type: EventNewMessage, ConversationID: c.ID, Payload: m})
	return m, nil
}

type OutboundInput struct {
	Channel Channel
	Body    string
}

// SendResult carries the stored message plus delivery hand-off failures.
type SendResult struct {
	Message  *Message
	Warnings []string
}

// SendOutbound stores a staff message. Email and SMS are handed to the
// channel sender; a hand-off failure marks the message failed without
// rejecting the call. Internal messages are team notes and never leave the
// studio.
func (s *Service) SendOutbound(ctx context.Context, studioID int64, conversationID string, senderID int64, in OutboundInput) (*SendResult, error) {
	if !in.Channel.Valid() {
		return nil, invalid("unknown channel %q", in.Channel)
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, invalid("body is required")
	}
	c, err := s.repo.GetConversation(ctx, studioID, conversationID)
	if err != nil {
		return nil, err
	}

	var to string
	switch in.Channel {
	case ChannelEmail:
		to = c.ClientEmail
	case ChannelSMS:
		to = c.ClientPhone
	}
	if in.Channel != ChannelInternal && to == "" {
		return nil, invalid("client has no address for channel %s", in.Channel)
	}

	now := s.now()
	m := &Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		Channel:        in.Channel,
		Direction:      DirectionOutbound,
		Body:           body,
		SentAt:         now,
		CreatedAt:      now,
	}
	if senderID > 0 {
		m.SenderID = &senderID
	}
	touch := map[string]any{"updated_at": now}
	if in.Channel != ChannelInternal {
		touch["last_message_at"] = now
	}
	if err := s.repo.CreateMessage(ctx, m, touch); err != nil {
		return nil, err
	}

	res := &SendResult{Message: m}
	if m.TracksDelivery() && s.sender != nil {
		err := s.sender.SendMessage(ctx, OutboundMessage{
			MessageID:      m.ID,
			ConversationID: c.ID,
			StudioID:       studioID,
			Channel:        m.Channel,
			To:             to,
			Body:           body,
		})
		if err != nil {
			s.log.Warn("outbound message hand-off failed", zap.String("message_id", m.ID), zap.Error(err))
			reason := err.Error()
			if uerr := s.repo.UpdateMessage(ctx, m.ID, map[string]any{
				"failed_at":      now,
				"failure_reason": truncate(reason, 500),
			}); uerr != nil {
				return nil, uerr
			}
			m.FailedAt = &now
			m.FailureReason = truncate(reason, 500)
			res.Warnings = append(res.Warnings, "message could not be handed to the "+string(m.Channel)+" provider: "+reason)
		}
	}

	s.broadcast(studioID, &Event{Type: EventNewMessage, ConversationID: c.ID, Payload: m})
	return res, nil
}

type DeliveryInput struct {
	Status DeliveryStatus
	Reason string
	At     time.Time
}

// RecordDelivery applies a provider receipt. Only outbound email and SMS
// carry delivery state.
func (s *Service) RecordDelivery(ctx context.Context, messageID string, in DeliveryInput) (*Message, error) {
	m, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.TracksDelivery() {
		return nil, apperr.Wrap(ErrDeliveryNotTracked, apperr.KindInvalidInput,
			"%s %s messages have no delivery status", m.Direction, m.Channel)
	}

	at := in.At.UTC()
	if in.At.IsZero() {
		at = s.now()
	}
	changes := map[string]any{}
	switch in.Status {
	case DeliveryDelivered:
		changes["delivered_at"] = at
		m.DeliveredAt = &at
	case DeliveryFailed:
		reason := truncate(strings.TrimSpace(in.Reason), 500)
		if reason == "" {
			reason = "unknown"
		}
		changes["failed_at"] = at
		changes["failure_reason"] = reason
		m.FailedAt = &at
		m.FailureReason = reason
	default:
		return nil, invalid("status must be delivered or failed")
	}
	if err := s.repo.UpdateMessage(ctx, m.ID, changes); err != nil {
		return nil, err
	}

	if c, err := s.repo.GetConversationByID(ctx, m.ConversationID); err == nil {
		s.broadcast(c.StudioID, &Event{
			Type:           EventDelivery,
			ConversationID: c.ID,
			Payload:        map[string]any{"message_id": m.ID, "delivery_status": m.DeliveryStatus()},
		})
	}
	return m, nil
}

// MarkRead marks everything unread at call time as read and returns how
// many messages it touched.
func (s *Service) MarkRead(ctx context.Context, studioID int64, conversationID string, readerID int64) (int64, error) {
	c, err := s.repo.GetConversation(ctx, studioID, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, c.ID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.broadcast(studioID, &Event{
			Type:           EventRead,
			ConversationID: c.ID,
			Payload:        map[string]int64{"reader_id": readerID, "marked": n},
		})
	}
	return n, nil
}

// UnreadCount totals unread inbound messages for the studio, or for one
// assignee when assigneeID is set.
func (s *Service) UnreadCount(ctx context.Context, studioID int64, assigneeID *int64) (int64, error) {
	return s.repo.CountUnread(ctx, studioID, assigneeID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
