package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tattoostudio/internal/pkg/apperr"
	"tattoostudio/internal/testutil"
)

const studioID int64 = 9

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, msg OutboundMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*Event
}

func (r *recordingBroadcaster) BroadcastToStudio(_ int64, e *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingBroadcaster) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc    *Service
	repo   Repository
	sender *mockSender
	events *recordingBroadcaster
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &Conversation{}, &Message{})
	f := &fixture{
		repo:   NewRepository(db),
		sender: &mockSender{},
		events: &recordingBroadcaster{},
		clock:  time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.sender, f.events, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) tick() {
	f.clock = f.clock.Add(time.Minute)
}

func (f *fixture) conversation(t *testing.T) *Conversation {
	t.Helper()
	c, err := f.svc.CreateConversation(context.Background(), studioID, CreateConversationInput{
		ClientName:  "Ines Vidal",
		ClientEmail: "ines@example.com",
		ClientPhone: "+34600000000",
		Subject:     "Sleeve consult",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) inbound(t *testing.T, convID, body string) *Message {
	t.Helper()
	f.tick()
	m, err := f.svc.ReceiveInbound(context.Background(), convID, InboundInput{Channel: ChannelEmail, Body: body})
	require.NoError(t, err)
	return m
}

func TestDeliveryStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		msg  Message
		want DeliveryStatus
	}{
		{"internal note", Message{Channel: ChannelInternal, Direction: DirectionOutbound}, DeliveryNone},
		{"inbound email", Message{Channel: ChannelEmail, Direction: DirectionInbound, DeliveredAt: &now}, DeliveryNone},
		{"inbound sms failed", Message{Channel: ChannelSMS, Direction: DirectionInbound, FailedAt: &now}, DeliveryNone},
		{"outbound pending", Message{Channel: ChannelEmail, Direction: DirectionOutbound}, DeliverySent},
		{"outbound delivered", Message{Channel: ChannelSMS, Direction: DirectionOutbound, DeliveredAt: &now}, DeliveryDelivered},
		{"outbound failed", Message{Channel: ChannelEmail, Direction: DirectionOutbound, DeliveredAt: &now, FailedAt: &now}, DeliveryFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.msg.DeliveryStatus())
		})
	}
}

func TestCreateConversation(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)

	assert.Len(t, c.ID, 36)
	assert.Equal(t, StatusPending, c.Status)
	assert.Nil(t, c.AssigneeID)

	_, err := f.svc.CreateConversation(context.Background(), studioID, CreateConversationInput{ClientName: "  "})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestReceiveInbound_FlagsUnread(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.inbound(t, c.ID, "Can we move to Friday?")
	f.inbound(t, c.ID, "Also, colour or black?")

	d, err := f.svc.GetConversation(context.Background(), studioID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnread, d.Status)
	assert.Equal(t, int64(2), d.UnreadCount)
	assert.Len(t, d.Messages, 2)
	require.NotNil(t, d.LastMessageAt)
	assert.True(t, d.LastMessageAt.Equal(f.clock))

	_, err = f.svc.ReceiveInbound(context.Background(), "missing", InboundInput{Channel: ChannelSMS, Body: "hi"})
	assert.True(t, errors.Is(err, ErrConversationNotFound))

	_, err = f.svc.ReceiveInbound(context.Background(), c.ID, InboundInput{Channel: "fax", Body: "hi"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	assert.Equal(t, []string{EventNewMessage, EventNewMessage}, f.events.types())
}

func TestMarkRead_OnlyMessagesArrivedByCallTime(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.inbound(t, c.ID, "one")
	f.inbound(t, c.ID, "two")

	// a message stamped after the read call is not swept up by it
	late := &Message{
		ID: "late-message-0000-0000-000000000000", ConversationID: c.ID, Channel: ChannelSMS,
		Direction: DirectionInbound, Body: "three", SentAt: f.clock.Add(time.Hour), CreatedAt: f.clock.Add(time.Hour),
	}
	require.NoError(t, f.repo.CreateMessage(context.Background(), late, nil))

	n, err := f.svc.MarkRead(context.Background(), studioID, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	d, err := f.svc.GetConversation(context.Background(), studioID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.UnreadCount)
	// still waiting on the late message
	assert.Equal(t, StatusUnread, d.Status)

	f.clock = f.clock.Add(2 * time.Hour)
	n, err = f.svc.MarkRead(context.Background(), studioID, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	d, err = f.svc.GetConversation(context.Background(), studioID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, d.UnreadCount)
	assert.Equal(t, StatusPending, d.Status)

	n, err = f.svc.MarkRead(context.Background(), studioID, c.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkRead_IgnoresOutbound(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.inbound(t, c.ID, "hello")
	_, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelInternal, Body: "call her back"})
	require.NoError(t, err)

	n, err := f.svc.MarkRead(context.Background(), studioID, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.MarkRead(context.Background(), studioID+1, c.ID, 5)
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestSendOutbound_InternalNote(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)

	res, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelInternal, Body: "deposit chased"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, DeliveryNone, res.Message.DeliveryStatus())
	require.NotNil(t, res.Message.SenderID)
	assert.Equal(t, int64(5), *res.Message.SenderID)
	f.sender.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestSendOutbound_Email(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(m OutboundMessage) bool {
		return m.To == "ines@example.com" && m.Channel == ChannelEmail && m.StudioID == studioID
	})).Return(nil).Once()

	res, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelEmail, Body: "Friday works"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, DeliverySent, res.Message.DeliveryStatus())
	f.sender.AssertExpectations(t)
}

func TestSendOutbound_HandOffFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.sender.On("SendMessage", mock.Anything, mock.Anything).Return(errors.New("sms gateway unreachable")).Once()

	res, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelSMS, Body: "See you"})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, DeliveryFailed, res.Message.DeliveryStatus())

	stored, err := f.repo.GetMessage(context.Background(), res.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, DeliveryFailed, stored.DeliveryStatus())
	assert.Equal(t, "sms gateway unreachable", stored.FailureReason)
}

func TestSendOutbound_NoAddress(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.CreateConversation(context.Background(), studioID, CreateConversationInput{ClientName: "Walk-in"})
	require.NoError(t, err)

	_, err = f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelEmail, Body: "hi"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestRecordDelivery(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	f.sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelEmail, Body: "Booked!"})
	require.NoError(t, err)

	m, err := f.svc.RecordDelivery(context.Background(), res.Message.ID, DeliveryInput{Status: DeliveryDelivered})
	require.NoError(t, err)
	assert.Equal(t, DeliveryDelivered, m.DeliveryStatus())

	m, err = f.svc.RecordDelivery(context.Background(), res.Message.ID, DeliveryInput{Status: DeliveryFailed})
	require.NoError(t, err)
	assert.Equal(t, DeliveryFailed, m.DeliveryStatus())
	assert.Equal(t, "unknown", m.FailureReason)

	_, err = f.svc.RecordDelivery(context.Background(), res.Message.ID, DeliveryInput{Status: "bounced"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.RecordDelivery(context.Background(), "nope", DeliveryInput{Status: DeliveryDelivered})
	assert.True(t, errors.Is(err, ErrMessageNotFound))
}

func TestRecordDelivery_UntrackedMessages(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	in := f.inbound(t, c.ID, "hello")
	note, err := f.svc.SendOutbound(context.Background(), studioID, c.ID, 5, OutboundInput{Channel: ChannelInternal, Body: "note"})
	require.NoError(t, err)

	for _, id := range []string{in.ID, note.Message.ID} {
		_, err := f.svc.RecordDelivery(context.Background(), id, DeliveryInput{Status: DeliveryDelivered})
		assert.True(t, errors.Is(err, ErrDeliveryNotTracked))
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	}
}

func TestAssignAndStatus(t *testing.T) {
	f := newFixture(t)
	c := f.conversation(t)
	ctx := context.Background()

	artist := int64(12)
	got, err := f.svc.Assign(ctx, studioID, c.ID, &artist)
	require.NoError(t, err)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, artist, *got.AssigneeID)

	got, err = f.svc.Assign(ctx, studioID, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)

	got, err = f.svc.UpdateStatus(ctx, studioID, c.ID, StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)

	_, err = f.svc.UpdateStatus(ctx, studioID, c.ID, "archived")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	assert.Contains(t, f.events.types(), EventAssigned)
}

func TestListConversationsAndUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.conversation(t)
	b := f.conversation(t)
	_ = f.conversation(t)

	artist := int64(3)
	_, err := f.svc.Assign(ctx, studioID, a.ID, &artist)
	require.NoError(t, err)
	f.inbound(t, a.ID, "1")
	f.inbound(t, a.ID, "2")
	f.inbound(t, b.ID, "3")

	items, total, err := f.svc.ListConversations(ctx, studioID, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	unread := map[string]int64{}
	for _, it := range items {
		unread[it.ID] = it.UnreadCount
	}
	assert.Equal(t, int64(2), unread[a.ID])
	assert.Equal(t, int64(1), unread[b.ID])

	st := StatusUnread
	_, total, err = f.svc.ListConversations(ctx, studioID, ListFilter{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = f.svc.ListConversations(ctx, studioID, ListFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	n, err := f.svc.UnreadCount(ctx, studioID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = f.svc.UnreadCount(ctx, studioID, &artist)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.UnreadCount(ctx, studioID+1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
