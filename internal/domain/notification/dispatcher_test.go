package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/inbox"
	"tattoostudio/internal/testutil"
)

type published struct {
	typ     Type
	key     string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (f *fakePublisher) Publish(_ context.Context, typ Type, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{typ: typ, key: key, payload: payload})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newDispatcher(t *testing.T) (*Dispatcher, *fakePublisher, Repository) {
	t.Helper()
	db := testutil.NewTestDB(t, &Event{})
	repo := NewRepository(db)
	pub := &fakePublisher{}
	return NewDispatcher(pub, repo, zap.NewNop()), pub, repo
}

func TestDispatcher_DepositRequested(t *testing.T) {
	d, pub, repo := newDispatcher(t)
	expires := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	err := d.DepositRequested(context.Background(), booking.DepositRequestNotice{
		BookingID:     17,
		StudioID:      4,
		ReferenceCode: "TS-1",
		ClientEmail:   "c@example.com",
		Amount:        5000,
		ExpiresAt:     expires,
	})
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, TypeDepositRequested, pub.sent[0].typ)
	assert.Equal(t, "booking:17", pub.sent[0].key)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &env))
	assert.Equal(t, TypeDepositRequested, env.Type)
	assert.Equal(t, int64(4), env.StudioID)
	assert.Len(t, env.ID, 36)

	var notice booking.DepositRequestNotice
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, int64(5000), notice.Amount)
	assert.True(t, notice.ExpiresAt.Equal(expires))

	events, err := repo.List(context.Background(), 4, ListFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Published())
	assert.Equal(t, 1, events[0].Attempts)
	assert.Equal(t, env.ID, events[0].EventID)
}

func TestDispatcher_OutboundMessage(t *testing.T) {
	d, pub, _ := newDispatcher(t)

	err := d.SendMessage(context.Background(), inbox.OutboundMessage{
		MessageID:      "m-1",
		ConversationID: "c-1",
		StudioID:       4,
		Channel:        inbox.ChannelSMS,
		To:             "+15550100",
		Body:           "See you Friday",
	})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, TypeOutboundMessage, pub.sent[0].typ)
	assert.Equal(t, "conversation:c-1", pub.sent[0].key)
}

func TestDispatcher_FailureIsLoggedAndRetried(t *testing.T) {
	d, pub, repo := newDispatcher(t)
	ctx := context.Background()
	pub.err = errors.New("broker unavailable")

	err := d.DepositExpired(ctx, booking.DepositExpiredNotice{BookingID: 3, StudioID: 4})
	require.Error(t, err)

	failed, err := repo.List(ctx, 4, ListFilter{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "broker unavailable", failed[0].LastError)
	assert.False(t, failed[0].Published())

	_, err = d.Retry(ctx, 4, failed[0].ID)
	require.Error(t, err)

	pub.err = nil
	e, err := d.Retry(ctx, 4, failed[0].ID)
	require.NoError(t, err)
	assert.True(t, e.Published())
	assert.Equal(t, 3, e.Attempts)
	require.Len(t, pub.sent, 1)
	assert.JSONEq(t, string(failed[0].Payload), string(pub.sent[0].payload))

	// delivered events are not sent twice
	_, err = d.Retry(ctx, 4, failed[0].ID)
	require.NoError(t, err)
	assert.Len(t, pub.sent, 1)

	_, err = d.Retry(ctx, 5, failed[0].ID)
	assert.True(t, errors.Is(err, ErrEventNotFound))
}

func TestDispatcher_WithoutLog(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, nil, nil)

	require.NoError(t, d.BookingConfirmed(context.Background(), booking.ConfirmationNotice{BookingID: 1, StudioID: 1}))
	assert.Len(t, pub.sent, 1)

	items, err := d.List(context.Background(), 1, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCleanupService_PrunePublished(t *testing.T) {
	d, pub, repo := newDispatcher(t)
	ctx := context.Background()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	d.now = func() time.Time { return old }
	require.NoError(t, d.BookingConfirmed(ctx, booking.ConfirmationNotice{BookingID: 1, StudioID: 4}))
	pub.err = errors.New("down")
	require.Error(t, d.BookingConfirmed(ctx, booking.ConfirmationNotice{BookingID: 2, StudioID: 4}))
	pub.err = nil
	d.now = func() time.Time { return old.AddDate(0, 2, 0) }
	require.NoError(t, d.BookingConfirmed(ctx, booking.ConfirmationNotice{BookingID: 3, StudioID: 4}))

	deleted, err := NewCleanupService(repo, zap.NewNop()).PrunePublished(ctx, old.AddDate(0, 2, 0), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	left, err := repo.List(ctx, 4, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, left, 2)
}
