package booking

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

	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/pkg/apperr"
	"tattoostudio/internal/testutil"
)

const studioID int64 = 1

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) DepositRequested(ctx context.Context, n DepositRequestNotice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, n ConfirmationNotice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotifier) DepositExpired(ctx context.Context, n DepositExpiredNotice) error {
	return m.Called(ctx, n).Error(0)
}

type stubLinks struct {
	err error
}

func (s *stubLinks) Generate(_ context.Context, b *BookingRequest, _ int64, _ time.Time) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://pay.test/deposits/" + b.ReferenceCode, nil
}

type stubRecorder struct {
	mu    sync.Mutex
	err   error
	calls []commission.RecordInput
}

func (s *stubRecorder) RecordEarned(_ context.Context, in commission.RecordInput) (*commission.EarnedCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, in)
	if s.err != nil {
		return nil, s.err
	}
	return &commission.EarnedCommission{
		ArtistID:         in.ArtistID,
		BookingRequestID: in.BookingRequestID,
		ServiceTotal:     in.ServiceTotal,
		ArtistPayout:     in.ServiceTotal * 60 / 100,
		CommissionAmount: in.ServiceTotal - in.ServiceTotal*60/100,
	}, nil
}

type fixture struct {
	svc      *Service
	repo     Repository
	notifier *mockNotifier
	links    *stubLinks
	recorder *stubRecorder
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &BookingRequest{}, &ReferenceImage{})
	refs, err := NewSnowflakeReferenceGenerator(1)
	require.NoError(t, err)

	f := &fixture{
		repo:     NewRepository(db),
		notifier: &mockNotifier{},
		links:    &stubLinks{},
		recorder: &stubRecorder{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, refs, f.links, f.notifier, f.recorder, Options{}, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) create(t *testing.T, artistID *int64) *BookingRequest {
	t.Helper()
	b, err := f.svc.Create(context.Background(), studioID, CreateInput{
		ClientName:        "Mara Quinn",
		ClientEmail:       "mara@example.com",
		DesignDescription: "fine-line peony on the forearm",
		Placement:         "forearm",
		Size:              SizeMedium,
		ArtistID:          artistID,
		ReferenceImages:   []ImageInput{{URL: "https://img.test/1.jpg"}, {URL: "https://img.test/2.jpg", Caption: "colour"}},
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) quoted(t *testing.T, artistID *int64) *BookingRequest {
	t.Helper()
	b := f.create(t, artistID)
	b, err := f.svc.Update(context.Background(), studioID, b.ID, Patch{QuotedPrice: price(20000)})
	require.NoError(t, err)
	return b
}

func (f *fixture) depositRequested(t *testing.T, artistID *int64) *BookingRequest {
	t.Helper()
	b := f.quoted(t, artistID)
	f.notifier.On("DepositRequested", mock.Anything, mock.Anything).Return(nil).Once()
	res, err := f.svc.SendDepositRequest(context.Background(), studioID, b.ID, DepositRequestInput{Amount: 5000})
	require.NoError(t, err)
	return res.Booking
}

func (f *fixture) paid(t *testing.T, artistID *int64) *BookingRequest {
	t.Helper()
	b := f.depositRequested(t, artistID)
	b, err := f.svc.RecordDepositPayment(context.Background(), b.ID, DepositPaymentInput{PaymentReference: "pi_" + b.ReferenceCode, Amount: 5000})
	require.NoError(t, err)
	return b
}

func (f *fixture) confirmed(t *testing.T, artistID *int64) *BookingRequest {
	t.Helper()
	b := f.paid(t, artistID)
	res, err := f.svc.ConfirmBooking(context.Background(), studioID, b.ID, ConfirmInput{
		ScheduledDate: f.clock.AddDate(0, 0, 14),
		DurationHours: 2,
	})
	require.NoError(t, err)
	return res.Booking
}

func artist(id int64) *int64 { return &id }

func TestCreate(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, nil)

	assert.NotZero(t, b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Regexp(t, `^TS-[0-9A-Z]+$`, b.ReferenceCode)

	stored, err := f.svc.Get(context.Background(), studioID, b.ID)
	require.NoError(t, err)
	require.Len(t, stored.ReferenceImages, 2)
	assert.Equal(t, "colour", stored.ReferenceImages[1].Caption)

	_, err = f.svc.Get(context.Background(), studioID+1, b.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]CreateInput{
		"missing name":  {ClientEmail: "a@b.co", DesignDescription: "x", Size: SizeSmall},
		"bad email":     {ClientName: "A", ClientEmail: "nope", DesignDescription: "x", Size: SizeSmall},
		"no design":     {ClientName: "A", ClientEmail: "a@b.co", Size: SizeSmall},
		"unknown size":  {ClientName: "A", ClientEmail: "a@b.co", DesignDescription: "x", Size: "giant"},
		"empty img url": {ClientName: "A", ClientEmail: "a@b.co", DesignDescription: "x", Size: SizeSmall, ReferenceImages: []ImageInput{{}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), studioID, in)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestUpdate_ImplicitQuote(t *testing.T) {
	f := newFixture(t)
	b := f.quoted(t, nil)

	assert.Equal(t, StatusQuoted, b.Status)
	require.NotNil(t, b.QuotedPrice)
	assert.Equal(t, int64(20000), *b.QuotedPrice)
}

func TestUpdate_IllegalTransitionLeavesStatus(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, nil)

	_, err := f.svc.Update(context.Background(), studioID, b.ID, Patch{Status: status(StatusConfirmed)})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	stored, err := f.svc.Get(context.Background(), studioID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestCommit_StaleStatus(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, nil)
	stale := *b

	_, err := f.svc.Update(context.Background(), studioID, b.ID, Patch{Status: status(StatusReviewing)})
	require.NoError(t, err)

	err = f.svc.commit(context.Background(), &stale, StatusRejected, map[string]any{"status": StatusRejected})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleStatus))
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	stored, err := f.svc.Get(context.Background(), studioID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewing, stored.Status)
}

func TestSendDepositRequest(t *testing.T) {
	f := newFixture(t)
	b := f.quoted(t, nil)

	f.notifier.On("DepositRequested", mock.Anything, mock.MatchedBy(func(n DepositRequestNotice) bool {
		return n.Amount == 5000 && !n.Superseded && n.PaymentLinkURL != ""
	})).Return(nil).Once()

	res, err := f.svc.SendDepositRequest(context.Background(), studioID, b.ID, DepositRequestInput{Amount: 5000, Message: " see you soon "})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	got := res.Booking
	assert.Equal(t, StatusDepositRequested, got.Status)
	assert.Equal(t, int64(5000), *got.DepositAmount)
	assert.Equal(t, "see you soon", got.DepositMessage)
	assert.Equal(t, 1, got.DepositRequestCount)
	assert.True(t, got.DepositRequestExpiresAt.Equal(f.clock.AddDate(0, 0, 7)))
	assert.Equal(t, "https://pay.test/deposits/"+got.ReferenceCode, got.PaymentLinkURL)
	f.notifier.AssertExpectations(t)
}

func TestSendDepositRequest_Supersede(t *testing.T) {
	f := newFixture(t)
	b := f.depositRequested(t, nil)

	f.clock = f.clock.AddDate(0, 0, 10)
	f.notifier.On("DepositRequested", mock.Anything, mock.MatchedBy(func(n DepositRequestNotice) bool {
		return n.Superseded && n.Amount == 6000
	})).Return(nil).Once()

	days := 3
	res, err := f.svc.SendDepositRequest(context.Background(), studioID, b.ID, DepositRequestInput{Amount: 6000, ExpiresInDays: &days})
	require.NoError(t, err)

	got := res.Booking
	assert.Equal(t, StatusDepositRequested, got.Status)
	assert.Equal(t, 2, got.DepositRequestCount)
	assert.Equal(t, int64(6000), *got.DepositAmount)
	assert.True(t, got.DepositRequestExpiresAt.Equal(f.clock.AddDate(0, 0, 3)))
	f.notifier.AssertExpectations(t)
}

func TestSendDepositRequest_Rejections(t *testing.T) {
	f := newFixture(t)
	pending := f.create(t, nil)
	quoted := f.quoted(t, nil)
	tooLong, zero := 31, 0

	cases := []struct {
		name string
		id   int64
		in   DepositRequestInput
		kind apperr.Kind
	}{
		{"pending request", pending.ID, DepositRequestInput{Amount: 100}, apperr.KindInvalidState},
		{"zero amount", quoted.ID, DepositRequestInput{Amount: 0}, apperr.KindInvalidInput},
		{"above quote", quoted.ID, DepositRequestInput{Amount: 20001}, apperr.KindInvalidInput},
		{"expiry too long", quoted.ID, DepositRequestInput{Amount: 100, ExpiresInDays: &tooLong}, apperr.KindInvalidInput},
		{"expiry zero", quoted.ID, DepositRequestInput{Amount: 100, ExpiresInDays: &zero}, apperr.KindInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SendDepositRequest(context.Background(), studioID, tc.id, tc.in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
	f.notifier.AssertNotCalled(t, "DepositRequested", mock.Anything, mock.Anything)
}

func TestSendDepositRequest_CollaboratorFailuresAreWarnings(t *testing.T) {
	f := newFixture(t)
	b := f.quoted(t, nil)
	f.links.err = errors.New("provider down")
	f.notifier.On("DepositRequested", mock.Anything, mock.Anything).Return(errors.New("smtp timeout")).Once()

	res, err := f.svc.SendDepositRequest(context.Background(), studioID, b.ID, DepositRequestInput{Amount: 5000})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, StatusDepositRequested, res.Booking.Status)
	assert.Empty(t, res.Booking.PaymentLinkURL)
}

func TestRecordDepositPayment(t *testing.T) {
	f := newFixture(t)
	b := f.depositRequested(t, nil)
	ctx := context.Background()

	got, err := f.svc.RecordDepositPayment(ctx, b.ID, DepositPaymentInput{PaymentReference: "pi_1", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, StatusDepositPaid, got.Status)
	require.NotNil(t, got.DepositPaidAt)
	paidAt := *got.DepositPaidAt

	// replayed webhook
	f.clock = f.clock.Add(time.Hour)
	again, err := f.svc.RecordDepositPayment(ctx, b.ID, DepositPaymentInput{PaymentReference: "pi_1", Amount: 5000})
	require.NoError(t, err)
	assert.True(t, again.DepositPaidAt.Equal(paidAt))

	_, err = f.svc.RecordDepositPayment(ctx, b.ID, DepositPaymentInput{PaymentReference: "pi_2"})
	assert.True(t, errors.Is(err, ErrPaymentMismatch))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRecordDepositPayment_Rejections(t *testing.T) {
	f := newFixture(t)
	quoted := f.quoted(t, nil)
	requested := f.depositRequested(t, nil)

	_, err := f.svc.RecordDepositPayment(context.Background(), quoted.ID, DepositPaymentInput{PaymentReference: "pi_x"})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = f.svc.RecordDepositPayment(context.Background(), requested.ID, DepositPaymentInput{PaymentReference: "pi_y", Amount: 100})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.RecordDepositPayment(context.Background(), requested.ID, DepositPaymentInput{})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestRecordDepositPayment_ConcurrentWebhooks(t *testing.T) {
	f := newFixture(t)
	b := f.depositRequested(t, nil)

	refs := []string{"pi_a", "pi_b", "pi_c", "pi_d"}
	errs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordDepositPayment(context.Background(), b.ID, DepositPaymentInput{PaymentReference: ref})
		}(i, ref)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDepositPaid, stored.Status)
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	b := f.paid(t, nil)
	when := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

	f.notifier.On("BookingConfirmed", mock.Anything, mock.MatchedBy(func(n ConfirmationNotice) bool {
		return n.ScheduledDate.Equal(when) && n.DurationHours == 2.5
	})).Return(errors.New("mailbox full")).Once()

	res, err := f.svc.ConfirmBooking(context.Background(), studioID, b.ID, ConfirmInput{
		ScheduledDate: when, DurationHours: 2.5, SendEmail: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, StatusConfirmed, res.Booking.Status)
	assert.True(t, res.Booking.ScheduledDate.Equal(when))
	f.notifier.AssertExpectations(t)
}

func TestConfirmBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	requested := f.depositRequested(t, nil)
	paid := f.paid(t, nil)

	_, err := f.svc.ConfirmBooking(context.Background(), studioID, requested.ID, ConfirmInput{ScheduledDate: f.clock, DurationHours: 1})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	_, err = f.svc.ConfirmBooking(context.Background(), studioID, paid.ID, ConfirmInput{DurationHours: 1})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.ConfirmBooking(context.Background(), studioID, paid.ID, ConfirmInput{ScheduledDate: f.clock})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestComplete_RecordsCommission(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, artist(7))

	res, err := f.svc.Complete(context.Background(), studioID, b.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, StatusCompleted, res.Booking.Status)
	assert.Equal(t, int64(20000), *res.Booking.ServiceTotal)

	require.Len(t, f.recorder.calls, 1)
	call := f.recorder.calls[0]
	assert.Equal(t, int64(7), call.ArtistID)
	assert.Equal(t, b.ID, call.BookingRequestID)
	assert.Equal(t, int64(20000), call.ServiceTotal)
	require.NotNil(t, res.Commission)
	assert.Equal(t, int64(12000), res.Commission.ArtistPayout)

	_, err = f.svc.Complete(context.Background(), studioID, b.ID, CompleteInput{})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestComplete_Warnings(t *testing.T) {
	f := newFixture(t)
	unassigned := f.confirmed(t, nil)
	assigned := f.confirmed(t, artist(3))

	res, err := f.svc.Complete(context.Background(), studioID, unassigned.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Nil(t, res.Commission)

	f.recorder.err = commission.ErrNoApplicableRule
	total := int64(25000)
	res, err = f.svc.Complete(context.Background(), studioID, assigned.ID, CompleteInput{ServiceTotal: &total})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, StatusCompleted, res.Booking.Status)
	assert.Equal(t, int64(25000), *res.Booking.ServiceTotal)
}

func TestProcessExpiredDeposits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.depositRequested(t, nil)
	second := f.depositRequested(t, nil)
	_ = f.paid(t, nil)

	// not yet due
	res, err := f.svc.ProcessExpiredDeposits(ctx, f.clock.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Zero(t, res.Expired)

	f.notifier.On("DepositExpired", mock.Anything, mock.MatchedBy(func(n DepositExpiredNotice) bool {
		return n.BookingID == first.ID
	})).Return(nil).Once()
	f.notifier.On("DepositExpired", mock.Anything, mock.MatchedBy(func(n DepositExpiredNotice) bool {
		return n.BookingID == second.ID
	})).Return(errors.New("bounced")).Once()

	later := f.clock.AddDate(0, 0, 8)
	res, err = f.svc.ProcessExpiredDeposits(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Expired)
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, res.Failures, 1)

	// each expiry is reported once
	res, err = f.svc.ProcessExpiredDeposits(ctx, later.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Expired)
	f.notifier.AssertExpectations(t)

	stored, err := f.repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDepositRequested, stored.Status)
	assert.True(t, stored.DepositExpired(later))

	// a fresh request re-arms the sweep
	f.clock = later
	f.notifier.On("DepositRequested", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.svc.SendDepositRequest(ctx, studioID, first.ID, DepositRequestInput{Amount: 5000})
	require.NoError(t, err)

	f.notifier.On("DepositExpired", mock.Anything, mock.Anything).Return(nil).Once()
	res, err = f.svc.ProcessExpiredDeposits(ctx, later.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.create(t, nil)
	f.quoted(t, artist(2))
	f.quoted(t, artist(2))

	items, total, err := f.svc.List(context.Background(), studioID, ListFilter{Status: status(StatusQuoted)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	_, total, err = f.svc.List(context.Background(), studioID+1, ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, nil)

	require.NoError(t, f.svc.Delete(context.Background(), studioID, b.ID))
	_, err := f.svc.Get(context.Background(), studioID, b.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(f.svc.Delete(context.Background(), studioID, b.ID), ErrNotFound))
}
