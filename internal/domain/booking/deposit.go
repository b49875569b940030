package booking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tattoostudio/internal/pkg/apperr"
)

const expirySweepBatch = 200

type DepositRequestInput struct {
	Amount int64
	// ExpiresInDays falls back to the configured default when nil.
	ExpiresInDays *int
	Message       string
}

// SendDepositRequest asks the client for a deposit. Sending again while a
// request is outstanding, expired or not, supersedes it.
func (s *Service) SendDepositRequest(ctx context.Context, studioID, id int64, in DepositRequestInput) (*Result, error) {
	b, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case StatusReviewing, StatusQuoted, StatusDepositRequested:
	default:
		return nil, apperr.Wrap(ErrInvalidState, apperr.KindInvalidState,
			"deposit can only be requested for reviewing or quoted requests; request is %s", b.Status)
	}

	if in.Amount <= 0 {
		return nil, ErrDepositRequired
	}
	if b.QuotedPrice != nil && in.Amount > *b.QuotedPrice {
		return nil, invalid("deposit amount %d exceeds quoted price %d", in.Amount, *b.QuotedPrice)
	}
	days := s.opts.DepositExpiryDays
	if in.ExpiresInDays != nil {
		days = *in.ExpiresInDays
	}
	if days < 1 || days > s.opts.MaxDepositExpiryDays {
		return nil, invalid("expires_in_days must be between 1 and %d", s.opts.MaxDepositExpiryDays)
	}

	to, err := Next(b.Status, ActionRequestDeposit)
	if err != nil {
		return nil, err
	}
	amount := in.Amount
	proposed := *b
	proposed.DepositAmount = &amount
	if err := CheckPrerequisites(&proposed, to); err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, days)
	superseded := b.Status == StatusDepositRequested
	res := &Result{}

	var link string
	if s.links != nil {
		link, err = s.links.Generate(ctx, b, amount, expiresAt)
		if err != nil {
			s.log.Warn("payment link generation failed", zap.Int64("booking_id", b.ID), zap.Error(err))
			res.warn("payment link could not be generated: " + err.Error())
			link = ""
		}
	}

	changes := map[string]any{
		"status":                     to,
		"deposit_amount":             amount,
		"deposit_message":            strings.TrimSpace(in.Message),
		"deposit_requested_at":       now,
		"deposit_request_expires_at": expiresAt,
		"deposit_request_count":      gorm.Expr("deposit_request_count + 1"),
		"deposit_expiry_notified_at": nil,
		"payment_link_url":           link,
		"updated_at":                 now,
	}
	if err := s.commit(ctx, b, to, changes); err != nil {
		return nil, err
	}
	if superseded {
		s.log.Info("deposit request superseded",
			zap.Int64("booking_id", b.ID),
			zap.Bool("previous_expired", b.DepositExpired(now)))
	}

	if s.notifier != nil {
		err := s.notifier.DepositRequested(ctx, DepositRequestNotice{
			BookingID:      b.ID,
			StudioID:       b.StudioID,
			ReferenceCode:  b.ReferenceCode,
			ClientName:     b.ClientName,
			ClientEmail:    b.ClientEmail,
			Amount:         amount,
			ExpiresAt:      expiresAt,
			PaymentLinkURL: link,
			Message:        strings.TrimSpace(in.Message),
			Superseded:     superseded,
		})
		if err != nil {
			s.log.Warn("deposit request notification failed", zap.Int64("booking_id", b.ID), zap.Error(err))
			res.warn("deposit request email could not be sent: " + err.Error())
		}
	}

	res.Booking, err = s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type DepositPaymentInput struct {
	PaymentReference string
	Amount           int64
	PaidAt           time.Time
}

// RecordDepositPayment accepts the payment provider's confirmation. Replaying
// the same payment reference is a no-op.
func (s *Service) RecordDepositPayment(ctx context.Context, id int64, in DepositPaymentInput) (*BookingRequest, error) {
	ref := strings.TrimSpace(in.PaymentReference)
	if ref == "" {
		return nil, invalid("payment_reference is required")
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.DepositPaymentReference != nil {
		if *b.DepositPaymentReference == ref {
			return b, nil
		}
		return nil, apperr.Wrap(ErrPaymentMismatch, apperr.KindConflict,
			"deposit already recorded with reference %s", *b.DepositPaymentReference)
	}

	to, err := Next(b.Status, ActionRecordDepositPayment)
	if err != nil {
		return nil, err
	}
	if in.Amount > 0 && b.DepositAmount != nil && in.Amount < *b.DepositAmount {
		return nil, invalid("paid amount %d does not cover deposit %d", in.Amount, *b.DepositAmount)
	}

	now := s.now()
	paidAt := in.PaidAt.UTC()
	if in.PaidAt.IsZero() {
		paidAt = now
	}
	if b.DepositExpired(paidAt) {
		s.log.Warn("deposit paid after expiry", zap.Int64("booking_id", b.ID))
	}

	if err := s.commit(ctx, b, to, map[string]any{
		"status":                    to,
		"deposit_paid_at":           paidAt,
		"deposit_payment_reference": ref,
		"updated_at":                now,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

type ConfirmInput struct {
	ScheduledDate time.Time
	DurationHours float64
	SendEmail     bool
}

// ConfirmBooking schedules a paid booking. The confirmation email is optional
// and best-effort.
func (s *Service) ConfirmBooking(ctx context.Context, studioID, id int64, in ConfirmInput) (*Result, error) {
	b, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusDepositPaid {
		return nil, apperr.Wrap(ErrInvalidState, apperr.KindInvalidState,
			"only requests with a paid deposit can be confirmed; request is %s", b.Status)
	}
	if in.ScheduledDate.IsZero() {
		return nil, invalid("scheduled_date is required")
	}
	if in.DurationHours <= 0 {
		return nil, invalid("duration_hours must be greater than 0")
	}

	to, err := Next(b.Status, ActionConfirm)
	if err != nil {
		return nil, err
	}
	scheduled := in.ScheduledDate.UTC()
	duration := in.DurationHours
	proposed := *b
	proposed.ScheduledDate = &scheduled
	proposed.ScheduledDurationHours = &duration
	if err := CheckPrerequisites(&proposed, to); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, b, to, map[string]any{
		"status":                   to,
		"scheduled_date":           scheduled,
		"scheduled_duration_hours": duration,
		"updated_at":               s.now(),
	}); err != nil {
		return nil, err
	}

	res := &Result{}
	if in.SendEmail && s.notifier != nil {
		err := s.notifier.BookingConfirmed(ctx, ConfirmationNotice{
			BookingID:     b.ID,
			StudioID:      b.StudioID,
			ReferenceCode: b.ReferenceCode,
			ClientName:    b.ClientName,
			ClientEmail:   b.ClientEmail,
			ArtistID:      b.ArtistID,
			ScheduledDate: scheduled,
			DurationHours: duration,
		})
		if err != nil {
			s.log.Warn("confirmation email failed", zap.Int64("booking_id", b.ID), zap.Error(err))
			res.warn("confirmation email could not be sent: " + err.Error())
		}
	}

	res.Booking, err = s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SweepResult summarizes one ProcessExpiredDeposits run.
type SweepResult struct {
	Expired  int      `json:"expired"`
	Notified int      `json:"notified"`
	Failures []string `json:"failures,omitempty"`
}

// ProcessExpiredDeposits reports each lapsed, unpaid deposit request once.
// Statuses are left alone: an expired request stays deposit_requested and can
// be sent again. Safe to run repeatedly and concurrently.
func (s *Service) ProcessExpiredDeposits(ctx context.Context, now time.Time) (SweepResult, error) {
	var out SweepResult
	now = now.UTC()
	for {
		batch, err := s.repo.ListExpiredDeposits(ctx, now, expirySweepBatch)
		if err != nil {
			return out, err
		}
		if len(batch) == 0 {
			return out, nil
		}
		for i := range batch {
			b := &batch[i]
			claimed, err := s.repo.MarkExpiryNotified(ctx, b.ID, now)
			if err != nil {
				return out, err
			}
			if !claimed {
				continue
			}
			out.Expired++

			if s.notifier == nil {
				continue
			}
			notice := DepositExpiredNotice{
				BookingID:     b.ID,
				StudioID:      b.StudioID,
				ReferenceCode: b.ReferenceCode,
				ClientEmail:   b.ClientEmail,
				ExpiredAt:     *b.DepositRequestExpiresAt,
			}
			if b.DepositAmount != nil {
				notice.Amount = *b.DepositAmount
			}
			if err := s.notifier.DepositExpired(ctx, notice); err != nil {
				s.log.Warn("deposit expiry notification failed", zap.Int64("booking_id", b.ID), zap.Error(err))
				out.Failures = append(out.Failures, b.ReferenceCode+": "+err.Error())
				continue
			}
			out.Notified++
		}
	}
}
