package payperiod

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tattoostudio/internal/pkg/apperr"
)

type CreateInput struct {
	StartDate time.Time
	EndDate   time.Time
	Notes     string
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, studioID int64, in CreateInput) (*PayPeriod, error) {
	start, end := in.StartDate.UTC(), in.EndDate.UTC()
	if start.IsZero() || end.IsZero() {
		return nil, apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, "start_date and end_date are required")
	}
	if !end.After(start) {
		return nil, apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, "end_date must be after start_date")
	}
	n, err := s.repo.CountOverlapping(ctx, studioID, start, end)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrOverlap
	}

	p := &PayPeriod{
		StudioID:  studioID,
		StartDate: start,
		EndDate:   end,
		Status:    StatusOpen,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("pay period created",
		zap.Int64("studio_id", studioID),
		zap.Int64("pay_period_id", p.ID),
		zap.Time("start", start),
		zap.Time("end", end))
	return p, nil
}

func (s *Service) Get(ctx context.Context, studioID, id int64) (*PayPeriod, error) {
	return s.repo.Get(ctx, studioID, id)
}

func (s *Service) List(ctx context.Context, studioID int64, status *Status) ([]PayPeriod, error) {
	return s.repo.List(ctx, studioID, status)
}

func uniqueIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, "commission_ids must not be empty")
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, "invalid commission id %d", id)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Assign attaches commissions to an open period. Either all of them end up in
// the period or nothing changes. Commissions already in this period are
// skipped; a commission held by another period fails the whole batch.
func (s *Service) Assign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error) {
	ids, err := uniqueIDs(commissionIDs)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.Assign(ctx, studioID, periodID, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info("commissions assigned to pay period",
		zap.Int64("pay_period_id", periodID),
		zap.Int("requested", len(ids)),
		zap.Int64("assigned", n))
	return n, nil
}

func (s *Service) Unassign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error) {
	ids, err := uniqueIDs(commissionIDs)
	if err != nil {
		return 0, err
	}
	return s.repo.Unassign(ctx, studioID, periodID, ids)
}

// CollectEligible assigns every unassigned commission earned inside the
// period window.
func (s *Service) CollectEligible(ctx context.Context, studioID, periodID int64) (int64, error) {
	n, err := s.repo.CollectEligible(ctx, studioID, periodID)
	if err != nil {
		return 0, err
	}
	s.log.Info("eligible commissions collected", zap.Int64("pay_period_id", periodID), zap.Int64("assigned", n))
	return n, nil
}

func (s *Service) Close(ctx context.Context, studioID, id int64) (*PayPeriod, error) {
	now := s.now()
	ok, err := s.repo.Transition(ctx, studioID, id, StatusOpen, StatusClosed, map[string]any{"closed_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionError(ctx, studioID, id, ErrNotOpen)
	}
	s.log.Info("pay period closed", zap.Int64("pay_period_id", id))
	return s.repo.Get(ctx, studioID, id)
}

func (s *Service) MarkPaid(ctx context.Context, studioID, id int64, reference string) (*PayPeriod, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.Wrap(ErrInvalidInput, apperr.KindInvalidInput, "payment_reference is required")
	}
	now := s.now()
	ok, err := s.repo.Transition(ctx, studioID, id, StatusClosed, StatusPaid, map[string]any{
		"paid_at":           now,
		"payment_reference": reference,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionError(ctx, studioID, id, ErrNotClosed)
	}
	s.log.Info("pay period paid", zap.Int64("pay_period_id", id), zap.String("payment_reference", reference))
	return s.repo.Get(ctx, studioID, id)
}

// transitionError distinguishes a missing period from one in the wrong state.
func (s *Service) transitionError(ctx context.Context, studioID, id int64, sentinel *apperr.Error) error {
	p, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return err
	}
	return apperr.Wrap(sentinel, apperr.KindInvalidState, "pay period %d is %s", id, p.Status)
}

// Report sums artist payouts over the commissions of a period.
func (s *Service) Report(ctx context.Context, studioID, id int64) (*Report, error) {
	p, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListCommissions(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	artists, totals := AggregateByArtist(items)
	return &Report{PayPeriod: *p, Artists: artists, Totals: totals}, nil
}
