package commission

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tattoostudio/internal/database"
	"tattoostudio/internal/pkg/apperr"
)

// RuleInput carries the editable fields of a rule.
type RuleInput struct {
	Name           string
	Description    string
	IsDefault      bool
	IsActive       *bool
	CommissionType Type
	Percentage     *decimal.Decimal
	FlatFeeAmount  *int64
	Tiers          []TierInput
}

type TierInput struct {
	MinRevenue int64
	MaxRevenue *int64
	Percentage decimal.Decimal
}

// RecordInput describes a completed service whose commission must be stored.
type RecordInput struct {
	StudioID         int64
	ArtistID         int64
	BookingRequestID int64
	ServiceTotal     int64
	EarnedAt         time.Time
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

func buildRule(studioID int64, in RuleInput) Rule {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	r := Rule{
		StudioID:       studioID,
		Name:           in.Name,
		Description:    in.Description,
		IsDefault:      in.IsDefault,
		IsActive:       active,
		CommissionType: in.CommissionType,
		Percentage:     in.Percentage,
		FlatFeeAmount:  in.FlatFeeAmount,
	}
	for _, t := range in.Tiers {
		r.Tiers = append(r.Tiers, Tier{MinRevenue: t.MinRevenue, MaxRevenue: t.MaxRevenue, Percentage: t.Percentage})
	}
	return r
}

func (s *Service) CreateRule(ctx context.Context, studioID int64, in RuleInput) (*Rule, error) {
	rule := buildRule(studioID, in)
	if err := ValidateRule(&rule); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRule(ctx, &rule); err != nil {
		return nil, err
	}
	s.log.Info("commission rule created",
		zap.Int64("studio_id", studioID),
		zap.Int64("rule_id", rule.ID),
		zap.String("type", string(rule.CommissionType)))
	return &rule, nil
}

// UpdateRule replaces a rule's configuration. Earned commissions keep the
// snapshot taken when they were recorded.
func (s *Service) UpdateRule(ctx context.Context, studioID, id int64, in RuleInput) (*Rule, error) {
	existing, err := s.repo.GetRule(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	rule := buildRule(studioID, in)
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = s.now()
	if err := ValidateRule(&rule); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRule(ctx, &rule); err != nil {
		return nil, err
	}
	return s.repo.GetRule(ctx, studioID, id)
}

func (s *Service) DeleteRule(ctx context.Context, studioID, id int64) error {
	if _, err := s.repo.GetRule(ctx, studioID, id); err != nil {
		return err
	}
	n, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Wrap(ErrRuleInUse, apperr.KindConflict, "commission rule is assigned to %d artist(s)", n)
	}
	return s.repo.DeleteRule(ctx, studioID, id)
}

func (s *Service) GetRule(ctx context.Context, studioID, id int64) (*Rule, error) {
	return s.repo.GetRule(ctx, studioID, id)
}

func (s *Service) ListRules(ctx context.Context, studioID int64, activeOnly bool) ([]Rule, error) {
	return s.repo.ListRules(ctx, studioID, activeOnly)
}

// SetDefault makes id the studio's only default rule.
func (s *Service) SetDefault(ctx context.Context, studioID, id int64) (*Rule, error) {
	if err := s.repo.SetDefault(ctx, studioID, id); err != nil {
		return nil, err
	}
	s.log.Info("default commission rule changed", zap.Int64("studio_id", studioID), zap.Int64("rule_id", id))
	return s.repo.GetRule(ctx, studioID, id)
}

func (s *Service) AssignArtist(ctx context.Context, studioID, artistID, ruleID int64) (*ArtistAssignment, error) {
	if artistID <= 0 {
		return nil, invalidInput("artist_id is required")
	}
	rule, err := s.repo.GetRule(ctx, studioID, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		return nil, ErrRuleInactive
	}
	a := &ArtistAssignment{ArtistID: artistID, StudioID: studioID, RuleID: ruleID, AssignedAt: s.now()}
	if err := s.repo.UpsertAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UnassignArtist(ctx context.Context, studioID, artistID int64) error {
	removed, err := s.repo.DeleteAssignment(ctx, studioID, artistID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *Service) ListAssignments(ctx context.Context, studioID int64) ([]ArtistAssignment, error) {
	return s.repo.ListAssignments(ctx, studioID)
}

// ResolveRule returns the artist's assigned active rule, falling back to the
// studio's active default.
func (s *Service) ResolveRule(ctx context.Context, studioID, artistID int64) (*Rule, error) {
	a, err := s.repo.GetAssignment(ctx, studioID, artistID)
	if err != nil {
		return nil, err
	}
	if a != nil {
		rule, err := s.repo.GetRule(ctx, studioID, a.RuleID)
		if err != nil && !errors.Is(err, ErrRuleNotFound) {
			return nil, err
		}
		if rule != nil && rule.IsActive {
			return rule, nil
		}
	}
	def, err := s.repo.GetDefaultRule(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, ErrNoApplicableRule
	}
	return def, nil
}

// CalculateForRule previews a split without persisting anything.
func (s *Service) CalculateForRule(ctx context.Context, studioID, ruleID, totalCents int64) (*Calculation, error) {
	rule, err := s.repo.GetRule(ctx, studioID, ruleID)
	if err != nil {
		return nil, err
	}
	calc, err := Calculate(*rule, totalCents)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// RecordEarned computes and stores the commission for a completed booking.
// A booking is recorded at most once; repeated calls return the stored row.
func (s *Service) RecordEarned(ctx context.Context, in RecordInput) (*EarnedCommission, error) {
	if in.BookingRequestID <= 0 {
		return nil, invalidInput("booking_request_id is required")
	}
	if in.ArtistID <= 0 {
		return nil, invalidInput("artist_id is required")
	}
	if existing, err := s.repo.GetEarnedByBooking(ctx, in.BookingRequestID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	rule, err := s.ResolveRule(ctx, in.StudioID, in.ArtistID)
	if err != nil {
		return nil, err
	}
	calc, err := Calculate(*rule, in.ServiceTotal)
	if err != nil {
		return nil, err
	}

	earnedAt := in.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = s.now()
	}
	e := &EarnedCommission{
		StudioID:         in.StudioID,
		ArtistID:         in.ArtistID,
		BookingRequestID: in.BookingRequestID,
		RuleID:           rule.ID,
		RuleSnapshot:     datatypes.NewJSONType(Snapshot(*rule, calc)),
		Details:          datatypes.NewJSONType(calc.Details),
		ServiceTotal:     calc.ServiceTotal,
		CommissionAmount: calc.CommissionAmount,
		ArtistPayout:     calc.ArtistPayout,
		EarnedAt:         earnedAt.UTC(),
	}
	if err := s.repo.CreateEarned(ctx, e); err != nil {
		if database.IsUniqueViolation(err) {
			return s.repo.GetEarnedByBooking(ctx, in.BookingRequestID)
		}
		return nil, err
	}

	s.log.Info("commission earned",
		zap.Int64("booking_id", in.BookingRequestID),
		zap.Int64("artist_id", in.ArtistID),
		zap.Int64("rule_id", rule.ID),
		zap.Int64("service_total", e.ServiceTotal),
		zap.Int64("commission_amount", e.CommissionAmount),
		zap.Int64("artist_payout", e.ArtistPayout))
	return e, nil
}

func (s *Service) GetEarned(ctx context.Context, studioID, id int64) (*EarnedCommission, error) {
	return s.repo.GetEarned(ctx, studioID, id)
}

func (s *Service) ListEarned(ctx context.Context, studioID int64, f EarnedFilter) ([]EarnedCommission, error) {
	return s.repo.ListEarned(ctx, studioID, f)
}
