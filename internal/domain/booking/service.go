package booking

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"tattoostudio/internal/database"
	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/pkg/apperr"
)

const referenceAttempts = 3

type Options struct {
	DepositExpiryDays    int
	MaxDepositExpiryDays int
}

// Result carries a committed booking plus collaborator failures that did not
// block the write.
type Result struct {
	Booking    *BookingRequest              `json:"booking"`
	Commission *commission.EarnedCommission `json:"commission,omitempty"`
	Warnings   []string                     `json:"-"`
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

type Service struct {
	repo        Repository
	refs        ReferenceGenerator
	links       PaymentLinkGenerator
	notifier    Notifier
	commissions CommissionRecorder
	opts        Options
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	repo Repository,
	refs ReferenceGenerator,
	links PaymentLinkGenerator,
	notifier Notifier,
	commissions CommissionRecorder,
	opts Options,
	log *zap.Logger,
) *Service {
	if opts.DepositExpiryDays <= 0 {
		opts.DepositExpiryDays = 7
	}
	if opts.MaxDepositExpiryDays < opts.DepositExpiryDays {
		opts.MaxDepositExpiryDays = 30
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		refs:        refs,
		links:       links,
		notifier:    notifier,
		commissions: commissions,
		opts:        opts,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type ImageInput struct {
	URL     string
	Caption string
}

type CreateInput struct {
	ClientName        string
	ClientEmail       string
	ClientPhone       string
	DesignDescription string
	Placement         string
	Size              SizeClass
	ColorPreference   string
	IsCoverUp         bool
	IsFirstTattoo     bool
	ArtistID          *int64
	InternalNotes     string
	ReferenceImages   []ImageInput
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.ClientName) == "" {
		return invalid("client_name is required")
	}
	if _, err := mail.ParseAddress(in.ClientEmail); err != nil {
		return invalid("client_email is invalid")
	}
	if strings.TrimSpace(in.DesignDescription) == "" {
		return invalid("design_description is required")
	}
	if !in.Size.Valid() {
		return invalid("unknown size %q", in.Size)
	}
	for i, img := range in.ReferenceImages {
		if strings.TrimSpace(img.URL) == "" {
			return invalid("reference image %d has no url", i)
		}
	}
	return nil
}

// Create stores a new request in pending status.
func (s *Service) Create(ctx context.Context, studioID int64, in CreateInput) (*BookingRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	b := &BookingRequest{
		StudioID:          studioID,
		ArtistID:          in.ArtistID,
		Status:            StatusPending,
		ClientName:        strings.TrimSpace(in.ClientName),
		ClientEmail:       strings.TrimSpace(in.ClientEmail),
		ClientPhone:       strings.TrimSpace(in.ClientPhone),
		DesignDescription: strings.TrimSpace(in.DesignDescription),
		Placement:         in.Placement,
		Size:              in.Size,
		ColorPreference:   in.ColorPreference,
		IsCoverUp:         in.IsCoverUp,
		IsFirstTattoo:     in.IsFirstTattoo,
		InternalNotes:     in.InternalNotes,
	}
	for i, img := range in.ReferenceImages {
		b.ReferenceImages = append(b.ReferenceImages, ReferenceImage{Position: i, URL: img.URL, Caption: img.Caption})
	}

	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		b.ReferenceCode, err = s.refs.Next(ctx, studioID)
		if err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, b)
		if err == nil || !database.IsUniqueViolation(err) {
			break
		}
		b.ID = 0
		for i := range b.ReferenceImages {
			b.ReferenceImages[i].ID = 0
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("booking request created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("studio_id", studioID),
		zap.String("reference_code", b.ReferenceCode))
	return b, nil
}

func (s *Service) Get(ctx context.Context, studioID, id int64) (*BookingRequest, error) {
	return s.repo.Get(ctx, studioID, id)
}

func (s *Service) List(ctx context.Context, studioID int64, f ListFilter) ([]BookingRequest, int64, error) {
	return s.repo.List(ctx, studioID, f)
}

func (s *Service) Delete(ctx context.Context, studioID, id int64) error {
	return s.repo.Delete(ctx, studioID, id)
}

// Update applies a staff edit. Transition legality, including the implicit
// quote transition, is decided by PlanUpdate against the stored status.
func (s *Service) Update(ctx context.Context, studioID, id int64, patch Patch) (*BookingRequest, error) {
	current, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanUpdate(*current, patch, s.now())
	if err != nil {
		return nil, err
	}
	if len(plan.Changes) == 0 {
		return current, nil
	}
	if err := s.commit(ctx, current, plan.To, plan.Changes); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, studioID, id)
}

// commit persists changes with a compare-and-swap on b's stored status.
func (s *Service) commit(ctx context.Context, b *BookingRequest, to Status, changes map[string]any) error {
	ok, err := s.repo.UpdateIfStatus(ctx, b.ID, b.Status, changes)
	if err != nil {
		return err
	}
	if !ok {
		latest, err := s.repo.GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		return apperr.Wrap(ErrStaleStatus, apperr.KindInvalidTransition,
			"booking request is now %s; expected %s", latest.Status, b.Status)
	}
	if b.Status != to {
		s.log.Info("booking status changed",
			zap.Int64("booking_id", b.ID),
			zap.String("from", string(b.Status)),
			zap.String("to", string(to)))
	}
	return nil
}

type CompleteInput struct {
	// ServiceTotal defaults to the quoted price when nil.
	ServiceTotal *int64
}

// Complete closes a confirmed appointment and records the artist's
// commission. A commission failure is reported as a warning; the owner can
// retry it through the commission API.
func (s *Service) Complete(ctx context.Context, studioID, id int64, in CompleteInput) (*Result, error) {
	b, err := s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	to, err := Next(b.Status, ActionComplete)
	if err != nil {
		return nil, err
	}

	var total int64
	switch {
	case in.ServiceTotal != nil:
		total = *in.ServiceTotal
	case b.QuotedPrice != nil:
		total = *b.QuotedPrice
	}
	if total < 0 {
		return nil, invalid("service_total must not be negative")
	}

	now := s.now()
	if err := s.commit(ctx, b, to, map[string]any{
		"status":        to,
		"service_total": total,
		"completed_at":  now,
		"updated_at":    now,
	}); err != nil {
		return nil, err
	}

	res := &Result{}
	if b.ArtistID == nil {
		res.warn("no artist assigned; commission was not recorded")
	} else if s.commissions != nil {
		earned, err := s.commissions.RecordEarned(ctx, commission.RecordInput{
			StudioID:         studioID,
			ArtistID:         *b.ArtistID,
			BookingRequestID: b.ID,
			ServiceTotal:     total,
			EarnedAt:         now,
		})
		if err != nil {
			s.log.Warn("commission not recorded", zap.Int64("booking_id", b.ID), zap.Error(err))
			res.warn("commission was not recorded: " + apperr.Message(err))
		} else {
			res.Commission = earned
		}
	}

	res.Booking, err = s.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	return res, nil
}
