package commission

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tattoostudio/internal/database"
)

// Repository persists rules, artist assignments and earned commissions.
type Repository interface {
	// Rules
	CreateRule(ctx context.Context, rule *Rule) error
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, studioID, id int64) error
	GetRule(ctx context.Context, studioID, id int64) (*Rule, error)
	ListRules(ctx context.Context, studioID int64, activeOnly bool) ([]Rule, error)
	GetDefaultRule(ctx context.Context, studioID int64) (*Rule, error)
	SetDefault(ctx context.Context, studioID, id int64) error

	// Assignments
	UpsertAssignment(ctx context.Context, a *ArtistAssignment) error
	DeleteAssignment(ctx context.Context, studioID, artistID int64) (bool, error)
	GetAssignment(ctx context.Context, studioID, artistID int64) (*ArtistAssignment, error)
	ListAssignments(ctx context.Context, studioID int64) ([]ArtistAssignment, error)
	CountAssignments(ctx context.Context, ruleID int64) (int64, error)

	// Earned
	CreateEarned(ctx context.Context, e *EarnedCommission) error
	GetEarned(ctx context.Context, studioID, id int64) (*EarnedCommission, error)
	GetEarnedByBooking(ctx context.Context, bookingRequestID int64) (*EarnedCommission, error)
	ListEarned(ctx context.Context, studioID int64, f EarnedFilter) ([]EarnedCommission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func orderedTiers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func clearDefault(tx *gorm.DB, studioID, exceptID int64) error {
	return tx.Model(&Rule{}).
		Where("studio_id = ? AND is_default = ? AND id <> ?", studioID, true, exceptID).
		Update("is_default", false).Error
}

func (r *repository) CreateRule(ctx context.Context, rule *Rule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rule.IsDefault {
			if err := clearDefault(tx, rule.StudioID, 0); err != nil {
				return err
			}
		}
		return tx.Create(rule).Error
	})
}

// UpdateRule rewrites the rule row and replaces its tiers in one transaction.
func (r *repository) UpdateRule(ctx context.Context, rule *Rule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rule.IsDefault {
			if err := clearDefault(tx, rule.StudioID, rule.ID); err != nil {
				return err
			}
		}
		res := tx.Model(&Rule{}).
			Where("id = ? AND studio_id = ?", rule.ID, rule.StudioID).
			Select("name", "description", "is_default", "is_active", "commission_type", "percentage", "flat_fee_amount", "updated_at").
			Updates(rule)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRuleNotFound
		}
		if err := tx.Where("rule_id = ?", rule.ID).Delete(&Tier{}).Error; err != nil {
			return err
		}
		for i := range rule.Tiers {
			rule.Tiers[i].ID = 0
			rule.Tiers[i].RuleID = rule.ID
		}
		if len(rule.Tiers) > 0 {
			if err := tx.Create(&rule.Tiers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) DeleteRule(ctx context.Context, studioID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rule_id = ?", id).Delete(&Tier{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND studio_id = ?", id, studioID).Delete(&Rule{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRuleNotFound
		}
		return nil
	})
}

func (r *repository) GetRule(ctx context.Context, studioID, id int64) (*Rule, error) {
	var rule Rule
	err := r.db.WithContext(ctx).
		Preload("Tiers", orderedTiers).
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&rule).Error
	if database.IsNotFound(err) {
		return nil, ErrRuleNotFound
	}
	return &rule, err
}

func (r *repository) ListRules(ctx context.Context, studioID int64, activeOnly bool) ([]Rule, error) {
	q := r.db.WithContext(ctx).Preload("Tiers", orderedTiers).Where("studio_id = ?", studioID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rules []Rule
	err := q.Order("id ASC").Find(&rules).Error
	return rules, err
}

// GetDefaultRule returns nil, nil when the studio has no active default.
func (r *repository) GetDefaultRule(ctx context.Context, studioID int64) (*Rule, error) {
	var rule Rule
	err := r.db.WithContext(ctx).
		Preload("Tiers", orderedTiers).
		Where("studio_id = ? AND is_default = ? AND is_active = ?", studioID, true, true).
		First(&rule).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) SetDefault(ctx context.Context, studioID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule Rule
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND studio_id = ?", id, studioID).
			First(&rule).Error
		if database.IsNotFound(err) {
			return ErrRuleNotFound
		}
		if err != nil {
			return err
		}
		if !rule.IsActive {
			return ErrRuleInactive
		}
		if err := clearDefault(tx, studioID, id); err != nil {
			return err
		}
		return tx.Model(&Rule{}).Where("id = ?", id).
			Updates(map[string]any{"is_default": true, "updated_at": time.Now().UTC()}).Error
	})
}

func (r *repository) UpsertAssignment(ctx context.Context, a *ArtistAssignment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "artist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"studio_id", "rule_id", "assigned_at"}),
	}).Create(a).Error
}

func (r *repository) DeleteAssignment(ctx context.Context, studioID, artistID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("artist_id = ? AND studio_id = ?", artistID, studioID).
		Delete(&ArtistAssignment{})
	return res.RowsAffected > 0, res.Error
}

// GetAssignment returns nil, nil when the artist has no assignment.
func (r *repository) GetAssignment(ctx context.Context, studioID, artistID int64) (*ArtistAssignment, error) {
	var a ArtistAssignment
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND studio_id = ?", artistID, studioID).
		First(&a).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAssignments(ctx context.Context, studioID int64) ([]ArtistAssignment, error) {
	var out []ArtistAssignment
	err := r.db.WithContext(ctx).Where("studio_id = ?", studioID).Order("artist_id ASC").Find(&out).Error
	return out, err
}

func (r *repository) CountAssignments(ctx context.Context, ruleID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ArtistAssignment{}).Where("rule_id = ?", ruleID).Count(&n).Error
	return n, err
}

func (r *repository) CreateEarned(ctx context.Context, e *EarnedCommission) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) GetEarned(ctx context.Context, studioID, id int64) (*EarnedCommission, error) {
	var e EarnedCommission
	err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&e).Error
	if database.IsNotFound(err) {
		return nil, ErrEarnedNotFound
	}
	return &e, err
}

// GetEarnedByBooking returns nil, nil when nothing was recorded yet.
func (r *repository) GetEarnedByBooking(ctx context.Context, bookingRequestID int64) (*EarnedCommission, error) {
	var e EarnedCommission
	err := r.db.WithContext(ctx).Where("booking_request_id = ?", bookingRequestID).First(&e).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListEarned(ctx context.Context, studioID int64, f EarnedFilter) ([]EarnedCommission, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if f.ArtistID != nil {
		q = q.Where("artist_id = ?", *f.ArtistID)
	}
	if f.PayPeriodID != nil {
		q = q.Where("pay_period_id = ?", *f.PayPeriodID)
	}
	if f.UnassignedOnly {
		q = q.Where("pay_period_id IS NULL")
	}
	if f.EarnedFrom != nil {
		q = q.Where("earned_at >= ?", *f.EarnedFrom)
	}
	if f.EarnedBefore != nil {
		q = q.Where("earned_at < ?", *f.EarnedBefore)
	}
	var out []EarnedCommission
	err := q.Order("earned_at ASC, id ASC").Find(&out).Error
	return out, err
}
