package payperiod

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tattoostudio/internal/database"
	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/pkg/apperr"
)

type Repository interface {
	Create(ctx context.Context, p *PayPeriod) error
	Get(ctx context.Context, studioID, id int64) (*PayPeriod, error)
	List(ctx context.Context, studioID int64, status *Status) ([]PayPeriod, error)
	CountOverlapping(ctx context.Context, studioID int64, start, end time.Time) (int64, error)

	Assign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error)
	Unassign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error)
	CollectEligible(ctx context.Context, studioID, periodID int64) (int64, error)

	// Transition moves the period from one status to another only if it is
	// still in from. It returns false when the stored status differs.
	Transition(ctx context.Context, studioID, id int64, from, to Status, updates map[string]any) (bool, error)

	ListCommissions(ctx context.Context, studioID, periodID int64) ([]commission.EarnedCommission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *PayPeriod) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) Get(ctx context.Context, studioID, id int64) (*PayPeriod, error) {
	var p PayPeriod
	err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&p).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repository) List(ctx context.Context, studioID int64, status *Status) ([]PayPeriod, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []PayPeriod
	err := q.Order("start_date DESC").Find(&out).Error
	return out, err
}

func (r *repository) CountOverlapping(ctx context.Context, studioID int64, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&PayPeriod{}).
		Where("studio_id = ? AND start_date < ? AND end_date > ?", studioID, end, start).
		Count(&n).Error
	return n, err
}

// lockOpen loads the period under a row lock and requires it to be open.
func lockOpen(tx *gorm.DB, studioID, periodID int64) (*PayPeriod, error) {
	var p PayPeriod
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND studio_id = ?", periodID, studioID).
		First(&p).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != StatusOpen {
		return nil, apperr.Wrap(ErrNotOpen, apperr.KindInvalidState, "pay period %d is %s", p.ID, p.Status)
	}
	return &p, nil
}

// Assign attaches every commission to the period or none of them.
func (r *repository) Assign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error) {
	var assigned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpen(tx, studioID, periodID); err != nil {
			return err
		}

		var rows []commission.EarnedCommission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "pay_period_id").
			Where("studio_id = ? AND id IN ?", studioID, commissionIDs).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) != len(commissionIDs) {
			return apperr.Wrap(ErrCommissionNotFound, apperr.KindNotFound, "%d of %d commissions not found", len(commissionIDs)-len(rows), len(commissionIDs))
		}

		pending := make([]int64, 0, len(rows))
		for _, e := range rows {
			switch {
			case e.PayPeriodID == nil:
				pending = append(pending, e.ID)
			case *e.PayPeriodID != periodID:
				return apperr.Wrap(ErrAlreadyAssigned, apperr.KindAlreadyAssigned,
					"commission %d already belongs to pay period %d", e.ID, *e.PayPeriodID)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		res := tx.Model(&commission.EarnedCommission{}).
			Where("id IN ? AND pay_period_id IS NULL", pending).
			Update("pay_period_id", periodID)
		if res.Error != nil {
			return res.Error
		}
		// another writer claimed a row between the read and the update
		if res.RowsAffected != int64(len(pending)) {
			return apperr.Wrap(ErrAlreadyAssigned, apperr.KindAlreadyAssigned, "commissions were assigned concurrently")
		}
		assigned = res.RowsAffected
		return nil
	})
	return assigned, err
}

func (r *repository) Unassign(ctx context.Context, studioID, periodID int64, commissionIDs []int64) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpen(tx, studioID, periodID); err != nil {
			return err
		}
		res := tx.Model(&commission.EarnedCommission{}).
			Where("studio_id = ? AND pay_period_id = ? AND id IN ?", studioID, periodID, commissionIDs).
			Update("pay_period_id", nil)
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

func (r *repository) CollectEligible(ctx context.Context, studioID, periodID int64) (int64, error) {
	var assigned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockOpen(tx, studioID, periodID)
		if err != nil {
			return err
		}
		res := tx.Model(&commission.EarnedCommission{}).
			Where("studio_id = ? AND pay_period_id IS NULL AND earned_at >= ? AND earned_at < ?", studioID, p.StartDate, p.EndDate).
			Update("pay_period_id", periodID)
		assigned = res.RowsAffected
		return res.Error
	})
	return assigned, err
}

func (r *repository) Transition(ctx context.Context, studioID, id int64, from, to Status, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).Model(&PayPeriod{}).
		Where("id = ? AND studio_id = ? AND status = ?", id, studioID, from).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("pay period %d %s->%s: %w", id, from, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListCommissions(ctx context.Context, studioID, periodID int64) ([]commission.EarnedCommission, error) {
	var out []commission.EarnedCommission
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND pay_period_id = ?", studioID, periodID).
		Order("earned_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
