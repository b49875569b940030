package booking

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tattoostudio/internal/database"
)

type Repository interface {
	Create(ctx context.Context, b *BookingRequest) error
	Get(ctx context.Context, studioID, id int64) (*BookingRequest, error)
	GetByID(ctx context.Context, id int64) (*BookingRequest, error)
	List(ctx context.Context, studioID int64, f ListFilter) ([]BookingRequest, int64, error)
	Delete(ctx context.Context, studioID, id int64) error

	// UpdateIfStatus writes changes only while the stored status still equals
	// expected. It returns false when another writer got there first.
	UpdateIfStatus(ctx context.Context, id int64, expected Status, changes map[string]any) (bool, error)

	ListExpiredDeposits(ctx context.Context, now time.Time, limit int) ([]BookingRequest, error)
	MarkExpiryNotified(ctx context.Context, id int64, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) Create(ctx context.Context, b *BookingRequest) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) Get(ctx context.Context, studioID, id int64) (*BookingRequest, error) {
	var b BookingRequest
	err := r.db.WithContext(ctx).
		Preload("ReferenceImages", orderedImages).
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&b).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*BookingRequest, error) {
	var b BookingRequest
	err := r.db.WithContext(ctx).
		Preload("ReferenceImages", orderedImages).
		Where("id = ?", id).
		First(&b).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *repository) List(ctx context.Context, studioID int64, f ListFilter) ([]BookingRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&BookingRequest{}).Where("studio_id = ?", studioID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ArtistID != nil {
		q = q.Where("artist_id = ?", *f.ArtistID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []BookingRequest
	err := q.Preload("ReferenceImages", orderedImages).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&out).Error
	return out, total, err
}

func (r *repository) Delete(ctx context.Context, studioID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&BookingRequest{}).Where("id = ? AND studio_id = ?", id, studioID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := tx.Where("booking_request_id = ?", id).Delete(&ReferenceImage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND studio_id = ?", id, studioID).Delete(&BookingRequest{}).Error
	})
}

func (r *repository) UpdateIfStatus(ctx context.Context, id int64, expected Status, changes map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&BookingRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListExpiredDeposits returns unpaid deposit requests past their expiry that
// have not been reported yet.
func (r *repository) ListExpiredDeposits(ctx context.Context, now time.Time, limit int) ([]BookingRequest, error) {
	var out []BookingRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND deposit_request_expires_at <= ? AND deposit_expiry_notified_at IS NULL", StatusDepositRequested, now).
		Order("deposit_request_expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repository) MarkExpiryNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&BookingRequest{}).
		Where("id = ? AND status = ? AND deposit_request_expires_at <= ? AND deposit_expiry_notified_at IS NULL", id, StatusDepositRequested, at).
		Update("deposit_expiry_notified_at", at)
	return res.RowsAffected == 1, res.Error
}
