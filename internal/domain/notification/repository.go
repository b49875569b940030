package notification

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tattoostudio/internal/database"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	Get(ctx context.Context, studioID, id int64) (*Event, error)
	List(ctx context.Context, studioID int64, f ListFilter) ([]Event, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, at time.Time, reason string) error
	DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) Get(ctx context.Context, studioID, id int64) (*Event, error) {
	var e Event
	err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&e).Error
	if database.IsNotFound(err) {
		return nil, ErrEventNotFound
	}
	return &e, err
}

func (r *repository) List(ctx context.Context, studioID int64, f ListFilter) ([]Event, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.FailedOnly {
		q = q.Where("published_at IS NULL AND failed_at IS NOT NULL")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Event
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *repository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(map[string]any{
		"published_at": at,
		"attempts":     gorm.Expr("attempts + 1"),
		"last_error":   "",
	}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id int64, at time.Time, reason string) error {
	if len(reason) > 500 {
		reason = reason[:500]
	}
	return r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(map[string]any{
		"failed_at":  at,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}).Error
}

// DeletePublishedBefore prunes delivered log entries. Failed entries are kept
// until someone retries or inspects them.
func (r *repository) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND created_at < ?", before).
		Delete(&Event{})
	return res.RowsAffected, res.Error
}
