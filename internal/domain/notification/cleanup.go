package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupService prunes the dispatch log.
type CleanupService struct {
	repo Repository
	log  *zap.Logger
}

func NewCleanupService(repo Repository, log *zap.Logger) *CleanupService {
	return &CleanupService{repo: repo, log: log}
}

// PrunePublished removes delivered events older than keep.
func (c *CleanupService) PrunePublished(ctx context.Context, now time.Time, keep time.Duration) (int64, error) {
	start := time.Now()
	deleted, err := c.repo.DeletePublishedBefore(ctx, now.Add(-keep))
	if err != nil {
		c.log.Error("notification log cleanup failed", zap.Error(err))
		return 0, err
	}
	c.log.Info("notification log cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Duration("took", time.Since(start)))
	return deleted, nil
}
