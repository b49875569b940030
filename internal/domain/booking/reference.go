package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const referencePrefix = "TS"

// RedisReferenceGenerator hands out per-studio daily sequences:
// TS-260315-004K7 is the fourth request of the day plus two random chars.
type RedisReferenceGenerator struct {
	rdb      redis.Cmdable
	fallback ReferenceGenerator
	log      *zap.Logger
	now      func() time.Time
}

func NewRedisReferenceGenerator(rdb redis.Cmdable, fallback ReferenceGenerator, log *zap.Logger) *RedisReferenceGenerator {
	return &RedisReferenceGenerator{rdb: rdb, fallback: fallback, log: log, now: time.Now}
}

func (g *RedisReferenceGenerator) Next(ctx context.Context, studioID int64) (string, error) {
	now := g.now().UTC()
	day := now.Format("060102")
	key := fmt.Sprintf("seq:booking:%d:%s", studioID, day)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		if g.fallback == nil {
			return "", err
		}
		g.log.Warn("redis sequence unavailable, using fallback", zap.Error(err))
		return g.fallback.Next(ctx, studioID)
	}
	if seq == 1 {
		endOfDay := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		_ = g.rdb.ExpireAt(ctx, key, endOfDay).Err()
	}

	suffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}
	return formatDailyCode(day, seq, suffix), nil
}

func formatDailyCode(day string, seq int64, suffix string) string {
	encoded := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(encoded) < 3 {
		encoded = strings.Repeat("0", 3-len(encoded)) + encoded
	}
	return fmt.Sprintf("%s-%s-%s%s", referencePrefix, day, encoded, suffix)
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}

// SnowflakeReferenceGenerator needs no shared state beyond a node id, so it
// serves single-node deployments and the Redis fallback.
type SnowflakeReferenceGenerator struct {
	node *snowflake.Node
}

func NewSnowflakeReferenceGenerator(nodeID int64) (*SnowflakeReferenceGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeReferenceGenerator{node: node}, nil
}

func (g *SnowflakeReferenceGenerator) Next(_ context.Context, _ int64) (string, error) {
	return referencePrefix + "-" + strings.ToUpper(g.node.Generate().Base36()), nil
}
