package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedPrefix   = "revoked:"
	streamDecisions = "dupelab.decisions"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// RevokeToken denylists a JWT until its natural expiry.
func RevokeToken(ctx context.Context, rdb *redis.Client, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, revokedPrefix+token, "1", ttl).Err()
}

func IsTokenRevoked(ctx context.Context, rdb *redis.Client, token string) bool {
	n, err := rdb.Exists(ctx, revokedPrefix+token).Result()
	return err == nil && n > 0
}

// PublishDecision emits a proposal decision onto the notification stream.
func PublishDecision(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamDecisions,
		Values: payload,
	}).Result()
	return err
}
