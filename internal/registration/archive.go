package registration

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"registration/internal/constants"
	pkgerrors "registration/pkg/errors"
)

// ObjectArchive keeps the exact raw request body as a forensic copy,
// independent of the structured record. Key collisions imply same-instant
// duplicate steps and are overwritten.
type ObjectArchive interface {
	Put(ctx context.Context, key string, body []byte) error
}

type RedisObjectArchive struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisObjectArchive(client *redis.Client, ttlSeconds int) *RedisObjectArchive {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &RedisObjectArchive{client: client, ttl: ttl}
}

func (a *RedisObjectArchive) Put(ctx context.Context, key string, body []byte) error {
	if err := a.client.Set(ctx, constants.ArchiveKeyPrefix+key, body, a.ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrArchive).WithDetail("key", key)
	}
	return nil
}
