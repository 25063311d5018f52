package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/concord-chat/concord-server/internal/model"
)

// RedisCache is the fast tier of the user repository. Entries carry no
// TTL: reconciliation with the durable store relies on writes and
// explicit deletes, not expiry.
type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client}
}

func refreshTokenKey(userID int64) string {
	return fmt.Sprintf("user:%d:refresh_token", userID)
}

func passwordHashKey(userID int64) string {
	return fmt.Sprintf("user:%d:password_hash", userID)
}

func saltKey(userID int64) string {
	return fmt.Sprintf("user:%d:salt", userID)
}

func emailKey(email string) string {
	return fmt.Sprintf("email:%s:id", email)
}

func (c *RedisCache) RefreshToken(ctx context.Context, userID int64) (string, error) {
	return c.get(ctx, refreshTokenKey(userID))
}

func (c *RedisCache) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	return c.set(ctx, refreshTokenKey(userID), token)
}

func (c *RedisCache) DeleteRefreshToken(ctx context.Context, userID int64) error {
	return c.del(ctx, refreshTokenKey(userID))
}

// Credentials returns the cached hash and salt. Both entries must be
// present for a hit; a partial entry counts as a miss.
func (c *RedisCache) Credentials(ctx context.Context, userID int64) (model.Credentials, error) {
	hash, err := c.get(ctx, passwordHashKey(userID))
	if err != nil {
		return model.Credentials{}, err
	}
	salt, err := c.get(ctx, saltKey(userID))
	if err != nil {
		return model.Credentials{}, err
	}
	return model.Credentials{PasswordHash: hash, Salt: salt}, nil
}

func (c *RedisCache) SetCredentials(ctx context.Context, userID int64, creds model.Credentials) error {
	if err := c.set(ctx, saltKey(userID), creds.Salt); err != nil {
		return err
	}
	return c.set(ctx, passwordHashKey(userID), creds.PasswordHash)
}

func (c *RedisCache) DeleteCredentials(ctx context.Context, userID int64) error {
	if err := c.del(ctx, passwordHashKey(userID)); err != nil {
		return err
	}
	return c.del(ctx, saltKey(userID))
}

func (c *RedisCache) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	raw, err := c.get(ctx, emailKey(email))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt id for email %q: %v", ErrCache, email, err)
	}
	return id, nil
}

func (c *RedisCache) SetUserIDByEmail(ctx context.Context, email string, userID int64) error {
	return c.set(ctx, emailKey(email), strconv.FormatInt(userID, 10))
}

func (c *RedisCache) DeleteEmail(ctx context.Context, email string) error {
	return c.del(ctx, emailKey(email))
}

func (c *RedisCache) get(ctx context.Context, key string) (string, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("%w: %v", ErrCache, err)
	}
	return val, nil
}

func (c *RedisCache) set(ctx context.Context, key, value string) error {
	if err := c.redis.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}

func (c *RedisCache) del(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}
