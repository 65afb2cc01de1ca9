// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

const (
	jtiKeyPrefix    = "auth:denied:jti:"
	cutoffKeyPrefix = "auth:denied:before:"
)

// denylist holds access tokens that were revoked before they expired. An
// entry never outlives the longest access token it can match. A nil
// client turns every method into a no-op.
type denylist struct {
	rdb *redis.Client
}

func cutoffKey(userID int64) string {
	return cutoffKeyPrefix + strconv.FormatInt(userID, 10)
}

func (d denylist) denyToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if d.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}

	if err := d.rdb.Set(ctx, jtiKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("deny access token: %w", err)
	}
	return nil
}

// denyUserBefore rejects every access token of userID issued before at.
func (d denylist) denyUserBefore(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	if d.rdb == nil {
		return nil
	}

	if err := d.rdb.Set(ctx, cutoffKey(userID), at.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("deny user tokens: %w", err)
	}
	return nil
}

// check looks up both entries for claims in a single round trip.
func (d denylist) check(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if d.rdb == nil {
		return nil
	}

	pipe := d.rdb.Pipeline()
	denied := pipe.Exists(ctx, jtiKeyPrefix+claims.JTI)
	cutoff := pipe.Get(ctx, cutoffKey(claims.UserID))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check denylist: %w", err)
	}

	if claims.JTI != "" && denied.Val() > 0 {
		return fmt.Errorf("access token denied: %w", core.ErrTokenRevoked)
	}

	before, err := cutoff.Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("check denylist: %w", err)
	case claims.IssuedAt.Unix() < before:
		return fmt.Errorf("access token denied: %w", core.ErrTokenRevoked)
	}
	return nil
}
