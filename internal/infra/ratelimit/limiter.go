package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// 上限を超えた
	ErrRateLimited = errors.New("rate limit exceeded")
	// Redisに届かない（呼び出し側は通す）
	ErrRedisUnavailable = errors.New("rate limiter backend unavailable")
)

// Rule は固定ウィンドウの上限。
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Decision はレスポンスヘッダ用。
type Decision struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter はRedisのINCR+EXPIREで数える固定ウィンドウのレート制限。
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *Limiter {
	return &Limiter{redis: client, prefix: "ratelimit"}
}

// Allow はkeyのカウンタを1つ進め、上限を超えていたらErrRateLimitedを返す。
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) (Decision, error) {
	d := Decision{Limit: rule.Limit}
	k := fmt.Sprintf("%s:%s:%s", l.prefix, rule.Name, key)

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	//ウィンドウの最初の1回だけTTLを付ける
	if count == 1 {
		if err := l.redis.Expire(ctx, k, rule.Window).Err(); err != nil {
			return d, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	d.Remaining = remaining

	if count <= int64(rule.Limit) {
		return d, nil
	}

	ttl, err := l.redis.TTL(ctx, k).Result()
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		//EXPIREが落ちていたキーは付け直す
		if err := l.redis.Expire(ctx, k, rule.Window).Err(); err != nil {
			return d, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		ttl = rule.Window
	}
	d.RetryAfter = ttl
	return d, ErrRateLimited
}
