package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestAllow_UnderLimit(t *testing.T) {
	l, _ := newTestLimiter(t)
	rule := Rule{Name: "auth", Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := l.Allow(context.Background(), rule, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}
}

func TestAllow_OverLimit(t *testing.T) {
	l, _ := newTestLimiter(t)
	rule := Rule{Name: "auth", Limit: 2, Window: time.Minute}
	ctx := context.Background()

	_, _ = l.Allow(ctx, rule, "ip")
	_, _ = l.Allow(ctx, rule, "ip")
	d, err := l.Allow(ctx, rule, "ip")

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestAllow_WindowResets(t *testing.T) {
	l, mr := newTestLimiter(t)
	rule := Rule{Name: "api", Limit: 1, Window: time.Minute}
	ctx := context.Background()

	_, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	_, err = l.Allow(ctx, rule, "ip")
	require.ErrorIs(t, err, ErrRateLimited)

	mr.FastForward(61 * time.Second)

	_, err = l.Allow(ctx, rule, "ip")
	assert.NoError(t, err)
}

func TestAllow_KeysAndRulesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()
	auth := Rule{Name: "auth", Limit: 1, Window: time.Minute}
	api := Rule{Name: "api", Limit: 1, Window: time.Minute}

	_, err := l.Allow(ctx, auth, "a")
	require.NoError(t, err)

	_, err = l.Allow(ctx, auth, "b")
	assert.NoError(t, err)
	_, err = l.Allow(ctx, api, "a")
	assert.NoError(t, err)
}

func TestAllow_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.Allow(context.Background(), Rule{Name: "api", Limit: 1, Window: time.Minute}, "ip")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}
