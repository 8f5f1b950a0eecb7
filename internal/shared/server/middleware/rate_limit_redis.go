package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quickapply-backend/internal/shared/telemetry"
)

// Fixed window counter. Returns {allowed, remaining window ms}.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return {0, redis.call("PTTL", KEYS[1])}
end
return {1, 0}
`

const redisLimiterTimeout = 250 * time.Millisecond

// RedisLimiter shares limits across API instances. A rule allows Burst
// requests per window of Burst/Rate seconds. Redis errors fail open.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	script *redis.Script
}

func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	if key == "" || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	window := time.Duration(float64(rule.Burst) / rule.Rate * float64(time.Second))
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisLimiterTimeout)
	defer cancel()
	res, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, rule.Burst).Int64Slice()
	if err != nil || len(res) != 2 {
		telemetry.Warn("ratelimit.redis_failed", map[string]any{"key": redisKey, "error": err})
		return true, 0
	}
	if res[0] == 1 {
		return true, 0
	}
	return false, time.Duration(res[1]) * time.Millisecond
}

var _ Limiter = (*RedisLimiter)(nil)
