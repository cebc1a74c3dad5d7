package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/convgate/convgate/models"
	"github.com/convgate/convgate/utils"
)

// SlidingWindow admits at most max requests per client key within a moving
// window. This is a sliding-window counter, not a token bucket: burstiness at
// window boundaries is acceptable, long-term rate is not exceedable.
//
// When a Redis client is supplied the window lives in a sorted set keyed by
// client, so several gateway instances share one budget; without Redis (or
// when Redis errors) it falls back to per-process timestamp slices.
type SlidingWindow struct {
	max    int
	window time.Duration
	rdb    *redis.Client
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewSlidingWindow(max int, window time.Duration, rdb *redis.Client) *SlidingWindow {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &SlidingWindow{
		max:    max,
		window: window,
		rdb:    rdb,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Admit records a request for key and reports whether it is allowed.
func (l *SlidingWindow) Admit(key string) bool {
	if l.rdb != nil {
		if ok, err := l.admitRedis(key); err == nil {
			return ok
		}
	}
	return l.admitMemory(key)
}

func (l *SlidingWindow) admitMemory(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

func (l *SlidingWindow) admitRedis(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := l.now()
	rkey := "ratelimit:" + key
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", cutoff)
	card := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	if card.Val() >= int64(l.max) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	add := l.rdb.TxPipeline()
	add.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	add.Expire(ctx, rkey, l.window)
	if _, err := add.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RateLimit applies the per-client sliding window behind an optional global
// request ceiling. The client key follows gin's ClientIP resolution
// (forwarded-for header when trusted, else the socket address).
func RateLimit(limiter *SlidingWindow, global *rate.Limiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if global != nil && !global.Allow() {
			utils.Fail(ctx, http.StatusTooManyRequests, models.ErrRateLimited.Error())
			ctx.Abort()
			return
		}
		if !limiter.Admit(ctx.ClientIP()) {
			utils.Fail(ctx, http.StatusTooManyRequests, models.ErrRateLimited.Error())
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
