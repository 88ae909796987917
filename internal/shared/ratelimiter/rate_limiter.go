// Package ratelimiter はキー（端末ID）ごとのトークンバケット型レートリミッターを提供します。
package ratelimiter

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"fingerprint_access/internal/api"
)

const (
	DefaultRPS   = 2.0
	DefaultBurst = 5

	// idleTTL を過ぎて使われていないキーのリミッターは破棄します。
	idleTTL = 10 * time.Minute
)

// Config はレート制限の設定です。RPSが0以下の場合は制限しません。
type Config struct {
	RPS   float64
	Burst int
}

// LoadConfig は環境変数 RATE_LIMIT_RPS, RATE_LIMIT_BURST から設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{RPS: DefaultRPS, Burst: DefaultBurst}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RPS = f
		} else {
			slog.Warn("invalid RATE_LIMIT_RPS, using default", "value", v)
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Burst = n
		} else {
			slog.Warn("invalid RATE_LIMIT_BURST, using default", "value", v)
		}
	}
	return cfg
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter はキーごとにrate.Limiterを保持します。
type KeyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewKeyedLimiter はKeyedLimiterの新しいインスタンスを生成します。
func NewKeyedLimiter(cfg Config) *KeyedLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	return &KeyedLimiter{
		limiters:  make(map[string]*limiterEntry),
		limit:     rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// Allow はkeyのリクエストを今受け付けてよいかを返します。
func (l *KeyedLimiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= idleTTL {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep は使われていないリミッターを削除します。l.muを保持して呼び出すこと。
func (l *KeyedLimiter) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) >= idleTTL {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// Middleware はkeyFuncで得たキーごとにレート制限するGinミドルウェアを返します。
// 上限を超えたリクエストは429で拒否します。
func Middleware(l *KeyedLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			slog.Warn("rate limit exceeded", "key", key)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "リクエストが多すぎます"})
			return
		}
		c.Next()
	}
}
