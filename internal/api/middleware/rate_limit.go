package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipe-catalog/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	// 添加新令牌
	rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// RateLimit 依客戶端 IP 限流的中間件（保護模型呼叫）
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*RateLimiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = NewRateLimiter(requests, window)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			common.LogWarn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Error: "Too many requests",
				Code:  common.ErrCodeTooManyRequests,
			})
			return
		}

		c.Next()
	}
}
