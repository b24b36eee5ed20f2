package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-catalog/internal/pkg/common"
)

// Deduplicator 擋下短時間內重複送出的相同 POST（重複點擊匯入）
type Deduplicator struct {
	window time.Duration

	mu       sync.Mutex
	requests map[string]time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewDeduplicator 創建去重器並啟動清理協程
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
	go d.cleanup(10 * window)
	return d
}

func (d *Deduplicator) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			d.mu.Lock()
			for k, t := range d.requests {
				if now.Sub(t) > d.window {
					delete(d.requests, k)
				}
			}
			d.mu.Unlock()
		case <-d.stop:
			return
		}
	}
}

// Close 停止清理協程
func (d *Deduplicator) Close() {
	d.once.Do(func() { close(d.stop) })
}

// Middleware 請求去重中間件，只處理 POST
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
					Error: "Request body too large",
					Code:  common.ErrCodeTooLarge,
				})
				return
			}
			bodyHash = common.HashBytes(body)

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := common.HashKey(c.ClientIP(), c.Request.URL.Path, bodyHash)

		now := time.Now()
		d.mu.Lock()
		last, exists := d.requests[fingerprint]
		duplicate := exists && now.Sub(last) <= d.window
		if !duplicate {
			d.requests[fingerprint] = now
		}
		d.mu.Unlock()

		if duplicate {
			common.LogWarn("重複請求已擋下",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Error: "Request too frequent",
				Code:  common.ErrCodeTooManyRequests,
			})
			return
		}

		c.Next()

		// 上游失敗時允許立即重試
		if c.Writer.Status() >= http.StatusInternalServerError {
			d.forget(fingerprint, now)
		}
	}
}

// forget 移除指紋；期間已有較新的請求時保留
func (d *Deduplicator) forget(fingerprint string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.requests[fingerprint]; ok && t.Equal(at) {
		delete(d.requests, fingerprint)
	}
}
