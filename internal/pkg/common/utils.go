package common

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// HashKey 將多個片段組合為固定長度的快取鍵
func HashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashBytes 計算資料的 sha256
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Truncate 截斷過長字串（日誌用）
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StringPtr 回傳字串指標；空字串回傳 nil
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// RespondError 依錯誤類型寫入 JSON 錯誤響應
func RespondError(c *gin.Context, err error) {
	status, code := HTTPStatus(err)
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  code,
	}
	var custom *CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		resp.Error = custom.Message
		if custom.Err != nil {
			resp.Details = custom.Err.Error()
		}
	}
	if IsUpstreamError(err) {
		resp.Error = "Failed to extract recipe"
		resp.Details = err.Error()
	}
	if status >= 500 {
		LogError("請求處理失敗", zap.Error(err), zap.String("code", code))
	}
	c.AbortWithStatusJSON(status, resp)
}
