package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"regexp"
	"strings"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"recipe-catalog/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

const defaultMimeType = "image/jpeg"

var dataURLPrefix = regexp.MustCompile(`^data:(image/\w+);base64,`)

// Photo 解碼後的圖片
type Photo struct {
	Data     []byte
	MimeType string
	// Format 由內容偵測得到；無法偵測時為空
	Format string
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	client       *resty.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "image/*"),
	}
}

// DecodeBase64 解析 base64 圖片（可帶 data URL 前綴）
func (s *Service) DecodeBase64(input, mimeType string) (*Photo, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, common.NewValidationError("Missing image")
	}

	if m := dataURLPrefix.FindStringSubmatch(input); m != nil {
		if mimeType == "" {
			mimeType = m[1]
		}
		input = input[len(m[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		// 部分客戶端省略 padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(input, "="))
		if err != nil {
			return nil, common.NewValidationError("Invalid image encoding")
		}
	}
	return s.inspect(data, mimeType)
}

// FromBytes 檢查本機讀入的圖片（CLI 使用）
func (s *Service) FromBytes(data []byte, mimeType string) (*Photo, error) {
	return s.inspect(data, mimeType)
}

// Fetch 下載遠端圖片（貼文縮圖）
func (s *Service) Fetch(ctx context.Context, url string) (*Photo, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status code %d", resp.StatusCode())
	}

	mimeType := resp.Header().Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}
	return s.inspect(resp.Body(), mimeType)
}

// inspect 檢查大小並偵測格式；無法辨識的格式仍交給模型判斷
func (s *Service) inspect(data []byte, mimeType string) (*Photo, error) {
	if len(data) == 0 {
		return nil, common.NewValidationError("Missing image")
	}
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return nil, common.NewValidationError(fmt.Sprintf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes))
	}

	photo := &Photo{Data: data, MimeType: mimeType}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && isSupportedFormat(format) {
		photo.Format = format
		photo.MimeType = "image/" + format
	} else {
		common.LogDebug("無法偵測圖片格式", zap.String("mime", mimeType), zap.Int("size", len(data)))
	}
	if photo.MimeType == "" {
		photo.MimeType = defaultMimeType
	}
	return photo, nil
}

// Extension 依 MIME 類型回傳副檔名
func (p *Photo) Extension() string {
	switch p.MimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
