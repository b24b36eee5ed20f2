package provider

import (
	"context"
)

// Role 模型用途
type Role string

const (
	RoleText   Role = "text"
	RoleVision Role = "vision"
	RoleOCR    Role = "ocr"
)

// TextAnalyzer 對純文字 prompt 產生模型回應
type TextAnalyzer interface {
	// AnalyzeText 回傳模型的原始文字輸出
	AnalyzeText(ctx context.Context, prompt string) (string, error)
}

// ImageAnalyzer 對圖片加上 prompt 產生模型回應
type ImageAnalyzer interface {
	// AnalyzeImage 將圖片以內嵌附件送出
	AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
}

// Analyzer 同時支援文字與圖片的提供者
type Analyzer interface {
	TextAnalyzer
	ImageAnalyzer

	// Name 提供者名稱（日誌與快取鍵使用）
	Name() string
}
