package openrouter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter API 客戶端
type Client struct {
	config *config.OpenRouterConfig
	client *resty.Client
}

// Message 消息結構
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart 文字或圖片內容
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片 URL 結構
type ImageURL struct {
	URL string `json:"url"`
}

// Request 表示 API 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg *config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-catalog.local").
		SetHeader("X-Title", "Recipe Catalog")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Name 提供者名稱
func (c *Client) Name() string {
	return "openrouter"
}

// AnalyzeText 送出純文字 prompt
func (c *Client) AnalyzeText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []ContentPart{{Type: "text", Text: prompt}})
}

// AnalyzeImage 以 data URL 內嵌圖片
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	url := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return c.generate(ctx, []ContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &ImageURL{URL: url}},
	})
}

func (c *Client) generate(ctx context.Context, parts []ContentPart) (string, error) {
	if c.config.APIKey == "" {
		return "", common.ErrProviderDisabled
	}

	req := Request{
		Model:       c.config.Model,
		Messages:    []Message{{Role: "user", Content: parts}},
		MaxTokens:   c.config.MaxTokens,
		Temperature: 0,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.Int("parts", len(parts)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned error (status %d): %s", resp.StatusCode(), common.Truncate(resp.String(), 300))
	}

	// 解析回應
	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty content in OpenRouter response")
	}
	return content, nil
}
