package gemini

import (
	"context"
	"fmt"
	"strings"

	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Client Gemini 客戶端
type Client struct {
	config *config.GeminiConfig
	client *genai.Client
}

// NewClient 創建 Gemini 客戶端；未設定 API key 時回傳停用的客戶端
func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	c := &Client{config: cfg}
	if cfg.APIKey == "" {
		common.LogWarn("Gemini API key 未設定，提供者停用")
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.client = client
	return c, nil
}

// Name 提供者名稱
func (c *Client) Name() string {
	return "gemini"
}

// AnalyzeText 送出純文字 prompt
func (c *Client) AnalyzeText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []*genai.Part{genai.NewPartFromText(prompt)})
}

// AnalyzeImage 以內嵌資料送出圖片
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return c.generate(ctx, []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	})
}

func (c *Client) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	if c.client == nil {
		return "", common.ErrProviderDisabled
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}

	common.LogDebug("Sending request to Gemini",
		zap.String("model", c.config.Model),
		zap.Int("parts", len(parts)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty content in Gemini response")
	}
	return text, nil
}
