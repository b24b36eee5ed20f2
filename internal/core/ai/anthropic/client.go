package anthropic

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

const apiVersion = "2023-06-01"

// Client Anthropic Messages API 客戶端
type Client struct {
	config *config.AnthropicConfig
	client *resty.Client
}

// Source 內嵌圖片來源
type Source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ContentBlock 文字或圖片區塊
type ContentBlock struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Source *Source `json:"source,omitempty"`
}

// Message 消息結構
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Request Messages API 請求
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Response Messages API 回應
type Response struct {
	ID         string         `json:"id"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// errorResponse API 錯誤
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient 創建新的 Anthropic 客戶端
func NewClient(cfg *config.AnthropicConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("Content-Type", "application/json")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Name 提供者名稱
func (c *Client) Name() string {
	return "anthropic"
}

// AnalyzeText 送出純文字 prompt
func (c *Client) AnalyzeText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []ContentBlock{{Type: "text", Text: prompt}})
}

// AnalyzeImage 圖片在前、prompt 在後
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return c.generate(ctx, []ContentBlock{
		{
			Type: "image",
			Source: &Source{
				Type:      "base64",
				MediaType: mimeType,
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		},
		{Type: "text", Text: prompt},
	})
}

func (c *Client) generate(ctx context.Context, blocks []ContentBlock) (string, error) {
	if c.config.APIKey == "" {
		return "", common.ErrProviderDisabled
	}

	req := Request{
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
		Messages:  []Message{{Role: "user", Content: blocks}},
	}

	common.LogDebug("Sending request to Anthropic",
		zap.String("model", req.Model),
		zap.Int("blocks", len(blocks)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("failed to send request to Anthropic: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("Anthropic API error (status %d): %s: %s", resp.StatusCode(), apiErr.Error.Type, apiErr.Error.Message)
		}
		return "", fmt.Errorf("Anthropic API error (status %d): %s", resp.StatusCode(), common.Truncate(resp.String(), 300))
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty content in Anthropic response")
	}
	return sb.String(), nil
}
