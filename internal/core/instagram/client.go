package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// Post 貼文的公開中繼資料；任何欄位都可能為空
type Post struct {
	URL          string `json:"url"`
	Caption      string `json:"caption"`
	Author       string `json:"author"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Empty 沒有說明文字也沒有縮圖
func (p *Post) Empty() bool {
	return p.Caption == "" && p.ThumbnailURL == ""
}

// oEmbedResponse oEmbed 回應
type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Client Instagram 貼文解析
type Client struct {
	config *config.InstagramConfig
	client *resty.Client
}

// NewClient 創建 Instagram 客戶端
func NewClient(cfg *config.InstagramConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Language", "cs,en;q=0.8")

	return &Client{
		config: cfg,
		client: client,
	}
}

// ValidateURL 檢查貼文網址
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, common.NewValidationError("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, common.NewValidationError("URL must be an absolute http(s) URL")
	}
	return u, nil
}

// Resolve 先查 oEmbed，沒有結果再抓取頁面 HTML
// 兩者皆失敗時回傳空的 Post，不回傳錯誤
func (c *Client) Resolve(ctx context.Context, postURL string) (*Post, error) {
	u, err := ValidateURL(postURL)
	if err != nil {
		return nil, err
	}
	postURL = u.String()

	post, err := c.oEmbed(ctx, postURL)
	if err != nil {
		common.LogWarn("oEmbed 查詢失敗，改抓取頁面", zap.String("url", postURL), zap.Error(err))
	} else if !post.Empty() {
		return post, nil
	}

	scraped, err := c.scrape(ctx, u)
	if err != nil {
		common.LogWarn("頁面抓取失敗", zap.String("url", postURL), zap.Error(err))
		return &Post{URL: postURL}, nil
	}
	return scraped, nil
}

func (c *Client) oEmbed(ctx context.Context, postURL string) (*Post, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("url", postURL).
		Get(c.config.OEmbedURL)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("oembed returned status %d", resp.StatusCode())
	}

	var data oEmbedResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}
	return &Post{
		URL:          postURL,
		Caption:      strings.TrimSpace(data.Title),
		Author:       strings.TrimSpace(data.AuthorName),
		ThumbnailURL: strings.TrimSpace(data.ThumbnailURL),
	}, nil
}

func (c *Client) scrape(ctx context.Context, u *url.URL) (*Post, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("page request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode())
	}
	body := resp.Body()
	if c.config.MaxBytes > 0 && int64(len(body)) > c.config.MaxBytes {
		return nil, fmt.Errorf("page exceeds %d bytes", c.config.MaxBytes)
	}

	post, err := ParseMeta(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	post.URL = u.String()

	if post.Empty() && post.Title == "" {
		fromArticle(post, body, u)
	}
	return post, nil
}

// fromArticle 頁面沒有 meta 標籤時，以 readability 擷取摘要與主圖
func fromArticle(post *Post, body []byte, u *url.URL) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		common.LogDebug("readability 擷取失敗", zap.String("url", u.String()), zap.Error(err))
		return
	}
	post.Title = strings.TrimSpace(article.Title)
	post.Caption = DecodeEntities(strings.TrimSpace(article.Excerpt))
	if post.Caption == "" {
		post.Caption = strings.TrimSpace(article.TextContent)
	}
	post.ThumbnailURL = strings.TrimSpace(article.Image)
}
