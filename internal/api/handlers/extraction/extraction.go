package extraction

import (
	"context"
	"net/http"
	"strings"

	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Extractor 擷取流程
type Extractor interface {
	FromCaption(ctx context.Context, caption, author string) (*common.PartialExtraction, error)
	FromInstagram(ctx context.Context, postURL string) (*common.PartialExtraction, error)
	FromHandwritten(ctx context.Context, photo *image.Photo) (*common.PartialExtraction, error)
}

// PhotoDecoder 解析上傳的 base64 圖片
type PhotoDecoder interface {
	DecodeBase64(input, mimeType string) (*image.Photo, error)
}

// CaptionRequest 說明文字擷取請求
type CaptionRequest struct {
	Caption string `json:"caption"`
	Author  string `json:"author,omitempty"`
}

// InstagramRequest 貼文擷取請求
type InstagramRequest struct {
	URL string `json:"url"`
}

// ImageRequest 照片擷取請求
type ImageRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType,omitempty"`
}

// InstagramResponse 貼文擷取結果；imageUrl 沒有縮圖時為 null
type InstagramResponse struct {
	*common.PartialExtraction
	ImageURL *string `json:"imageUrl"`
}

// Handler 擷取端點處理器
type Handler struct {
	extractor Extractor
	photos    PhotoDecoder
}

// NewHandler 創建擷取處理器
func NewHandler(extractor Extractor, photos PhotoDecoder) *Handler {
	return &Handler{
		extractor: extractor,
		photos:    photos,
	}
}

// HandleCaption POST /api/caption
func (h *Handler) HandleCaption(c *gin.Context) {
	var req CaptionRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Caption) == "" {
		common.RespondError(c, common.NewValidationError("Caption is required"))
		return
	}

	common.LogInfo("開始擷取說明文字",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("caption_length", len(req.Caption)),
	)

	record, err := h.extractor.FromCaption(c.Request.Context(), req.Caption, req.Author)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// HandleInstagram POST /api/instagram
// 擷取失敗時仍回 200 與空白結果
func (h *Handler) HandleInstagram(c *gin.Context) {
	var req InstagramRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		common.RespondError(c, common.NewValidationError("URL is required"))
		return
	}

	common.LogInfo("開始擷取 Instagram 貼文",
		zap.String("request_id", requestid.Get(c)),
		zap.String("url", req.URL),
	)

	record, err := h.extractor.FromInstagram(c.Request.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, InstagramResponse{
		PartialExtraction: record,
		ImageURL:          common.StringPtr(record.ImageURL),
	})
}

// HandleOCR POST /api/ocr
func (h *Handler) HandleOCR(c *gin.Context) {
	var req ImageRequest
	if !bindJSON(c, &req) {
		return
	}
	photo, err := h.photos.DecodeBase64(req.Image, req.MimeType)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("開始辨識手寫食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("mime", photo.MimeType),
		zap.Int("size", len(photo.Data)),
	)

	record, err := h.extractor.FromHandwritten(c.Request.Context(), photo)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// bindJSON 解析請求體；空白或格式錯誤時回 400
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		common.RespondError(c, common.NewValidationError("Invalid request format"))
		return false
	}
	return true
}
