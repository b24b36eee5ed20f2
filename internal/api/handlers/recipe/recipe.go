package recipe

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"recipe-catalog/internal/api/middleware"
	"recipe-catalog/internal/core/catalog"
	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog 食譜目錄操作
type Catalog interface {
	List(ctx context.Context, filters common.ListFilters, clientID string) ([]*common.Recipe, error)
	Get(ctx context.Context, id, clientID string) (*common.Recipe, error)
	MarkSeen(ctx context.Context, id, clientID string) error
	Create(ctx context.Context, draft common.RecipeDraft) (*common.Recipe, error)
	Update(ctx context.Context, id string, patch common.RecipePatch) (*common.Recipe, error)
	Delete(ctx context.Context, id string) error
	ScheduleDelete(ctx context.Context, id string) (*catalog.PendingDelete, error)
	Restore(ctx context.Context, id string) (*common.Recipe, error)
	AttachPhoto(ctx context.Context, id string, data []byte, contentType, ext string) (*common.Recipe, error)
}

// Importer 匯入流程
type Importer interface {
	ImportInstagram(ctx context.Context, postURL, caption string) (*common.Recipe, error)
	ImportPhoto(ctx context.Context, photo *image.Photo) (*common.Recipe, error)
}

// PhotoDecoder 解析上傳的 base64 圖片
type PhotoDecoder interface {
	DecodeBase64(input, mimeType string) (*image.Photo, error)
}

// ImportInstagramRequest 匯入貼文請求；caption 可選
type ImportInstagramRequest struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// PhotoRequest 照片上傳請求
type PhotoRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType,omitempty"`
}

// NeedsCaptionResponse 擷取不到名稱時的回應，前端改為手動輸入說明文字
type NeedsCaptionResponse struct {
	Error        string `json:"error"`
	Code         string `json:"code"`
	NeedsCaption bool   `json:"needsCaption"`
}

// Handler 食譜處理程序
type Handler struct {
	catalog  Catalog
	importer Importer
	photos   PhotoDecoder
}

// NewHandler 創建新的食譜處理程序
func NewHandler(catalog Catalog, importer Importer, photos PhotoDecoder) *Handler {
	return &Handler{
		catalog:  catalog,
		importer: importer,
		photos:   photos,
	}
}

// HandleList GET /api/recipes
func (h *Handler) HandleList(c *gin.Context) {
	filters := common.ListFilters{
		Search:         strings.TrimSpace(c.Query("search")),
		Origin:         strings.TrimSpace(c.Query("origin")),
		Exclusions:     splitQuery(c.QueryArray("exclusions")),
		KeyIngredients: splitQuery(c.QueryArray("key")),
	}

	recipes, err := h.catalog.List(c.Request.Context(), filters, clientID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// HandleGet GET /api/recipes/:id
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.catalog.Get(c.Request.Context(), c.Param("id"), clientID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleCreate POST /api/recipes
func (h *Handler) HandleCreate(c *gin.Context) {
	var draft common.RecipeDraft
	if !bindJSON(c, &draft) {
		return
	}

	r, err := h.catalog.Create(c.Request.Context(), draft)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// HandleUpdate PUT /api/recipes/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	var patch common.RecipePatch
	if !bindJSON(c, &patch) {
		return
	}

	r, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleDelete DELETE /api/recipes/:id
// ?deferred=true 時回 202 並在寬限時間後才真正刪除
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")
	deferred, _ := strconv.ParseBool(c.DefaultQuery("deferred", "false"))

	if deferred {
		pending, err := h.catalog.ScheduleDelete(c.Request.Context(), id)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, pending)
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleRestore POST /api/recipes/:id/restore
func (h *Handler) HandleRestore(c *gin.Context) {
	r, err := h.catalog.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleSeen POST /api/recipes/:id/seen
func (h *Handler) HandleSeen(c *gin.Context) {
	if err := h.catalog.MarkSeen(c.Request.Context(), c.Param("id"), clientID(c)); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandlePhoto POST /api/recipes/:id/photo
func (h *Handler) HandlePhoto(c *gin.Context) {
	var req PhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	photo, err := h.photos.DecodeBase64(req.Image, req.MimeType)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	r, err := h.catalog.AttachPhoto(c.Request.Context(), c.Param("id"), photo.Data, photo.MimeType, photo.Extension())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleImportInstagram POST /api/import/instagram
func (h *Handler) HandleImportInstagram(c *gin.Context) {
	var req ImportInstagramRequest
	if !bindJSON(c, &req) {
		return
	}

	common.LogInfo("開始匯入 Instagram 食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("url", req.URL),
		zap.Bool("with_caption", strings.TrimSpace(req.Caption) != ""),
	)

	r, err := h.importer.ImportInstagram(c.Request.Context(), req.URL, req.Caption)
	if errors.Is(err, common.ErrManualEntryRequired) {
		c.JSON(http.StatusUnprocessableEntity, NeedsCaptionResponse{
			Error:        "Could not extract recipe name, please paste the caption",
			Code:         common.ErrCodeUnprocessable,
			NeedsCaption: true,
		})
		return
	}
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// HandleImportPhoto POST /api/import/photo
func (h *Handler) HandleImportPhoto(c *gin.Context) {
	var req PhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	photo, err := h.photos.DecodeBase64(req.Image, req.MimeType)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("開始匯入手寫食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("mime", photo.MimeType),
		zap.Int("size", len(photo.Data)),
	)

	r, err := h.importer.ImportPhoto(c.Request.Context(), photo)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func clientID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(middleware.ClientIDHeader))
}

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
