package recipe

import (
	"context"
	"errors"
	"strings"

	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/pkg/common"

	"go.uber.org/zap"
)

// PhotoFallbackName 手寫食譜辨識不出名稱時使用
const PhotoFallbackName = "Recept z fotky"

// InstagramFallbackName 使用者已貼上說明文字但仍擷取不到名稱時使用
const InstagramFallbackName = "Nový recept z Instagramu"

// Catalog 匯入流程需要的目錄操作
type Catalog interface {
	Create(ctx context.Context, draft common.RecipeDraft) (*common.Recipe, error)
	AttachPhoto(ctx context.Context, id string, data []byte, contentType, ext string) (*common.Recipe, error)
}

// Importer 擷取後直接寫入目錄
type Importer struct {
	extractor *Extractor
	catalog   Catalog
}

// NewImporter 創建匯入器
func NewImporter(extractor *Extractor, catalog Catalog) *Importer {
	return &Importer{
		extractor: extractor,
		catalog:   catalog,
	}
}

// ImportInstagram 從貼文建立食譜
// 只有網址路徑擷取不到名稱時回傳 common.ErrManualEntryRequired；
// 提供 caption 時擷取失敗仍以 InstagramFallbackName 建立
func (i *Importer) ImportInstagram(ctx context.Context, postURL, caption string) (*common.Recipe, error) {
	postURL = strings.TrimSpace(postURL)
	if postURL == "" {
		return nil, common.NewValidationError("URL is required")
	}

	if strings.TrimSpace(caption) != "" {
		record, err := i.extractor.FromCaption(ctx, caption, "")
		if err != nil {
			common.LogWarn("說明文字擷取失敗，改用預設名稱", zap.String("url", postURL), zap.Error(err))
			record = Empty()
		}
		draft := DraftFrom(record, common.SourceInstagram)
		if draft.Name == "" {
			draft.Name = InstagramFallbackName
		}
		draft.SourceURL = &postURL
		return i.catalog.Create(ctx, draft)
	}

	record, err := i.extractor.FromInstagram(ctx, postURL)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Name == "" {
		return nil, common.ErrManualEntryRequired
	}

	draft := DraftFrom(record, common.SourceInstagram)
	draft.SourceURL = &postURL
	return i.catalog.Create(ctx, draft)
}

// ImportPhoto 從手寫食譜照片建立食譜，並在可用時保存原始照片
func (i *Importer) ImportPhoto(ctx context.Context, photo *image.Photo) (*common.Recipe, error) {
	record, err := i.extractor.FromHandwritten(ctx, photo)
	if err != nil {
		return nil, err
	}

	draft := DraftFrom(record, common.SourceHandwritten)
	if draft.Name == "" {
		draft.Name = PhotoFallbackName
	}
	created, err := i.catalog.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	// 照片上傳失敗不影響已建立的食譜
	updated, err := i.catalog.AttachPhoto(ctx, created.ID, photo.Data, photo.MimeType, photo.Extension())
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, common.ErrStorageDisabled):
		common.LogDebug("未設定物件儲存，略過照片上傳", zap.String("id", created.ID))
	default:
		common.LogWarn("照片上傳失敗", zap.String("id", created.ID), zap.Error(err))
	}
	return created, nil
}

// DraftFrom 將擷取結果轉為建立草稿
func DraftFrom(record *common.PartialExtraction, source common.SourceType) common.RecipeDraft {
	draft := common.RecipeDraft{
		Name:         record.Name,
		SourceType:   source,
		Ingredients:  record.Ingredients,
		Exclusions:   NormalizeAllergens(record.Exclusions),
		CookTime:     record.CookTime,
		Instructions: record.Instructions,
		Notes:        record.Notes,
		SourceImage:  common.StringPtr(record.ImageURL),
	}
	if record.Origin != nil {
		draft.Origin = NormalizeOrigin(*record.Origin)
	}
	return draft
}
