package recipe

import (
	"context"
	"strings"

	"recipe-catalog/internal/core/ai/provider"
	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/core/instagram"
	"recipe-catalog/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ManualFixNote OCR 結果無法解析時附上的提示
const ManualFixNote = "Automaticka extrakce selhala - prosim upravte rucne"

// PostResolver 取得貼文的說明文字與縮圖
type PostResolver interface {
	Resolve(ctx context.Context, postURL string) (*instagram.Post, error)
}

// ImageFetcher 下載遠端圖片
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*image.Photo, error)
}

// Extractor 呼叫模型並將回應轉為擷取結果
type Extractor struct {
	text   provider.TextAnalyzer
	vision provider.ImageAnalyzer
	ocr    provider.ImageAnalyzer
	posts  PostResolver
	images ImageFetcher
}

// NewExtractor 創建擷取器
func NewExtractor(text provider.TextAnalyzer, vision, ocr provider.ImageAnalyzer, posts PostResolver, images ImageFetcher) *Extractor {
	return &Extractor{
		text:   text,
		vision: vision,
		ocr:    ocr,
		posts:  posts,
		images: images,
	}
}

// FromCaption 從貼文說明文字擷取食譜
func (e *Extractor) FromCaption(ctx context.Context, caption, author string) (*common.PartialExtraction, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, common.NewValidationError("Caption is required")
	}

	raw, err := e.text.AnalyzeText(ctx, CaptionPrompt(caption, strings.TrimSpace(author)))
	if err != nil {
		return nil, &common.UpstreamExtractionError{Source: "caption", Err: err}
	}
	return ParseExtraction(raw)
}

// FromImage 從成品照片推測食譜
func (e *Extractor) FromImage(ctx context.Context, photo *image.Photo) (*common.PartialExtraction, error) {
	if photo == nil || len(photo.Data) == 0 {
		return nil, common.NewValidationError("Image is required")
	}

	raw, err := e.vision.AnalyzeImage(ctx, DishPhotoPrompt(), photo.Data, photo.MimeType)
	if err != nil {
		return nil, &common.UpstreamExtractionError{Source: "image", Err: err}
	}
	return ParseExtraction(raw)
}

// FromHandwritten 辨識手寫食譜
// 模型回應無法解析時回傳保留原文的降級結果，而不是錯誤
func (e *Extractor) FromHandwritten(ctx context.Context, photo *image.Photo) (*common.PartialExtraction, error) {
	if photo == nil || len(photo.Data) == 0 {
		return nil, common.NewValidationError("Image is required")
	}

	raw, err := e.ocr.AnalyzeImage(ctx, HandwrittenPrompt(), photo.Data, photo.MimeType)
	if err != nil {
		return nil, &common.UpstreamExtractionError{Source: "ocr", Err: err}
	}

	record, err := ParseExtraction(raw)
	if err != nil {
		common.LogWarn("OCR 回應無法解析，回傳原文", zap.Error(err))
		return Degraded(raw), nil
	}
	return record, nil
}

// FromInstagram 解析貼文後平行執行文字與縮圖擷取，兩者完成後合併
// 任一來源失敗都只會少一份結果；只有網址不合法時回傳錯誤
func (e *Extractor) FromInstagram(ctx context.Context, postURL string) (*common.PartialExtraction, error) {
	post, err := e.posts.Resolve(ctx, postURL)
	if err != nil {
		return nil, err
	}

	var fromText, fromImage *common.PartialExtraction

	// 各自吞下錯誤，避免一方失敗取消另一方
	var g errgroup.Group
	if post.Caption != "" {
		g.Go(func() error {
			record, err := e.FromCaption(ctx, post.Caption, post.Author)
			if err != nil {
				common.LogWarn("說明文字擷取失敗", zap.String("url", post.URL), zap.Error(err))
				return nil
			}
			fromText = record
			return nil
		})
	}
	if post.ThumbnailURL != "" {
		g.Go(func() error {
			photo, err := e.images.Fetch(ctx, post.ThumbnailURL)
			if err != nil {
				common.LogWarn("縮圖下載失敗", zap.String("url", post.URL), zap.Error(err))
				return nil
			}
			record, err := e.FromImage(ctx, photo)
			if err != nil {
				common.LogWarn("縮圖擷取失敗", zap.String("url", post.URL), zap.Error(err))
				return nil
			}
			fromImage = record
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(fromText, fromImage)
	if merged == nil {
		merged = Empty()
	} else {
		// 合併結果可能與輸入共用，複製後再設定縮圖
		copied := *merged
		merged = &copied
	}
	merged.ImageURL = post.ThumbnailURL

	common.LogInfo("Instagram 擷取完成",
		zap.String("url", post.URL),
		zap.Bool("text", fromText != nil),
		zap.Bool("image", fromImage != nil),
		zap.Bool("named", merged.Name != ""),
	)
	return merged, nil
}

// Empty 所有欄位皆為預設值的擷取結果
func Empty() *common.PartialExtraction {
	return &common.PartialExtraction{
		Ingredients: []common.Ingredient{},
		Exclusions:  []string{},
	}
}

// Degraded 將模型原文放進步驟欄位並標記需手動修正
func Degraded(raw string) *common.PartialExtraction {
	record := Empty()
	record.Instructions = raw
	record.Notes = ManualFixNote
	return record
}
