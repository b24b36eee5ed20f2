package recipe

import (
	"strings"

	"recipe-catalog/internal/pkg/common"
)

// Merge 合併文字與圖片兩個來源的擷取結果，文字來源優先
//
// 兩者皆為 nil 時回傳 nil；只有一方時原樣回傳該方。
// 食材以不分大小寫的名稱為鍵：文字重複項保留首次出現的位置但採用最後一筆，
// 圖片來源只補上文字沒有的食材，並接在文字食材之後。
func Merge(fromText, fromImage *common.PartialExtraction) *common.PartialExtraction {
	switch {
	case fromText == nil && fromImage == nil:
		return nil
	case fromImage == nil:
		return fromText
	case fromText == nil:
		return fromImage
	}

	merged := &common.PartialExtraction{
		Name:         firstNonEmpty(fromText.Name, fromImage.Name),
		Ingredients:  mergeIngredients(fromText.Ingredients, fromImage.Ingredients),
		Origin:       fromText.Origin,
		Instructions: firstNonEmpty(fromText.Instructions, fromImage.Instructions),
		Exclusions:   mergeExclusions(fromText.Exclusions, fromImage.Exclusions),
		Notes:        joinNotes(fromText.Notes, fromImage.Notes),
		CookTime:     fromText.CookTime,
		ImageURL:     firstNonEmpty(fromText.ImageURL, fromImage.ImageURL),
	}
	if merged.Origin == nil {
		merged.Origin = fromImage.Origin
	}
	if merged.CookTime == nil {
		merged.CookTime = fromImage.CookTime
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNotes(text, image string) string {
	parts := make([]string, 0, 2)
	for _, n := range []string{text, image} {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "\n")
}

func mergeExclusions(text, image []string) []string {
	out := make([]string, 0, len(text)+len(image))
	seen := make(map[string]struct{}, len(text)+len(image))
	for _, list := range [][]string{text, image} {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func mergeIngredients(text, image []common.Ingredient) []common.Ingredient {
	out := make([]common.Ingredient, 0, len(text)+len(image))
	index := make(map[string]int, len(text)+len(image))

	for _, ing := range text {
		key := strings.ToLower(ing.Name)
		if i, ok := index[key]; ok {
			out[i] = ing
			continue
		}
		index[key] = len(out)
		out = append(out, ing)
	}
	for _, ing := range image {
		key := strings.ToLower(ing.Name)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(out)
		out = append(out, ing)
	}
	return out
}
