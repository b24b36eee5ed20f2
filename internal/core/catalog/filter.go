package catalog

import (
	"sort"
	"strings"

	"recipe-catalog/internal/pkg/common"
)

// Filter 在記憶體中套用過濾條件
//
// exclusions 採「全部標記」語意：食譜必須在 exclusions 中聲明每一個選取的標籤
// （表示確認不含該過敏原），而不是排除含有該標籤的食譜。
func Filter(recipes []*common.Recipe, f common.ListFilters) []*common.Recipe {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	origin := strings.ToLower(strings.TrimSpace(f.Origin))
	exclusions := common.NormalizeExclusions(f.Exclusions, false)
	keys := lowerAll(f.KeyIngredients)

	out := make([]*common.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if origin != "" && r.Origin != origin {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		if !hasAllExclusions(r, exclusions) {
			continue
		}
		if !hasKeyIngredients(r, keys) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortNewest 依 createdAt 由新到舊排序，相同時間以 id 排序
func SortNewest(recipes []*common.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := recipes[i], recipes[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// matchesSearch 不分大小寫比對名稱與食材名稱
func matchesSearch(r *common.Recipe, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return true
		}
	}
	return false
}

func hasAllExclusions(r *common.Recipe, tags []string) bool {
	for _, tag := range tags {
		found := false
		for _, ex := range r.Exclusions {
			if strings.ToLower(ex) == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// hasKeyIngredients 每個條件都要對應到一個主要食材
func hasKeyIngredients(r *common.Recipe, names []string) bool {
	for _, name := range names {
		found := false
		for _, ing := range r.Ingredients {
			if ing.Key && strings.Contains(strings.ToLower(ing.Name), name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
