package common

import (
	"strings"
	"time"
)

// SourceType 食譜來源
type SourceType string

const (
	SourceInstagram   SourceType = "instagram"
	SourceHandwritten SourceType = "handwritten"
	SourceManual      SourceType = "manual"
)

// Origins 支援的料理來源（固定八種）
var Origins = []string{
	"ceske",
	"italske",
	"thajske",
	"indicke",
	"mexicke",
	"cinske",
	"japonske",
	"americke",
}

// Allergens 可標記為「不含」的過敏原
var Allergens = []string{
	"lepek",   // gluten
	"laktoza", // lactose
	"maso",    // meat
	"orechy",  // nuts
}

// IsOrigin 檢查是否為合法的料理來源
func IsOrigin(s string) bool {
	for _, o := range Origins {
		if o == s {
			return true
		}
	}
	return false
}

// IsAllergen 檢查是否為合法的過敏原標籤
func IsAllergen(s string) bool {
	for _, a := range Allergens {
		if a == s {
			return true
		}
	}
	return false
}

// Ingredient 食材
type Ingredient struct {
	Name string `json:"name" validate:"required"`
	Key  bool   `json:"key"`
}

// PartialExtraction 單一來源的擷取結果，欄位可能不完整
type PartialExtraction struct {
	Name         string       `json:"name"`
	Ingredients  []Ingredient `json:"ingredients"`
	Origin       *string      `json:"origin"`
	Instructions string       `json:"instructions"`
	Exclusions   []string     `json:"exclusions"`
	Notes        string       `json:"notes"`
	CookTime     *int         `json:"cookTime,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
}

// Recipe 持久化的食譜
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SourceType   SourceType   `json:"sourceType"`
	SourceURL    *string      `json:"sourceUrl"`
	SourceImage  *string      `json:"sourceImage"`
	Ingredients  []Ingredient `json:"ingredients"`
	Origin       string       `json:"origin"`
	Exclusions   []string     `json:"exclusions"`
	CookTime     *int         `json:"cookTime"`
	Instructions string       `json:"instructions"`
	Notes        string       `json:"notes"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`

	// IsNew 僅在帶有客戶端 ID 的列表回應中計算
	IsNew *bool `json:"isNew,omitempty"`
}

// Clone 深拷貝食譜，避免呼叫端修改儲存層資料
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	out := *r
	out.Ingredients = append([]Ingredient{}, r.Ingredients...)
	out.Exclusions = append([]string{}, r.Exclusions...)
	if r.SourceURL != nil {
		v := *r.SourceURL
		out.SourceURL = &v
	}
	if r.SourceImage != nil {
		v := *r.SourceImage
		out.SourceImage = &v
	}
	if r.CookTime != nil {
		v := *r.CookTime
		out.CookTime = &v
	}
	if r.UpdatedAt != nil {
		v := *r.UpdatedAt
		out.UpdatedAt = &v
	}
	out.IsNew = nil
	return &out
}

// RecipeDraft 建立食譜時的輸入；id 與 createdAt 不在此結構中
type RecipeDraft struct {
	Name         string       `json:"name" validate:"required"`
	SourceType   SourceType   `json:"sourceType" validate:"omitempty,oneof=instagram handwritten manual"`
	SourceURL    *string      `json:"sourceUrl"`
	SourceImage  *string      `json:"sourceImage"`
	Ingredients  []Ingredient `json:"ingredients" validate:"dive"`
	Origin       string       `json:"origin" validate:"omitempty,oneof=ceske italske thajske indicke mexicke cinske japonske americke"`
	Exclusions   []string     `json:"exclusions" validate:"dive,oneof=lepek laktoza maso orechy"`
	CookTime     *int         `json:"cookTime" validate:"omitempty,min=0"`
	Instructions string       `json:"instructions"`
	Notes        string       `json:"notes"`
}

// Normalize 清理草稿欄位
func (d *RecipeDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Origin = strings.TrimSpace(strings.ToLower(d.Origin))
	if d.SourceType == "" {
		d.SourceType = SourceManual
	}
	d.Ingredients = CleanIngredients(d.Ingredients)
	d.Exclusions = NormalizeExclusions(d.Exclusions, false)
	d.SourceURL = blankToNil(d.SourceURL)
	d.SourceImage = blankToNil(d.SourceImage)
}

// RecipePatch 更新食譜的輸入；nil 欄位保持不變
type RecipePatch struct {
	Name         *string       `json:"name" validate:"omitempty"`
	SourceType   *SourceType   `json:"sourceType" validate:"omitempty,oneof=instagram handwritten manual"`
	SourceURL    *string       `json:"sourceUrl"`
	SourceImage  *string       `json:"sourceImage"`
	Ingredients  *[]Ingredient `json:"ingredients" validate:"omitempty,dive"`
	Origin       *string       `json:"origin" validate:"omitempty,oneof='' ceske italske thajske indicke mexicke cinske japonske americke"`
	Exclusions   *[]string     `json:"exclusions" validate:"omitempty,dive,oneof=lepek laktoza maso orechy"`
	CookTime     *int          `json:"cookTime" validate:"omitempty,min=0"`
	Instructions *string       `json:"instructions"`
	Notes        *string       `json:"notes"`
}

// Normalize 清理更新欄位
func (p *RecipePatch) Normalize() {
	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		p.Name = &v
	}
	if p.Origin != nil {
		v := strings.TrimSpace(strings.ToLower(*p.Origin))
		p.Origin = &v
	}
	if p.Ingredients != nil {
		v := CleanIngredients(*p.Ingredients)
		p.Ingredients = &v
	}
	if p.Exclusions != nil {
		v := NormalizeExclusions(*p.Exclusions, false)
		p.Exclusions = &v
	}
}

// Apply 將更新套用至食譜；id 與 createdAt 不受影響
func (p *RecipePatch) Apply(r *Recipe) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.SourceType != nil {
		r.SourceType = *p.SourceType
	}
	if p.SourceURL != nil {
		r.SourceURL = blankToNil(p.SourceURL)
	}
	if p.SourceImage != nil {
		r.SourceImage = blankToNil(p.SourceImage)
	}
	if p.Ingredients != nil {
		r.Ingredients = append([]Ingredient{}, (*p.Ingredients)...)
	}
	if p.Origin != nil {
		r.Origin = *p.Origin
	}
	if p.Exclusions != nil {
		r.Exclusions = append([]string{}, (*p.Exclusions)...)
	}
	if p.CookTime != nil {
		if *p.CookTime == 0 {
			r.CookTime = nil
		} else {
			v := *p.CookTime
			r.CookTime = &v
		}
	}
	if p.Instructions != nil {
		r.Instructions = *p.Instructions
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}

// NewRecipe 由草稿建立食譜（未指派 id 與 createdAt）
func NewRecipe(d RecipeDraft) *Recipe {
	r := &Recipe{
		Name:         d.Name,
		SourceType:   d.SourceType,
		SourceURL:    d.SourceURL,
		SourceImage:  d.SourceImage,
		Ingredients:  append([]Ingredient{}, d.Ingredients...),
		Origin:       d.Origin,
		Exclusions:   append([]string{}, d.Exclusions...),
		CookTime:     d.CookTime,
		Instructions: d.Instructions,
		Notes:        d.Notes,
	}
	if r.SourceType == "" {
		r.SourceType = SourceManual
	}
	return r
}

// ListFilters 列表過濾條件
type ListFilters struct {
	Search         string   `form:"search"`
	Origin         string   `form:"origin"`
	Exclusions     []string `form:"exclusions"`
	KeyIngredients []string `form:"key"`
}

// CleanIngredients 去除空白並移除沒有名稱的食材
func CleanIngredients(in []Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(in))
	for _, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		out = append(out, Ingredient{Name: name, Key: ing.Key})
	}
	return out
}

// NormalizeExclusions 小寫化並去重；strict 時只保留已知過敏原
func NormalizeExclusions(in []string, strict bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if strict && !IsAllergen(tag) {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
