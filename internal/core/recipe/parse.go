package recipe

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"recipe-catalog/internal/pkg/common"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 英文或常見寫法對應到料理來源
var originAliases = map[string]string{
	"czech":    "ceske",
	"italian":  "italske",
	"thai":     "thajske",
	"indian":   "indicke",
	"mexican":  "mexicke",
	"chinese":  "cinske",
	"japanese": "japonske",
	"american": "americke",
}

// 英文寫法對應到過敏原標籤
var allergenAliases = map[string]string{
	"gluten":  "lepek",
	"lactose": "laktoza",
	"dairy":   "laktoza",
	"meat":    "maso",
	"nuts":    "orechy",
}

// ParseExtraction 將模型輸出還原為正規化的擷取結果
// 無法取得 JSON 物件時回傳 *common.MalformedExtractionError
func ParseExtraction(raw string) (*common.PartialExtraction, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return normalize(obj), nil
}

// decodeObject 去除程式碼區塊後直接解析，失敗則取第一個平衡的 {...}
func decodeObject(raw string) (map[string]any, error) {
	text := common.StripCodeFence(raw)

	var obj map[string]any
	err := json.Unmarshal([]byte(text), &obj)
	if err == nil && obj != nil {
		return obj, nil
	}

	if candidate, ok := common.ExtractJSONObject(text); ok {
		obj = nil
		if err = json.Unmarshal([]byte(candidate), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}
	return nil, &common.MalformedExtractionError{Raw: raw, Err: err}
}

func normalize(obj map[string]any) *common.PartialExtraction {
	out := &common.PartialExtraction{
		Name:         strings.TrimSpace(asString(obj["name"])),
		Ingredients:  asIngredients(obj["ingredients"]),
		Instructions: strings.TrimSpace(asText(obj["instructions"])),
		Exclusions:   NormalizeAllergens(asStrings(obj["exclusions"])),
		Notes:        strings.TrimSpace(asText(obj["notes"])),
		ImageURL:     strings.TrimSpace(asString(obj["imageUrl"])),
		CookTime:     asMinutes(obj["cookTime"]),
	}
	if origin := NormalizeOrigin(asString(obj["origin"])); origin != "" {
		out.Origin = &origin
	}
	return out
}

// NormalizeOrigin 對應到固定的料理來源；無法對應時回傳空字串
func NormalizeOrigin(s string) string {
	key := fold(s)
	if key == "" {
		return ""
	}
	if common.IsOrigin(key) {
		return key
	}
	if alias, ok := originAliases[key]; ok {
		return alias
	}
	// 「česká kuchyně」「italska」等變化形以字幹比對
	for _, o := range common.Origins {
		if strings.HasPrefix(key, o[:len(o)-1]) {
			return o
		}
	}
	return ""
}

// NormalizeAllergens 小寫化、去重並只保留已知過敏原
func NormalizeAllergens(tags []string) []string {
	mapped := make([]string, 0, len(tags))
	for _, t := range tags {
		key := fold(t)
		if alias, ok := allergenAliases[key]; ok {
			key = alias
		}
		mapped = append(mapped, key)
	}
	return common.NormalizeExclusions(mapped, true)
}

// fold 小寫並移除變音符號
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asText 接受字串或字串陣列（步驟清單）
func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return strings.Join(asStrings(t), "\n")
	}
	return ""
}

func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// asIngredients 接受物件或純字串元素，略過沒有名稱的項目
func asIngredients(v any) []common.Ingredient {
	items, ok := v.([]any)
	if !ok {
		return []common.Ingredient{}
	}
	out := make([]common.Ingredient, 0, len(items))
	for _, item := range items {
		var ing common.Ingredient
		switch t := item.(type) {
		case string:
			ing.Name = t
		case map[string]any:
			ing.Name = asString(t["name"])
			ing.Key = asBool(t["key"])
		default:
			continue
		}
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		out = append(out, ing)
	}
	return out
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

// asMinutes 接受數字或以數字開頭的字串（"45 min"）
func asMinutes(v any) *int {
	var n int
	switch t := v.(type) {
	case float64:
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		n = int(math.Round(t))
	case string:
		digits := strings.TrimSpace(t)
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		parsed, err := strconv.Atoi(digits[:end])
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if n <= 0 {
		return nil
	}
	return &n
}
