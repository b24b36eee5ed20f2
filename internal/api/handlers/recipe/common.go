package recipe

import (
	"strings"
)

// splitQuery 支援重複參數與逗號分隔兩種寫法（?exclusions=lepek,maso）
func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
