package recipe

import (
	"fmt"
	"strings"
)

const recordShape = `{
  "name": "Recipe name in Czech",
  "ingredients": [
    {"name": "ingredient name", "key": true/false}
  ],
  "origin": "cuisine type in Czech (ceske, italske, thajske, indicke, mexicke, cinske, japonske, americke)" or null,
  "cookTime": total cooking time in minutes or null,
  "instructions": "%s",
  "exclusions": ["lepek", "laktoza", "maso", "orechy"] (only include if dish clearly doesn't contain these),
  "notes": "%s"
}`

// CaptionPrompt 貼文說明文字的擷取指令
func CaptionPrompt(caption, author string) string {
	var b strings.Builder
	b.WriteString("Extract recipe information from this Instagram post caption:\n\n")
	fmt.Fprintf(&b, "%q\n\n", caption)
	if author != "" {
		fmt.Fprintf(&b, "Author: %s\n\n", author)
	}
	b.WriteString("Return a JSON object with this structure:\n")
	fmt.Fprintf(&b, recordShape, "Cooking instructions if mentioned", "Any tips or notes from the caption")
	b.WriteString(`

Guidelines:
- Translate recipe name to Czech if needed
- Mark 1-2 main ingredients as "key": true
- If origin/cuisine is mentioned or obvious from the dish, include it
- Extract all ingredients mentioned
- Include cooking steps if described
- Keep the original author's tips in notes

Return ONLY the JSON object, no other text.`)
	return b.String()
}

// DishPhotoPrompt 成品照片的擷取指令
func DishPhotoPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze this food/recipe image and extract recipe information.\n\n")
	b.WriteString("Return a JSON object with this structure:\n")
	fmt.Fprintf(&b, recordShape, "Estimated cooking steps based on the dish", "Any observations about the dish")
	b.WriteString(`

Guidelines:
- Name the dish in Czech
- Mark 1-2 main visible ingredients as "key": true
- Estimate common ingredients for this type of dish
- Guess the cuisine origin from visual style
- Keep instructions brief, 3-5 steps max

Return ONLY the JSON object, no other text.`)
	return b.String()
}

// HandwrittenPrompt 手寫食譜的辨識指令
func HandwrittenPrompt() string {
	return `Analyze this handwritten recipe image and extract the recipe information.

Return a JSON object with the following structure:
{
  "name": "Recipe name",
  "ingredients": [
    {"name": "ingredient name", "key": true/false}
  ],
  "instructions": "Step by step instructions",
  "notes": "Any additional notes"
}

Guidelines:
- Mark 1-2 main ingredients as "key": true (the primary protein or main component)
- If you can't read something clearly, make your best guess and add a note
- Format instructions as numbered steps
- Extract any tips or notes mentioned

Return ONLY the JSON object, no other text.`
}
