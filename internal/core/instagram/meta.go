package instagram

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// 頁面內容常被二次轉義，html.Parse 只解一層
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&#x2F;", "/",
	`\u0026`, "&",
	`\u003c`, "<",
	`\u003e`, ">",
	`\n`, "\n",
)

// DecodeEntities 解碼殘留的 HTML 實體與 JSON 跳脫
func DecodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// og:description 形如 `12 likes, 3 comments - author on May 1, 2024: "caption".`
var descriptionCaption = regexp.MustCompile(`(?s)^\s*[\d.,]+[KkMm]?\s+likes?,.*?:\s*"(.*)"\s*\.?\s*$`)

// og:title 形如 `Author on Instagram: "caption"`
var titleAuthor = regexp.MustCompile(`^(.+?)\s+on Instagram\b`)

// ParseMeta 從 HTML 讀取 og:description / description / og:image / og:title
func ParseMeta(r io.Reader) (*Post, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := make(map[string]string)
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "property", "name":
					key = strings.ToLower(strings.TrimSpace(attr.Val))
				case "content":
					content = attr.Val
				}
			}
			// 同名標籤以第一個為準
			if key != "" {
				if _, exists := meta[key]; !exists {
					meta[key] = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	post := &Post{}
	caption := meta["og:description"]
	if strings.TrimSpace(caption) == "" {
		caption = meta["description"]
	}
	post.Caption = cleanCaption(DecodeEntities(caption))
	post.ThumbnailURL = strings.TrimSpace(DecodeEntities(meta["og:image"]))
	post.Title = strings.TrimSpace(DecodeEntities(meta["og:title"]))
	if m := titleAuthor.FindStringSubmatch(post.Title); m != nil {
		post.Author = strings.TrimSpace(m[1])
	}
	return post, nil
}

// cleanCaption 去掉按讚數與作者前綴，只留說明文字
func cleanCaption(s string) string {
	s = strings.TrimSpace(s)
	if m := descriptionCaption.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
