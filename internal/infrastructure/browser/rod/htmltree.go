package rod

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// handleAttr помечает интерактивные элементы в режиме html.
const handleAttr = "data-eval-handle"

// stampHandlesJS нумерует новые интерактивные элементы. Уже выданные номера
// не меняются до следующей навигации.
const stampHandlesJS = `() => {
	const sel = 'a, button, input, select, textarea, summary, [role=button], [role=link], [role=checkbox], [role=tab], [role=menuitem], [onclick], [contenteditable=true]';
	let n = window.__evalHandleSeq || 0;
	document.querySelectorAll(sel).forEach(el => {
		if (!el.hasAttribute('` + handleAttr + `')) el.setAttribute('` + handleAttr + `', String(++n));
	});
	window.__evalHandleSeq = n;
	return n;
}`

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
}

// DefaultCleanConfig задаёт очистку по умолчанию
var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

// renderHTMLTree очищает HTML и ставит "[N] " перед каждым помеченным
// элементом, чтобы resolver находил хендлы так же, как в дереве доступности.
func renderHTMLTree(rawHTML string, cfg *CleanConfig) (string, error) {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	body := findBodyNode(doc)
	if body == nil {
		return "", nil
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}

	return truncateHTML(strings.TrimSpace(sb.String()), cfg.MaxOutputSize), nil
}

// findBodyNode ищет <body> в дереве HTML
func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

// cleanNode рекурсивно удаляет комментарии, мусорные теги и фильтрует атрибуты
func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	handle := attrValue(n, handleAttr)
	n.Attr = filterAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}

	if handle != "" && n.Parent != nil {
		n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: "[" + handle + "] "}, n)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// filterAttributes фильтрует атрибуты узла на основе конфигурации
func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// shouldRemoveAttr проверяет, нужно ли удалить атрибут
func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	if isOneOf(attr.Key, cfg.AttrsToRemove...) {
		return true
	}
	return strings.HasPrefix(attr.Key, "data-") || strings.HasPrefix(attr.Key, "on")
}

// truncateHTML обрезает HTML до maxSize, если нужно
func truncateHTML(htmlStr string, maxSize int) string {
	if maxSize > 0 && len(htmlStr) > maxSize {
		return htmlStr[:maxSize] + "\n<!-- HTML truncated -->"
	}
	return htmlStr
}

// isOneOf проверяет, что s совпадает с одним из candidates
func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
