package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	anchorPattern     = regexp.MustCompile(`(?is)<\s*a[^>]*>(.*?)<\s*/\s*a\s*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// allowedBodyTags is the tag whitelist for post bodies. Everything else is
// unwrapped to its text content.
var allowedBodyTags = map[string]bool{
	"p":          true,
	"h3":         true,
	"strong":     true,
	"em":         true,
	"blockquote": true,
	"br":         true,
}

// StripLinks removes anchor tags but keeps their inner content.
func StripLinks(s string) string {
	return anchorPattern.ReplaceAllString(s, "$1")
}

// NormalizeBody reduces arbitrary HTML to the body whitelist: p, h3, strong,
// em, blockquote and br, all without attributes. Anchors are unwrapped first
// so their text survives.
func NormalizeBody(s string) string {
	s = StripLinks(s)

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, node := range nodes {
		renderSanitized(&b, node)
	}
	return strings.TrimSpace(b.String())
}

func renderSanitized(b *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(node.Data))
		return
	case html.ElementNode:
		tag := strings.ToLower(node.Data)
		if tag == "script" || tag == "style" || tag == "noscript" {
			return
		}
		if allowedBodyTags[tag] {
			b.WriteString("<" + tag + ">")
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				renderSanitized(b, child)
			}
			if tag != "br" {
				b.WriteString("</" + tag + ">")
			}
			return
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		renderSanitized(b, child)
	}
}

// PlainText strips all tags and collapses whitespace.
func PlainText(s string) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
	}

	var b strings.Builder
	for _, node := range nodes {
		collectText(&b, node)
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(b.String(), " "))
}

func collectText(b *strings.Builder, node *html.Node) {
	if node.Type == html.TextNode {
		b.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode {
		tag := strings.ToLower(node.Data)
		if tag == "script" || tag == "style" || tag == "noscript" {
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(b, child)
	}
	if node.Type == html.ElementNode {
		switch strings.ToLower(node.Data) {
		case "p", "br", "div", "h1", "h2", "h3", "h4", "li", "blockquote":
			b.WriteString(" ")
		}
	}
}
