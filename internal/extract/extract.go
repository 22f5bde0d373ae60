// Package extract pulls the readable article body and lead image candidate
// out of a fetched source page.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result is the extracted article content.
type Result struct {
	// Content is the article body reduced to the body tag whitelist.
	Content string
	// Image is the absolute URL of the first in-content image, or the
	// og:image fallback. Empty when the page carries neither.
	Image string
}

var strippedSelectors = "script, style, noscript, iframe, form, nav, header, footer"

// Extract finds the main article node of an HTML page. It prefers <article>,
// then the first content-looking div, and finally falls back to concatenating
// every paragraph on the page.
func Extract(pageHTML, baseURL string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return Result{Content: NormalizeBody(pageHTML)}
	}

	doc.Find(strippedSelectors).Remove()

	node := doc.Find("article").First()
	if node.Length() == 0 {
		node = doc.Find(`div[class*="content"], div[class*="article"], div[class*="post"]`).First()
	}

	if node.Length() == 0 {
		var b strings.Builder
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if fragment, err := goquery.OuterHtml(p); err == nil {
				b.WriteString(fragment)
			}
		})
		return Result{
			Content: withReadableFallback(NormalizeBody(b.String()), pageHTML, baseURL),
			Image:   findImage(doc.Selection, doc, baseURL),
		}
	}

	content := ""
	if fragment, err := goquery.OuterHtml(node); err == nil {
		content = NormalizeBody(fragment)
	}

	return Result{
		Content: withReadableFallback(content, pageHTML, baseURL),
		Image:   findImage(node, doc, baseURL),
	}
}

// withReadableFallback hands the page to the readability extractor when the
// selector pass found no text at all.
func withReadableFallback(content, pageHTML, baseURL string) string {
	if PlainText(content) != "" {
		return content
	}
	if readable := readableText(pageHTML, baseURL); PlainText(readable) != "" {
		return readable
	}
	return content
}

// findImage returns the first img inside the content node, falling back to
// the page-level og:image meta tag.
func findImage(node *goquery.Selection, doc *goquery.Document, baseURL string) string {
	if src, ok := node.Find("img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return absoluteURL(strings.TrimSpace(src), baseURL)
	}

	meta := doc.Find(`meta[property="og:image"], meta[name="og:image"]`).First()
	if content, ok := meta.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return absoluteURL(strings.TrimSpace(content), baseURL)
	}

	return ""
}

func absoluteURL(raw, base string) string {
	if strings.HasPrefix(raw, "http") || base == "" {
		return raw
	}

	baseParsed, err := url.Parse(base)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return baseParsed.ResolveReference(ref).String()
}
