package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

// readableText runs the readability extractor over the full page and returns
// its text as paragraph-wrapped HTML. Used when selector-based extraction
// finds nothing substantial.
func readableText(pageHTML, baseURL string) string {
	pageURL, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || pageURL.Host == "" {
		pageURL = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(strings.NewReader(pageHTML), pageURL)
	if err != nil {
		return ""
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return ""
	}

	text := rendered.String()
	if strings.TrimSpace(text) == "" {
		text = article.Excerpt()
	}
	return paragraphHTML(text)
}

// paragraphHTML wraps each non-blank line of plain text in a <p> element.
func paragraphHTML(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var b strings.Builder
	for _, line := range strings.Split(normalized, "\n") {
		clean := strings.Join(strings.Fields(line), " ")
		if clean == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(clean)
		b.WriteString("</p>")
	}
	return NormalizeBody(b.String())
}
