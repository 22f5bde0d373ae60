package extract

import (
	"strings"
	"testing"
)

func TestExtractPrefersArticleNode(t *testing.T) {
	t.Parallel()

	page := `<html><head>
<meta property="og:image" content="https://cdn.example.com/og.jpg">
</head><body>
<nav><p>menu item</p></nav>
<article>
<h3>Runway report</h3>
<p>The collection opened with <a href="/x">tailored coats</a>.</p>
<img src="/img/lead.jpg" alt="">
<script>track()</script>
</article>
<footer><p>copyright</p></footer>
</body></html>`

	result := Extract(page, "https://example.com/story")

	if !strings.Contains(result.Content, "<h3>Runway report</h3>") {
		t.Fatalf("heading missing from content: %q", result.Content)
	}
	if !strings.Contains(result.Content, "tailored coats") {
		t.Fatalf("anchor text lost: %q", result.Content)
	}
	if strings.Contains(result.Content, "<a ") || strings.Contains(result.Content, "menu item") ||
		strings.Contains(result.Content, "copyright") || strings.Contains(result.Content, "track()") {
		t.Fatalf("content not cleaned: %q", result.Content)
	}
	if result.Image != "https://example.com/img/lead.jpg" {
		t.Fatalf("unexpected image %q", result.Image)
	}
}

func TestExtractFallsBackToParagraphsAndOGImage(t *testing.T) {
	t.Parallel()

	page := `<html><head>
<meta property="og:image" content="//cdn.example.com/og.jpg">
</head><body>
<div class="sidebar"><span>widget</span></div>
<p>First paragraph.</p>
<p>Second paragraph.</p>
</body></html>`

	result := Extract(page, "https://example.com/story")

	if !strings.Contains(result.Content, "<p>First paragraph.</p>") ||
		!strings.Contains(result.Content, "<p>Second paragraph.</p>") {
		t.Fatalf("paragraph fallback missing: %q", result.Content)
	}
	if result.Image != "https://cdn.example.com/og.jpg" {
		t.Fatalf("unexpected image %q", result.Image)
	}
}

func TestNormalizeBodyWhitelist(t *testing.T) {
	t.Parallel()

	input := `<div id="wrap"><p style="color:red">Keep <strong>bold</strong> and <em>italic</em>.</p>` +
		`<h2>    Demoted</h2><h3>Kept heading</h3><blockquote>quote</blockquote>` +
		`<a href="https://spam.example">link text</a><script>alert(1)</script></div>`

	out := NormalizeBody(input)

	for _, want := range []string{
		"<p>Keep <strong>bold</strong> and <em>italic</em>.</p>",
		"<h3>Kept heading</h3>",
		"<blockquote>quote</blockquote>",
		"link text",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	for _, banned := range []string{"<div", "<h2", "<a ", "style=", "alert(1)"} {
		if strings.Contains(out, banned) {
			t.Fatalf("found banned fragment %q in %q", banned, out)
		}
	}
}

func TestParagraphHTML(t *testing.T) {
	t.Parallel()

	got := paragraphHTML("First line.\r\n\r\n  Second   line. \nThird.")
	want := "<p>First line.</p><p>Second line.</p><p>Third.</p>"
	if got != want {
		t.Fatalf("paragraphHTML = %q, want %q", got, want)
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got := PlainText("<p>One   two</p>\n<p>three</p><script>x()</script>")
	if got != "One two three" {
		t.Fatalf("unexpected plain text %q", got)
	}
}
