package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/fetch"
)

func TestEnabledResolvesKnownKeysInOrder(t *testing.T) {
	t.Parallel()

	sources, unknown := Enabled([]string{"fashionpost", "EuropaWire", "nosuchoutlet"})

	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Key != "fashionpost" || sources[1].Key != "europawire" {
		t.Fatalf("order not preserved: %+v", sources)
	}
	if len(unknown) != 1 || unknown[0] != "nosuchoutlet" {
		t.Fatalf("unexpected unknown keys: %v", unknown)
	}
}

func TestCatalogHasUniqueKeysAndFeedURLs(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, source := range Catalog() {
		if source.Key == "" || source.FeedURL == "" {
			t.Fatalf("incomplete source: %+v", source)
		}
		if seen[source.Key] {
			t.Fatalf("duplicate key %q", source.Key)
		}
		seen[source.Key] = true
	}
}

func TestFingerprintIsStable(t *testing.T) {
	t.Parallel()

	a := Fingerprint("fashionpost", "https://fashionpost.pl/story")
	b := Fingerprint("fashionpost", "https://fashionpost.pl/story")
	c := Fingerprint("ellepolska", "https://fashionpost.pl/story")

	if a != b {
		t.Fatal("fingerprint must be deterministic")
	}
	if a == c {
		t.Fatal("fingerprint must depend on the source key")
	}
	if len(a) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(a))
	}
}

const testFeedXML = `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Test Outlet</title>
<item>
  <title>  Zara opens flagship store  </title>
  <link>https://example.com/zara-flagship</link>
  <description>&lt;p&gt;A new &lt;strong&gt;flagship&lt;/strong&gt; opens.&lt;/p&gt;</description>
  <pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
  <media:content url="https://cdn.example.com/zara.jpg" />
</item>
<item>
  <title></title>
  <link>https://example.com/untitled</link>
</item>
<item>
  <title>Second story</title>
  <link>https://example.com/second</link>
</item>
<item>
  <title>Third story past the cap</title>
  <link>https://example.com/third</link>
</item>
</channel>
</rss>`

func TestFetchMapsAndCapsItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Options{DisableDelay: true})
	fetcher := NewFetcher(client, zerolog.Nop())

	source := Source{Key: "fashionpost", Name: "FashionPost", FeedURL: server.URL}
	items, err := fetcher.Fetch(context.Background(), source, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (cap applied, untitled dropped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "Zara opens flagship store" {
		t.Fatalf("title not trimmed: %q", first.Title)
	}
	if first.Summary != "A new flagship opens." {
		t.Fatalf("summary not plain text: %q", first.Summary)
	}
	if first.ImageURL != "https://cdn.example.com/zara.jpg" {
		t.Fatalf("media image not picked up: %q", first.ImageURL)
	}
	if first.PublishedAt == nil {
		t.Fatal("pubDate not parsed")
	}
	if first.Fingerprint != Fingerprint("fashionpost", "https://example.com/zara-flagship") {
		t.Fatal("fingerprint mismatch")
	}
	if items[1].Title != "Second story" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}
