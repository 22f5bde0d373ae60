// Package feeds fetches candidate items from the configured source outlets.
package feeds

import (
	"sort"
	"strings"
)

// Source describes one RSS outlet.
type Source struct {
	Key     string
	Name    string
	FeedURL string
}

// catalog lists every outlet the pipeline knows how to ingest. Which of them
// actually run is decided by configuration.
var catalog = []Source{
	{Key: "europawire", Name: "EuropaWire", FeedURL: "https://news.europawire.eu/feed/"},
	{Key: "ellepolska", Name: "Elle Polska", FeedURL: "https://www.elle.pl/rss"},
	{Key: "fashionpost", Name: "FashionPost", FeedURL: "https://fashionpost.pl/feed/"},
	{Key: "miastokobiet", Name: "Miasto Kobiet", FeedURL: "https://www.miastokobiet.pl/feed/"},
	{Key: "marieclairehu", Name: "Marie Claire HU", FeedURL: "https://marieclaire.hu/feed/"},
	{Key: "fashionstreethu", Name: "Fashion Street HU", FeedURL: "https://fashionstreetonline.hu/feed/"},
	{Key: "lofficielbe", Name: "L'Officiel BE", FeedURL: "https://www.lofficiel.be/feed/"},
	{Key: "togethermag", Name: "Together Magazine", FeedURL: "https://togethermag.eu/feed/"},
}

// Catalog returns all known sources sorted by key.
func Catalog() []Source {
	sources := make([]Source, len(catalog))
	copy(sources, catalog)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources
}

// Lookup finds a source by key.
func Lookup(key string) (Source, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, source := range catalog {
		if source.Key == normalized {
			return source, true
		}
	}
	return Source{}, false
}

// Enabled resolves configured keys to sources, preserving order. Unknown keys
// are returned separately so the caller can log them.
func Enabled(keys []string) ([]Source, []string) {
	sources := make([]Source, 0, len(keys))
	var unknown []string
	for _, key := range keys {
		source, ok := Lookup(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		sources = append(sources, source)
	}
	return sources, unknown
}
