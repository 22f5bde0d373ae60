// Package langdetect guesses the language of feed summaries so the update
// flow can skip translating text already in the site language.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// sourceLanguages covers the configured outlets plus the site language.
// Restricting the detector keeps it small and noticeably more accurate on
// short summaries.
var sourceLanguages = []lingua.Language{
	lingua.English,
	lingua.Polish,
	lingua.Hungarian,
	lingua.French,
	lingua.Dutch,
	lingua.German,
	lingua.Slovak,
}

// DetectISO6391 returns the two-letter code of the detected language, or an
// empty string when the sample is too short to call.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(sourceLanguages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
