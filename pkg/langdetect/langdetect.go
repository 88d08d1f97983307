// Package langdetect guesses the language of scraped page text so snapshots
// can be filtered by language later.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// A fixed candidate set keeps the detector's memory footprint bounded;
// detection quality only needs to separate the languages pages actually
// come in.
var candidates = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Chinese,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// minTextLength guards against confident-looking results on near-empty
// input.
const minTextLength = 20

// Detect returns the lowercase ISO 639-1 code of the text's language, or ""
// when the text is too short or no candidate fits. The underlying model is
// built once, on first use.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return ""
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build()
	})

	language, ok := detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
