package extract

import (
	"strings"
	"unicode"

	"github.com/balltd/convscrape/models"
)

// TitleCase canonicalizes a resource name: internal whitespace collapsed to
// single spaces, trimmed, first letter of each word uppercased and the rest
// lowered. "gem", "GEM", and "Gem" all map to "Gem".
func TitleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// lineMatch pairs a validated match with the candidate line it came from.
type lineMatch struct {
	RateMatch
	Text string
}

// normalize canonicalizes names and deduplicates matches into the final
// record list. Records are keyed by (source, target) for the page: a later
// match for the same pair overwrites the earlier rate and text, mirroring
// the store's upsert key, while output order stays the first-occurrence
// order of each pair.
func normalize(pageURL, pageTitle string, matches []lineMatch) []models.ConversionRecord {
	type pairKey struct {
		source string
		target string
	}

	index := make(map[pairKey]int)
	var records []models.ConversionRecord
	for _, m := range matches {
		key := pairKey{source: TitleCase(m.Source), target: TitleCase(m.Target)}
		record := models.ConversionRecord{
			PageURL:   pageURL,
			PageTitle: pageTitle,
			Source:    key.source,
			Target:    key.target,
			Rate:      m.Rate,
			Text:      m.Text,
		}
		if i, ok := index[key]; ok {
			records[i] = record
			continue
		}
		index[key] = len(records)
		records = append(records, record)
	}
	return records
}
