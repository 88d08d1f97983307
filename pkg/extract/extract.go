// Package extract implements the conversion-extraction pipeline: candidate
// text collection, rate pattern matching, and name normalization, producing
// the deduplicated conversion records for one page.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/urlutil"
)

// Extract parses html and returns the page's conversion records. The only
// failure mode is HTML that cannot be parsed at all; candidate lines that
// match no pattern are silently skipped. The pass is pure and idempotent:
// identical input yields an identical ordered record list.
func Extract(pageURL, pageTitle, html string, useImageMetadata bool) ([]models.ConversionRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromDocument(doc, pageURL, pageTitle, useImageMetadata), nil
}

// FromDocument runs the pipeline over an already-parsed document.
func FromDocument(doc *goquery.Document, pageURL, pageTitle string, useImageMetadata bool) []models.ConversionRecord {
	var matches []lineMatch
	for _, line := range CollectCandidates(doc, useImageMetadata) {
		if m, ok := MatchLine(line); ok {
			matches = append(matches, lineMatch{RateMatch: m, Text: line})
		}
	}
	return normalize(urlutil.Clean(pageURL), pageTitle, matches)
}
