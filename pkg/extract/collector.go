package extract

import (
	"bufio"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// candidateSelector covers the content-bearing tags whose text is scanned
// for rate statements: headings, paragraphs, list items, and generic
// containers.
const candidateSelector = "h1,h2,h3,h4,h5,h6,p,li,div,span"

// imageTextAttrs are read per <img>, in this order, when image metadata is
// enabled.
var imageTextAttrs = []string{"alt", "title", "aria-label"}

// CollectCandidates walks the document and returns the ordered,
// duplicate-free candidate lines considered for rate matching. Candidates
// shorter than two characters after trimming are dropped. When
// useImageMetadata is set, image alt/title/aria-label text and the first
// non-empty following sibling (a caption, usually) are appended as extra
// candidates.
func CollectCandidates(doc *goquery.Document, useImageMetadata bool) []string {
	var candidates []string

	doc.Find(candidateSelector).Each(func(i int, s *goquery.Selection) {
		if text := candidateText(s.Text()); keepCandidate(text) {
			candidates = append(candidates, text)
		}
	})

	if useImageMetadata {
		doc.Find("img").Each(func(i int, img *goquery.Selection) {
			for _, attr := range imageTextAttrs {
				if v, ok := img.Attr(attr); ok {
					if text := candidateText(v); keepCandidate(text) {
						candidates = append(candidates, text)
					}
				}
			}
			if caption := siblingCaption(img); keepCandidate(caption) {
				candidates = append(candidates, caption)
			}
		})
	}

	return dedupe(candidates)
}

// candidateText collapses horizontal whitespace but keeps line breaks:
// the ratio pattern spans two lines, so candidates from multi-line nodes
// must retain a literal newline between them.
func candidateText(input string) string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func keepCandidate(text string) bool {
	return utf8.RuneCountInString(text) >= 2
}

// siblingCaption returns the text of the first following sibling element
// with non-empty text, treated as the image's caption.
func siblingCaption(img *goquery.Selection) string {
	var caption string
	img.NextAll().EachWithBreak(func(i int, sib *goquery.Selection) bool {
		if text := candidateText(sib.Text()); text != "" {
			caption = text
			return false
		}
		return true
	})
	return caption
}

func dedupe(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
