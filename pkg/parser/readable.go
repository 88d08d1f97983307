package parser

import (
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

const excerptLimit = 280

// Readable is the distilled article view of a page, used for snapshot
// excerpts and language detection.
type Readable struct {
	Title   string
	Excerpt string
	Text    string
}

// Distill runs go-readability over raw HTML. Pages without a recognizable
// article body come back empty rather than as an error; the caller treats
// the result as best-effort enrichment.
func Distill(rawURL, html string) Readable {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Readable{}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return Readable{}
	}

	text := NormalizeText(article.TextContent)
	excerpt := NormalizeText(article.Excerpt)
	if excerpt == "" {
		excerpt = truncate(text, excerptLimit)
	}

	return Readable{
		Title:   NormalizeText(article.Title),
		Excerpt: excerpt,
		Text:    text,
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
