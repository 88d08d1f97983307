// Package parser lifts structured content off parsed HTML pages: tables,
// same-origin links, and a readability-distilled excerpt.
package parser

import (
	"bufio"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/urlutil"
)

// ExtractTables collects every <table> in the document. Headers come from
// the thead row when present, else the first row; body rows repeating the
// header row are skipped. Tables with neither headers nor rows are dropped.
func ExtractTables(doc *goquery.Document) []models.Table {
	var tables []models.Table

	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var headers []string
		table.Find("thead tr").First().Find("th,td").Each(func(j int, cell *goquery.Selection) {
			headers = append(headers, NormalizeText(cell.Text()))
		})
		if len(headers) == 0 {
			table.Find("tr").First().Find("th,td").Each(func(j int, cell *goquery.Selection) {
				headers = append(headers, NormalizeText(cell.Text()))
			})
		}

		rowSel := table.Find("tbody tr")
		if rowSel.Length() == 0 {
			rowSel = table.Find("tr")
		}

		var rows [][]string
		rowSel.Each(func(j int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td,th").Each(func(k int, cell *goquery.Selection) {
				cells = append(cells, NormalizeText(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if len(headers) > 0 && slices.Equal(cells, headers) {
				return
			}
			rows = append(rows, cells)
		})

		if len(headers) > 0 || len(rows) > 0 {
			tables = append(tables, models.Table{Headers: headers, Rows: rows})
		}
	})

	return tables
}

// Links returns the cleaned absolute same-origin http(s) link targets of the
// document, resolved against base, duplicate-free in document order.
func Links(doc *goquery.Document, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := urlutil.Clean(baseURL.ResolveReference(ref).String())
		if !strings.HasPrefix(abs, "http") {
			return
		}
		if !urlutil.SameOrigin(base, abs) {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}

// NormalizeText cleans up a string by trimming each line and joining the
// non-empty lines with single spaces.
func NormalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
