package models

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	URL      string `json:"url"`
	Crawl    bool   `json:"crawl"`
	MaxPages int    `json:"max_pages"`
}

// ExtractRequest is the body of POST /api/extract. Exactly one of URL or ID
// must be set. OCR enables reading image metadata (alt/title/aria-label and
// sibling captions) as extra candidate text.
type ExtractRequest struct {
	URL string `json:"url,omitempty"`
	ID  int64  `json:"id,omitempty"`
	OCR bool   `json:"ocr"`
}

// ConversionsUpsert is the body of POST /api/conversions/upsert.
type ConversionsUpsert struct {
	PageURL   string             `json:"page_url"`
	PageTitle string             `json:"page_title,omitempty"`
	Items     []ConversionRecord `json:"items"`
}
