package models

import "time"

// ConversionRecord is a normalized statement that one unit of Source equals
// Rate units of Target, scoped to the page it was parsed from. Records are
// unique per (PageURL, Source, Target); re-extraction overwrites Rate and
// Text for an existing pair.
type ConversionRecord struct {
	PageURL   string     `json:"page_url"`
	PageTitle string     `json:"page_title,omitempty"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Rate      float64    `json:"rate"`
	Text      string     `json:"text,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
