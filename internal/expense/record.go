package expense

import (
	"cloud.google.com/go/civil"
)

// Sentinel values used when the extraction model omits a field.
// Every Record field has a safe default so a sparse model response can
// never break ingestion.
const (
	DefaultItem     = "不明"
	DefaultCategory = "その他"
	DefaultComment  = "なし"
)

// Record is one expense line in the ledger.
//
// Date is assigned at ingestion time from the server clock, never taken
// from the model output. A zero Date means the source cell could not be
// parsed; such records are kept but excluded from period aggregation.
type Record struct {
	Date     civil.Date `json:"date"`
	Item     string     `json:"item"`
	Category string     `json:"category"`
	Amount   float64    `json:"amount"`
	Comment  string     `json:"comment"`
}

// Normalized returns a copy of r with every empty field replaced by its
// sentinel default and the amount clamped to be non-negative.
func (r Record) Normalized() Record {
	if r.Item == "" {
		r.Item = DefaultItem
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Comment == "" {
		r.Comment = DefaultComment
	}
	if r.Amount < 0 {
		r.Amount = 0
	}
	return r
}

// HasDate reports whether the record carries a parseable calendar date.
func (r Record) HasDate() bool {
	return r.Date.IsValid()
}
