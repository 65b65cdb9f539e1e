// Package budget derives spending summaries from ledger records. Nothing
// here is cached: a snapshot is always recomputed from the full ledger so
// presentation can never drift from the spreadsheet of record.
package budget

import (
	"sort"
	"time"

	"github.com/ysaito/kakeibo/internal/expense"
)

// Period identifies one calendar month. Matching is calendar-aware, not a
// string-prefix comparison, so it survives date formatting drift in the
// sheet.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether the record date falls inside the period.
// Records without a parseable date never match.
func (p Period) Contains(r expense.Record) bool {
	return r.HasDate() && r.Date.Year == p.Year && r.Date.Month == p.Month
}

// Snapshot is the derived spending summary for one period.
type Snapshot struct {
	TotalSpent float64            `json:"total_spent"`
	Remaining  float64            `json:"remaining"`
	Ratio      float64            `json:"ratio"`
	ByCategory map[string]float64 `json:"by_category"`
}

// CategoryTotal is one entry of a descending top-N category slice.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Summarize filters records to the period and computes totals against the
// monthly budget. Remaining may go negative; it is deliberately not
// clamped. A non-positive budget yields ratio 0 rather than dividing by
// zero.
func Summarize(records []expense.Record, p Period, monthlyBudget float64) Snapshot {
	s := Snapshot{
		Remaining:  monthlyBudget,
		ByCategory: map[string]float64{},
	}

	for _, r := range records {
		if !p.Contains(r) {
			continue
		}
		s.TotalSpent += r.Amount
		s.ByCategory[r.Category] += r.Amount
	}

	s.Remaining = monthlyBudget - s.TotalSpent
	if monthlyBudget > 0 {
		s.Ratio = s.TotalSpent / monthlyBudget
		if s.Ratio > 1 {
			s.Ratio = 1
		}
	}
	return s
}

// TopCategories returns up to n categories ordered by descending spend.
// Ties break on category name to keep the output deterministic.
func (s Snapshot) TopCategories(n int) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(s.ByCategory))
	for cat, amount := range s.ByCategory {
		totals = append(totals, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].Category < totals[j].Category
	})
	if n < len(totals) {
		totals = totals[:n]
	}
	return totals
}
