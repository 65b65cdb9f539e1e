package expense

import (
	"fmt"
	"strings"
)

// Sheet column order is a fixed serialization contract: changing it is a
// breaking change for every existing spreadsheet.
var header = []string{"日付", "品目", "カテゴリ", "金額", "コメント"}

// Column aliases accepted on read-back. Older sheets carry English
// headers; both spellings map onto the same logical columns.
var headerAliases = map[string]string{
	"日付":     "date",
	"date":   "date",
	"品目":     "item",
	"項目":     "item",
	"item":   "item",
	"カテゴリ":   "category",
	"カテゴリー":  "category",
	"category": "category",
	"金額":     "amount",
	"amount": "amount",
	"コメント":   "comment",
	"comment": "comment",
}

// Header returns the canonical header row.
func Header() []string {
	h := make([]string, len(header))
	copy(h, header)
	return h
}

// Row serializes the record in canonical column order for a sheet append.
func (r Record) Row() []any {
	return []any{r.Date.String(), r.Item, r.Category, r.Amount, r.Comment}
}

// DecodeRows converts raw sheet values (header row first) back into
// records. Headers are matched after whitespace trimming via the alias
// table. If either mandatory column (date, amount) is missing the sheet
// is considered unusable and an empty slice is returned; partially typed
// data would silently corrupt aggregation.
func DecodeRows(values [][]any) []Record {
	if len(values) == 0 {
		return nil
	}

	cols := map[string]int{}
	for i, cell := range values[0] {
		key := strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
		if name, ok := headerAliases[key]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil
	}
	if _, ok := cols["amount"]; !ok {
		return nil
	}

	records := make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		if isBlankRow(row) {
			continue
		}
		r := Record{
			Date:     ParseDate(cellAt(row, cols, "date")),
			Item:     cellAt(row, cols, "item"),
			Category: cellAt(row, cols, "category"),
			Amount:   ParseAmount(cellAt(row, cols, "amount")),
			Comment:  cellAt(row, cols, "comment"),
		}
		records = append(records, r.Normalized())
	}
	return records
}

func cellAt(row []any, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func isBlankRow(row []any) bool {
	for _, cell := range row {
		if strings.TrimSpace(fmt.Sprint(cell)) != "" {
			return false
		}
	}
	return true
}
