package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ysaito/kakeibo/internal/expense"
)

// DecodeRecords parses raw model output into normalized records. The
// model is told to emit a bare JSON array, but markdown fences and a
// single-object response are tolerated. Missing fields fall back to the
// record defaults; a response with no parseable JSON is an error.
func DecodeRecords(raw string) ([]expense.Record, error) {
	clean := cleanModelJSON(raw)

	var items []map[string]any
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		// A single object is normalized into a one-element list.
		var single map[string]any
		if err2 := json.Unmarshal([]byte(clean), &single); err2 != nil {
			return nil, fmt.Errorf("decode model output: %w\nraw response: %s", err, raw)
		}
		items = []map[string]any{single}
	}

	records := make([]expense.Record, 0, len(items))
	for _, obj := range items {
		r := expense.Record{
			Item:     stringField(obj, "item"),
			Category: stringField(obj, "category"),
			Amount:   amountField(obj, "amount"),
			Comment:  stringField(obj, "comment"),
		}
		records = append(records, r.Normalized())
	}
	return records, nil
}

// cleanModelJSON strips the wrapping artifacts models produce when they
// ignore the formatting instructions: code fences and prose around the
// JSON payload.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if junk remains around it.
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start != -1 && end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// amountField accepts a JSON number or a formatted string; anything else
// coerces to 0 per the record defaulting rules.
func amountField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		return expense.ParseAmount(v)
	default:
		return 0
	}
}
