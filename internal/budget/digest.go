package budget

import (
	"fmt"
	"strings"
)

// Digest renders the period snapshot as a short natural-language summary
// for injection into the extraction prompt. It is a pure function of the
// ledger; when the period has no spending it degrades to a neutral
// message instead of fabricating numbers.
func Digest(snapshot Snapshot, monthlyBudget float64) string {
	if snapshot.TotalSpent == 0 {
		return "今月の支出データはまだありません。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "今月の支出合計は%.0f円、予算%.0f円に対して残りは%.0f円です。",
		snapshot.TotalSpent, monthlyBudget, snapshot.Remaining)

	top := snapshot.TopCategories(3)
	if len(top) > 0 {
		parts := make([]string, 0, len(top))
		for _, ct := range top {
			parts = append(parts, fmt.Sprintf("%s(%.0f円)", ct.Category, ct.Amount))
		}
		fmt.Fprintf(&b, "支出の多いカテゴリ: %s。", strings.Join(parts, ", "))
	}
	return b.String()
}
