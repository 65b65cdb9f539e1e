package extract

import (
	"fmt"
	"strings"

	"github.com/ysaito/kakeibo/internal/expense"
)

// FixedExpenseTrigger is the utterance that makes the model return the
// fixed-expense template instead of transcribing individual amounts.
const FixedExpenseTrigger = "固定費"

// FixedExpenseTemplate returns the default monthly fixed expenses. The
// prompt embeds these verbatim; callers can swap the set via
// WithFixedExpenseTemplate without touching client code.
func FixedExpenseTemplate() []expense.Record {
	return []expense.Record{
		{Item: "家賃", Category: "固定費", Amount: 70000, Comment: "毎月の固定費"},
		{Item: "光熱費", Category: "固定費", Amount: 15000, Comment: "毎月の固定費"},
		{Item: "携帯代", Category: "固定費", Amount: 8000, Comment: "毎月の固定費"},
	}
}

func buildPrompt(promptContext string, template []expense.Record) string {
	var b strings.Builder

	b.WriteString("あなたは家計簿アプリの支出抽出エンジンです。\n")
	b.WriteString("添付された音声またはレシート画像から支出を読み取ってください。\n\n")

	b.WriteString("Task:\n")
	b.WriteString("- Extract EVERY expense mentioned in the attached media.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")

	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"item\": string (品目, e.g. \"コーヒー\")\n")
	b.WriteString("- \"category\": string (カテゴリ, e.g. \"食費\", \"交通費\", \"固定費\")\n")
	b.WriteString("- \"amount\": number (金額, yen, non-negative)\n")
	b.WriteString("- \"comment\": string (one short advisory sentence in Japanese)\n\n")

	if promptContext != "" {
		b.WriteString("Current budget context (use it for the advisory comment):\n")
		b.WriteString(promptContext)
		b.WriteString("\n\n")
	}

	if len(template) > 0 {
		fmt.Fprintf(&b, "Special rule: if the utterance mentions %q, ignore any literal amounts and return EXACTLY this array:\n", FixedExpenseTrigger)
		b.WriteString("[")
		for i, r := range template {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"item":%q,"category":%q,"amount":%.0f,"comment":%q}`,
				r.Item, r.Category, r.Amount, r.Comment)
		}
		b.WriteString("]\n\n")
	}

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")

	return b.String()
}
