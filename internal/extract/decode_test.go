package extract

import (
	"strings"
	"testing"

	"github.com/ysaito/kakeibo/internal/expense"
)

func TestDecodeRecords(t *testing.T) {
	t.Run("plain array", func(t *testing.T) {
		raw := `[{"item":"コーヒー","category":"食費","amount":300,"comment":"ok"}]`

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		want := expense.Record{Item: "コーヒー", Category: "食費", Amount: 300, Comment: "ok"}
		if records[0] != want {
			t.Errorf("got %+v, want %+v", records[0], want)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		raw := "```json\n[{\"item\":\"昼食\",\"category\":\"食費\",\"amount\":800,\"comment\":\"ok\"}]\n```"

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 1 || records[0].Amount != 800 {
			t.Errorf("got %+v", records)
		}
	})

	t.Run("single object normalized to list", func(t *testing.T) {
		raw := `{"item":"電車","category":"交通費","amount":500,"comment":"ok"}`

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 1 || records[0].Item != "電車" {
			t.Errorf("got %+v", records)
		}
	})

	t.Run("missing fields get defaults", func(t *testing.T) {
		raw := `[{"amount":300}]`

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		r := records[0]
		if r.Item != expense.DefaultItem || r.Category != expense.DefaultCategory || r.Comment != expense.DefaultComment {
			t.Errorf("defaults not applied: %+v", r)
		}
	})

	t.Run("amount as formatted string", func(t *testing.T) {
		raw := `[{"item":"本","category":"書籍","amount":"¥1,500","comment":"ok"}]`

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if records[0].Amount != 1500 {
			t.Errorf("Amount = %v, want 1500", records[0].Amount)
		}
	})

	t.Run("negative amount clamped", func(t *testing.T) {
		raw := `[{"item":"返金","category":"その他","amount":-300,"comment":"ok"}]`

		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if records[0].Amount != 0 {
			t.Errorf("Amount = %v, want 0", records[0].Amount)
		}
	})

	t.Run("malformed output is an error", func(t *testing.T) {
		if _, err := DecodeRecords("すみません、聞き取れませんでした。"); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})

	t.Run("empty array", func(t *testing.T) {
		records, err := DecodeRecords("[]")
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})
}

func TestDecodeRecordsAllFieldsPresent(t *testing.T) {
	// Whatever shape the model returns, a decoded record never has an
	// empty field or a negative amount.
	raws := []string{
		`[{}]`,
		`[{"item":"x"}]`,
		`[{"amount":"abc"}]`,
		`{"comment":"only a comment"}`,
	}
	for _, raw := range raws {
		records, err := DecodeRecords(raw)
		if err != nil {
			t.Fatalf("DecodeRecords(%q): %v", raw, err)
		}
		for _, r := range records {
			if r.Item == "" || r.Category == "" || r.Comment == "" || r.Amount < 0 {
				t.Errorf("DecodeRecords(%q) produced unsafe record %+v", raw, r)
			}
		}
	}
}

func TestFixedExpenseTemplate(t *testing.T) {
	tmpl := FixedExpenseTemplate()

	if len(tmpl) != 3 {
		t.Fatalf("got %d template records, want 3", len(tmpl))
	}
	wantAmounts := map[string]float64{"家賃": 70000, "光熱費": 15000, "携帯代": 8000}
	for _, r := range tmpl {
		want, ok := wantAmounts[r.Item]
		if !ok {
			t.Errorf("unexpected template item %q", r.Item)
			continue
		}
		if r.Amount != want {
			t.Errorf("%s amount = %v, want %v", r.Item, r.Amount, want)
		}
		if r.Category != "固定費" {
			t.Errorf("%s category = %q, want 固定費", r.Item, r.Category)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("今月の支出合計は800円です。", FixedExpenseTemplate())

	for _, want := range []string{
		FixedExpenseTrigger,
		`"家賃"`,
		"70000",
		"今月の支出合計は800円です。",
		"JSON array",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// The embedded template itself must be decodable through the same
	// code path as a real model response.
	start := strings.Index(prompt, "[{")
	end := strings.Index(prompt, "}]")
	if start == -1 || end == -1 {
		t.Fatal("prompt does not embed the template array")
	}
	records, err := DecodeRecords(prompt[start : end+2])
	if err != nil {
		t.Fatalf("embedded template does not decode: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("embedded template decoded to %d records, want 3", len(records))
	}
}

func TestBuildPromptWithoutContext(t *testing.T) {
	prompt := buildPrompt("", nil)

	if strings.Contains(prompt, "budget context") {
		t.Error("empty context must not leave a dangling context section")
	}
	if strings.Contains(prompt, "Special rule") {
		t.Error("empty template must not leave a dangling special rule")
	}
}
