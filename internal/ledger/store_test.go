package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/ysaito/kakeibo/internal/expense"
)

// fakeSheet emulates the two Sheets API calls the store makes:
// values.get and values.append.
type fakeSheet struct {
	values    [][]any
	getErr    int // HTTP status to fail GETs with, 0 = succeed
	appendErr int
}

func (f *fakeSheet) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, ":append"):
			if f.appendErr != 0 {
				http.Error(w, `{"error":{"message":"boom"}}`, f.appendErr)
				return
			}
			var vr gsheet.ValueRange
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.values = append(f.values, vr.Values...)
			json.NewEncoder(w).Encode(&gsheet.AppendValuesResponse{})
		case r.Method == http.MethodGet:
			if f.getErr != 0 {
				http.Error(w, `{"error":{"message":"boom"}}`, f.getErr)
				return
			}
			json.NewEncoder(w).Encode(&gsheet.ValueRange{Values: f.values})
		default:
			http.Error(w, "unexpected call", http.StatusNotImplemented)
		}
	})
}

func newTestStore(t *testing.T, fake *fakeSheet) *SheetsStore {
	t.Helper()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	svc, err := gsheet.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(ts.URL))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}

	return &SheetsStore{
		svc:           svc,
		spreadsheetID: "test-spreadsheet",
		sheetName:     "家計簿",
		now: func() time.Time {
			return time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestAppendWritesHeaderOnEmptySheet(t *testing.T) {
	fake := &fakeSheet{}
	store := newTestStore(t, fake)

	records := []expense.Record{
		{Item: "コーヒー", Category: "食費", Amount: 300, Comment: "ok"},
		{Item: "電車", Category: "交通費", Amount: 500, Comment: "ok"},
	}
	if err := store.Append(context.Background(), records); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(fake.values) != 3 {
		t.Fatalf("sheet has %d rows, want header + 2 data rows", len(fake.values))
	}
	if fake.values[0][0] != "日付" {
		t.Errorf("first row = %v, want header", fake.values[0])
	}
	// Input order preserved, all rows share the ingestion date.
	if fake.values[1][1] != "コーヒー" || fake.values[2][1] != "電車" {
		t.Errorf("data rows out of order: %v", fake.values[1:])
	}
	for _, row := range fake.values[1:] {
		if row[0] != "2025-04-10" {
			t.Errorf("row date = %v, want 2025-04-10", row[0])
		}
	}
}

func TestAppendSkipsHeaderOnPopulatedSheet(t *testing.T) {
	fake := &fakeSheet{values: [][]any{
		{"日付", "品目", "カテゴリ", "金額", "コメント"},
		{"2025-04-01", "昼食", "食費", "800", "ok"},
	}}
	store := newTestStore(t, fake)

	err := store.Append(context.Background(), []expense.Record{
		{Item: "本", Category: "書籍", Amount: 1500, Comment: "ok"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(fake.values) != 3 {
		t.Fatalf("sheet has %d rows, want 3", len(fake.values))
	}
	if fake.values[2][1] != "本" {
		t.Errorf("appended row = %v", fake.values[2])
	}
}

func TestAppendNothing(t *testing.T) {
	fake := &fakeSheet{getErr: http.StatusInternalServerError}
	store := newTestStore(t, fake)

	// Zero records must not touch the sheet at all.
	if err := store.Append(context.Background(), nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
}

func TestAppendSurfacesStoreErrors(t *testing.T) {
	fake := &fakeSheet{appendErr: http.StatusForbidden}
	store := newTestStore(t, fake)

	err := store.Append(context.Background(), []expense.Record{{Item: "x", Amount: 1}})
	if err == nil {
		t.Fatal("expected error from append failure")
	}
}

func TestReadAll(t *testing.T) {
	fake := &fakeSheet{values: [][]any{
		{" 日付 ", "品目", "カテゴリ", " 金額 ", "コメント"},
		{"2025-04-01", "コーヒー", "食費", "¥1,000", "ok"},
		{"2025-04-02", "電車", "交通費", "abc", "ok"},
	}}
	store := newTestStore(t, fake)

	records, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Amount != 1000 {
		t.Errorf("Amount = %v, want 1000 after currency coercion", records[0].Amount)
	}
	if records[1].Amount != 0 {
		t.Errorf("Amount = %v, want 0 for unparseable cell", records[1].Amount)
	}
	if records[0].Date != (civil.Date{Year: 2025, Month: 4, Day: 1}) {
		t.Errorf("Date = %v", records[0].Date)
	}
}

func TestReadAllTransportError(t *testing.T) {
	fake := &fakeSheet{getErr: http.StatusUnauthorized}
	store := newTestStore(t, fake)

	if _, err := store.ReadAll(context.Background()); err == nil {
		t.Fatal("expected error from read failure")
	}
}
