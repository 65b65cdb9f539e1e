// Package ledger persists expense records to the spreadsheet of record.
// The sheet is the sole store: this package is append-only and never
// updates or deletes existing rows.
package ledger

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/ysaito/kakeibo/internal/expense"
)

// Store is the ledger boundary the ingestion pipeline depends on. It is
// satisfied by SheetsStore in production and by test doubles elsewhere.
type Store interface {
	Append(ctx context.Context, records []expense.Record) error
	ReadAll(ctx context.Context) ([]expense.Record, error)
}

// SheetsStore appends to and reads from one Google Sheets tab.
type SheetsStore struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

var _ Store = (*SheetsStore)(nil)

// NewSheetsStore creates a store for the given spreadsheet and tab.
// Credential options (service-account JSON, scopes) are passed through to
// the Sheets service.
func NewSheetsStore(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("ledger: missing spreadsheet ID")
	}
	if sheetName == "" {
		return nil, fmt.Errorf("ledger: missing sheet name")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger: create sheets service: %w", err)
	}

	return &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
	}, nil
}

func (s *SheetsStore) dataRange() string {
	return fmt.Sprintf("%s!A:E", s.sheetName)
}

// Append writes all records as one batch, preserving input order. Every
// row is stamped with the same ingestion date from the server clock. On
// an empty sheet the header row is written in the same batch, so a
// half-initialized sheet is never left behind.
func (s *SheetsStore) Append(ctx context.Context, records []expense.Record) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ledger: check sheet %s: %w", s.sheetName, err)
	}

	var rows [][]any
	if len(existing.Values) == 0 {
		rows = append(rows, headerRow())
	}

	ingested := civil.DateOf(s.now())
	for _, r := range records {
		r = r.Normalized()
		r.Date = ingested
		rows = append(rows, r.Row())
	}

	vr := &gsheet.ValueRange{Values: rows}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.dataRange(), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ledger: append to sheet %s: %w", s.sheetName, err)
	}
	return nil
}

// ReadAll returns every record in the sheet. A sheet whose header lacks
// the mandatory date or amount columns decodes to an empty result; a
// transport or permission failure is returned so the caller can fall
// back to an empty state explicitly.
func (s *SheetsStore) ReadAll(ctx context.Context) ([]expense.Record, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ledger: read sheet %s: %w", s.sheetName, err)
	}
	return expense.DecodeRows(resp.Values), nil
}

// CredentialOptions builds the client options for the Sheets service
// from service-account credentials. With neither set, Application
// Default Credentials apply.
func CredentialOptions(credentialsJSON, credentialsFile string) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return opts
}

func headerRow() []any {
	h := expense.Header()
	row := make([]any, len(h))
	for i, cell := range h {
		row[i] = cell
	}
	return row
}
