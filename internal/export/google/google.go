// Package google exports closed monthly archives to a Google Sheets
// spreadsheet: one summary row per month plus the month's entry and
// withdrawal rows on a shared detail sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cashrecon/internal/core"
	"cashrecon/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
	detailSheet   string
}

var _ export.ArchiveExporter = (*Client)(nil)

// NewFromEnv creates a Sheets exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SUMMARY_SHEET_NAME (default "Monthly Summary") and
// GOOGLE_DETAIL_SHEET_NAME (default "Closed Months").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	summarySheet := strings.TrimSpace(os.Getenv("GOOGLE_SUMMARY_SHEET_NAME"))
	if summarySheet == "" {
		summarySheet = "Monthly Summary"
	}
	detailSheet := strings.TrimSpace(os.Getenv("GOOGLE_DETAIL_SHEET_NAME"))
	if detailSheet == "" {
		detailSheet = "Closed Months"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  summarySheet,
		detailSheet:   detailSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportArchive appends the month's summary row and detail rows. Rows are
// appended, never rewritten, so re-exporting a month adds a fresh block; the
// summary row's close timestamp disambiguates.
func (c *Client) ExportArchive(ctx context.Context, a core.MonthlyArchive) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	closedAt := ""
	if a.ClosedAt != nil {
		closedAt = a.ClosedAt.UTC().Format("2006-01-02 15:04:05")
	}
	summary := [][]any{{
		a.Month,
		a.StartingFrontSafe.Dollars(),
		a.StartingBackSafe.Dollars(),
		a.EndingFrontSafe.Dollars(),
		a.EndingBackSafe.Dollars(),
		len(a.Entries),
		len(a.Withdrawals),
		closedAt,
	}}
	if err := c.appendRows(ctx, c.summarySheet, summary); err != nil {
		return fmt.Errorf("append summary for %s: %w", a.Month, err)
	}

	detail := make([][]any, 0, len(a.Entries)+len(a.Withdrawals))
	for i := len(a.Entries) - 1; i >= 0; i-- { // archive holds newest-first; export chronologically
		e := a.Entries[i]
		detail = append(detail, []any{
			a.Month, e.Date, "entry",
			e.CashIn.Dollars(), e.Deposited.Dollars(), e.ToBackSafe.Dollars(),
			e.LeftInFront.Dollars(), e.Difference.Dollars(),
			e.Notes,
		})
	}
	for i := len(a.Withdrawals) - 1; i >= 0; i-- {
		w := a.Withdrawals[i]
		detail = append(detail, []any{
			a.Month, w.Date, "withdrawal",
			"", "", "", "", w.Amount.Dollars(),
			w.Reason,
		})
	}
	if len(detail) == 0 {
		return nil
	}
	if err := c.appendRows(ctx, c.detailSheet, detail); err != nil {
		return fmt.Errorf("append detail for %s: %w", a.Month, err)
	}
	return nil
}

func (c *Client) appendRows(ctx context.Context, sheetName string, rows [][]any) error {
	rng := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}
