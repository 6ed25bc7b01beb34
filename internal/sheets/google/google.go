package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"lifeboard/internal/core"
	ports "lifeboard/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client exports transactions to one tab per year of a spreadsheet
// ("2025 Transactions", "2026 Transactions", ...).
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// Ensure interface conformance
var _ ports.TransactionExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
}

// New creates a Sheets client authenticated with the service account in cfg.
// Extra options replace the credentials, which lets tests point the client
// at a local server.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetBase := strings.TrimSpace(cfg.SheetName)
	if sheetBase == "" {
		sheetBase = "Transactions"
	}

	if len(opts) == 0 {
		if len(cfg.CredentialsJSON) == 0 {
			return nil, errors.New("missing service account credentials")
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(cfg.CredentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetBase)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// Export appends tx to the tab of its transaction year unless a row with
// its ID already exists there.
func (c *Client) Export(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if tx.ID == "" {
		return "", errors.New("transaction has no id")
	}

	sheet := yearPrefixedName(c.sheetBase, tx.TransactionDate.Year())

	idRange := fmt.Sprintf("%s!%s:%s", sheet, idColumn, idColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, idRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read ids from %s: %w", sheet, err)
	}
	if row := findRow(resp.Values, tx.ID); row > 0 {
		slog.DebugContext(ctx, "Transaction already exported", "id", tx.ID, "row", row)
		return fmt.Sprintf("%s!A%d:%s%d", sheet, row, idColumn, row), nil
	}

	rng := fmt.Sprintf("%s!A:%s", sheet, idColumn)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}
	appended, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if appended.Updates != nil && appended.Updates.UpdatedRange != "" {
		ref = appended.Updates.UpdatedRange
	}
	return ref, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
