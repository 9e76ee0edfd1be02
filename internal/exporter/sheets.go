package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sharkclean/internal/config"
	"sharkclean/internal/errors"
	"sharkclean/pkg/contracts/domain"
)

// sheetsBatchRows keeps each update request well under the API payload cap
const sheetsBatchRows = 5000

// valuesClient is the slice of the Sheets API the writer needs
type valuesClient interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
}

type serviceClient struct {
	svc *sheets.Service
}

func (c *serviceClient) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (c *serviceClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// SheetsWriter replaces one tab of a Google spreadsheet with a table
type SheetsWriter struct {
	client        valuesClient
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// NewSheetsWriter authenticates with the service account key at
// credentialsPath.
func NewSheetsWriter(ctx context.Context, cfg config.SheetsConfig, credentialsPath string, logger *slog.Logger) (*SheetsWriter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.NewAppValidationError("spreadsheet id is required for sheets export")
	}

	credentialsJSON, err := os.ReadFile(credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError("sheets credentials file not found", err).
				WithContext("path", credentialsPath)
		}
		return nil, errors.NewConfigError("failed to read sheets credentials", err)
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, errors.NewNetworkError("failed to create sheets service", err)
	}

	return newSheetsWriter(&serviceClient{svc: svc}, cfg, logger), nil
}

func newSheetsWriter(client valuesClient, cfg config.SheetsConfig, logger *slog.Logger) *SheetsWriter {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.SheetName
	if name == "" {
		name = DefaultSheetName
	}
	return &SheetsWriter{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		logger:        logger.With(slog.String("component", "sheets_writer")),
	}
}

// WriteTable clears the tab and writes t, header first, in batches
func (w *SheetsWriter) WriteTable(ctx context.Context, t *domain.Table) error {
	w.logger.InfoContext(ctx, "Pushing table to Google Sheets",
		slog.String("sheet", w.sheetName),
		slog.Int("rows", t.Len()))

	if err := w.client.Clear(ctx, w.spreadsheetID, quoteSheet(w.sheetName)); err != nil {
		return errors.NewNetworkError("failed to clear sheet", err).WithContext("sheet", w.sheetName)
	}

	rows := tableRows(t, sheetValue)
	for start := 0; start < len(rows); start += sheetsBatchRows {
		end := start + sheetsBatchRows
		if end > len(rows) {
			end = len(rows)
		}
		rng := fmt.Sprintf("%s!A%d", quoteSheet(w.sheetName), start+1)
		if err := w.client.Update(ctx, w.spreadsheetID, rng, rows[start:end]); err != nil {
			return errors.NewNetworkError("failed to update sheet", err).
				WithContext("sheet", w.sheetName).
				WithContext("first_row", start+1)
		}
		w.logger.DebugContext(ctx, "Sheet batch written",
			slog.Int("from_row", start+1),
			slog.Int("to_row", end))
	}

	w.logger.InfoContext(ctx, "Google Sheets export completed",
		slog.Int("rows_written", len(rows)))
	return nil
}

// quoteSheet wraps a tab name for A1 notation
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
