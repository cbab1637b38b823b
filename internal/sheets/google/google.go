// Package google writes settlement reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tripsplit/internal/log"
	"tripsplit/internal/report"
	"tripsplit/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ sheets.ReportWriter = (*Client)(nil)

// New creates a Sheets client. Without explicit options it authenticates with
// the configured service account, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		creds, err := credentialsJSON(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
		logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(creds))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, logger: logger}, nil
}

func credentialsJSON(cfg Config) ([]byte, error) {
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if cfg.ServiceAccountJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport creates any missing tabs, clears them and writes the report
// rows in one batch.
func (c *Client) WriteReport(ctx context.Context, prefix string, r report.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	tabs := r.Sheets()
	titles := make([]string, len(tabs))
	for i, s := range tabs {
		titles[i] = sheets.TabName(prefix, s.Name)
	}

	if err := c.ensureTabs(ctx, titles); err != nil {
		return "", err
	}

	ranges := make([]string, len(titles))
	data := make([]*gsheet.ValueRange, len(tabs))
	for i, s := range tabs {
		ranges[i] = quoteTitle(titles[i])
		data[i] = &gsheet.ValueRange{
			Range:  quoteTitle(titles[i]) + "!A1",
			Values: sheetValues(s),
		}
	}

	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID,
		&gsheet.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear tabs: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write tabs: %w", err)
	}

	c.logger.InfoContext(ctx, "Report written to Google Sheets",
		log.FieldSheetsRef, c.spreadsheetID, "tabs", strings.Join(titles, ","))
	return "https://docs.google.com/spreadsheets/d/" + c.spreadsheetID, nil
}

func (c *Client) ensureTabs(ctx context.Context, titles []string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, title := range titles {
		if !existing[title] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: title},
				},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID,
		&gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tabs: %w", err)
	}
	c.logger.DebugContext(ctx, "Created missing tabs", "count", len(reqs))
	return nil
}

func sheetValues(s report.Sheet) [][]any {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	return append([][]any{header}, s.Rows...)
}

// quoteTitle escapes a tab title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
