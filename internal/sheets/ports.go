// Package sheets defines the spreadsheet export port.
package sheets

import (
	"context"

	"tripsplit/internal/report"
)

// ReportWriter publishes a settlement report as spreadsheet tabs. Tabs are
// named "<prefix> <sheet>", or just "<sheet>" when prefix is empty, and are
// overwritten on every write. It returns a reference to the written document.
type ReportWriter interface {
	WriteReport(ctx context.Context, prefix string, r report.Report) (ref string, err error)
}

// TabName joins a prefix and a sheet name.
func TabName(prefix, sheet string) string {
	if prefix == "" {
		return sheet
	}
	return prefix + " " + sheet
}
