// Package memory keeps exported report tabs in process, for tests and
// deployments without Google credentials.
package memory

import (
	"context"
	"slices"
	"sync"

	"tripsplit/internal/report"
	"tripsplit/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes int
}

var _ sheets.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{tabs: make(map[string][][]any)}
}

func (w *Writer) WriteReport(_ context.Context, prefix string, r report.Report) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sheet := range r.Sheets() {
		header := make([]any, len(sheet.Header))
		for i, h := range sheet.Header {
			header[i] = h
		}
		w.tabs[sheets.TabName(prefix, sheet.Name)] = append([][]any{header}, sheet.Rows...)
	}
	w.writes++
	return "mem:" + prefix, nil
}

// Tab returns a copy of the rows written to the named tab.
func (w *Writer) Tab(name string) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[name]
	return slices.Clone(rows), ok
}

// Writes returns how many reports were written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
