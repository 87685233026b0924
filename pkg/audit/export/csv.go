package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
)

// CSVExporter exports audit events to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes the events to w as CSV rows, preserving trail order.
func (e *CSVExporter) Export(ctx context.Context, events []audit.Event, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return fmt.Errorf("csv export of %d events failed: %w", len(events), err)
		}
	}

	for _, event := range events {
		if err := writer.Write(eventToRow(event)); err != nil {
			return fmt.Errorf("csv export of %d events failed: %w", len(events), err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// headerRow returns the CSV column names.
func headerRow() []string {
	return []string{
		"id",
		"session_id",
		"turn",
		"kind",
		"outcome",
		"actor",
		"ring",
		"boundary_type",
		"detail",
		"recorded_at",
	}
}

// eventToRow flattens one event into a CSV row.
func eventToRow(event audit.Event) []string {
	ring := ""
	if event.Ring != nil {
		ring = event.Ring.String()
	}
	return []string{
		event.ID,
		event.SessionID,
		strconv.Itoa(event.Turn),
		string(event.Kind),
		string(event.Outcome),
		event.Actor,
		ring,
		string(event.BoundaryType),
		event.Detail,
		event.RecordedAt.Format(time.RFC3339Nano),
	}
}
