package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
)

// JSONExporter exports audit events to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes the events to w as a JSON array, preserving trail order.
// An empty trail exports as an empty array.
func (e *JSONExporter) Export(ctx context.Context, events []audit.Event, w io.Writer) error {
	if events == nil {
		events = []audit.Event{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(events, "", "  ")
	} else {
		data, err = json.Marshal(events)
	}
	if err != nil {
		return fmt.Errorf("json export of %d events failed: %w", len(events), err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("json export of %d events failed: %w", len(events), err)
	}
	return nil
}
