package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"reportbot/internal/executor"
)

// InlineLimit is the largest result set delivered as inline rows. Anything
// bigger ships as a spreadsheet attachment.
const InlineLimit = 10

// Shaped is a query outcome prepared for delivery to a client or mailbox.
type Shaped struct {
	Type     string           `json:"type"`
	Rows     []map[string]any `json:"rows,omitempty"`
	RowCount int              `json:"row_count,omitempty"`
	File     string           `json:"file,omitempty"`
	Filename string           `json:"filename,omitempty"`
	Message  string           `json:"message,omitempty"`
}

const (
	TypeRows    = "rows"
	TypeFile    = "file"
	TypeMessage = "message"
	TypeError   = "error"
)

// ShapeOutcome applies the delivery policy: small result sets go inline,
// large ones become a base64 xlsx blob, everything else is a message.
func ShapeOutcome(out executor.Outcome) (Shaped, error) {
	switch out.Kind {
	case executor.KindRows:
		if len(out.Rows) <= InlineLimit {
			return Shaped{Type: TypeRows, Rows: out.Rows, RowCount: len(out.Rows)}, nil
		}
		blob, err := buildWorkbook(out.Columns, out.Rows)
		if err != nil {
			return Shaped{}, fmt.Errorf("building spreadsheet failed: %w", err)
		}
		return Shaped{
			Type:     TypeFile,
			RowCount: len(out.Rows),
			File:     base64.StdEncoding.EncodeToString(blob),
			Filename: fmt.Sprintf("query_results_%s.xlsx", time.Now().Format("20060102_150405")),
			Message:  fmt.Sprintf("Query returned %d rows. Results attached as a spreadsheet.", len(out.Rows)),
		}, nil
	case executor.KindAffected, executor.KindEmpty:
		return Shaped{Type: TypeMessage, Message: out.Message}, nil
	case executor.KindError:
		return Shaped{Type: TypeError, Message: out.Message}, nil
	default:
		return Shaped{}, fmt.Errorf("unrecognized outcome kind %q", out.Kind)
	}
}

func buildWorkbook(columns []string, rows []map[string]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cells := make([]any, len(columns))
		for j, col := range columns {
			cells[j] = row[col]
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
