// Package codec parses and serializes the 14-column wirelist format. The
// column order and status codes are fixed by the drawing office; see Header.
// Parsing is best-effort: malformed rows are auto-fixed or excluded, and
// every fix or exclusion surfaces as a Warning. No row disappears silently.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

// Header lists the 14 columns in their fixed file order.
var Header = []string{
	"ROW_TYPE", "PANEL", "DEVICE_TAG", "TERMINAL",
	"TERM_KIND", "ELEM_ID", "DEVICE_PART",
	"TO_PANEL", "TO_DEVICE", "TO_TERMINAL",
	"CABLE_ID", "STATUS", "SIGNAL_ID", "REMARKS",
}

// ColumnCount is the fixed width of every row.
const ColumnCount = 14

// Positions of the columns within Header.
const (
	colRowType = iota
	colPanel
	colDevice
	colTerminal
	colTermKind
	colElemID
	colDevicePart
	colToPanel
	colToDevice
	colToTerminal
	colCableID
	colStatus
	colSignalID
	colRemarks
)

// ErrMissingHeader is returned when the input has no header row at all.
// A missing header is the only fatal parse condition; everything after it
// degrades to warnings.
var ErrMissingHeader = errors.New("codec: wirelist has no header row")

// Warning describes one non-fatal finding during parsing, tied to the
// physical line it was found on.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Report is the outcome of a parse: the records that survived, every
// warning raised, and how many rows were excluded outright.
type Report struct {
	Records  []record.Record
	Warnings []Warning
	Excluded int
}

// Parse reads a wirelist document. Row-shape problems (wrong field count,
// unknown status codes) are auto-fixed with a warning; wire rows missing
// their origin identity are excluded with a warning. The returned error is
// non-nil only for conditions no row-level policy can recover from.
func Parse(r io.Reader) (Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row shape is validated here, not by the reader
	cr.LazyQuotes = true

	var report Report

	header, err := cr.Read()
	if err == io.EOF {
		return report, ErrMissingHeader
	}
	if err != nil {
		return report, fmt.Errorf("codec: read header: %w", err)
	}
	columns, headerWarning := mapColumns(header)
	if headerWarning != "" {
		report.Warnings = append(report.Warnings, Warning{Line: 1, Message: headerWarning})
	}

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line := lineOf(cr, err)
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Warnings = append(report.Warnings, Warning{Line: line, Message: fmt.Sprintf("unreadable row (%v); row skipped", parseErr.Err)})
				report.Excluded++
				continue
			}
			return report, fmt.Errorf("codec: read row: %w", err)
		}
		fields, shapeWarning := fixShape(fields)
		if shapeWarning != "" {
			report.Warnings = append(report.Warnings, Warning{Line: line, Message: shapeWarning})
		}
		rec := recordFromRow(fields, columns)
		statusCell := fields[columns[colStatus]]
		if _, ok := record.StatusFromCode(statusCell); !ok {
			report.Warnings = append(report.Warnings, Warning{
				Line:    line,
				Message: fmt.Sprintf("unknown status %q; treating as pending", statusCell),
			})
		}
		if rec.IsWire() && !rec.From.Complete() {
			report.Warnings = append(report.Warnings, Warning{Line: line, Message: "wire row is missing its origin panel/device/terminal; row excluded"})
			report.Excluded++
			continue
		}
		report.Records = append(report.Records, rec)
	}
	return report, nil
}

// Write serializes records to the wirelist format: the fixed header line
// followed by one 14-column row per record, in the order given.
func Write(w io.Writer, records []record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("codec: write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rowOf(rec)); err != nil {
			return fmt.Errorf("codec: write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("codec: flush: %w", err)
	}
	return nil
}

// mapColumns resolves the column layout from the header row. A header whose
// normalized names are exactly the expected set may appear in any order and
// is mapped by name; anything else falls back to the standard positional
// layout with a warning. The returned slice maps canonical column index to
// the field position in each row.
func mapColumns(header []string) ([ColumnCount]int, string) {
	var columns [ColumnCount]int
	for i := range columns {
		columns[i] = i
	}
	if len(header) != ColumnCount {
		return columns, fmt.Sprintf("expected %d header columns, got %d; assuming standard column order", ColumnCount, len(header))
	}
	position := map[string]int{}
	for i, name := range header {
		position[record.Normalize(name)] = i
	}
	reordered := false
	for i, want := range Header {
		pos, ok := position[record.Normalize(want)]
		if !ok {
			return columns, fmt.Sprintf("header is missing column %s; assuming standard column order", want)
		}
		columns[i] = pos
		if pos != i {
			reordered = true
		}
	}
	if reordered {
		return columns, "header columns are out of the standard order; mapping by name"
	}
	return columns, ""
}

// fixShape pads short rows with empty fields and truncates long ones so
// every row downstream has exactly ColumnCount fields. The returned message
// is empty when the row was already well-shaped.
func fixShape(fields []string) ([]string, string) {
	switch {
	case len(fields) == ColumnCount:
		return fields, ""
	case len(fields) < ColumnCount:
		message := fmt.Sprintf("row has %d fields; right-padded to %d", len(fields), ColumnCount)
		padded := make([]string, ColumnCount)
		copy(padded, fields)
		return padded, message
	default:
		message := fmt.Sprintf("row has %d fields; truncated to %d", len(fields), ColumnCount)
		return fields[:ColumnCount], message
	}
}

func recordFromRow(fields []string, columns [ColumnCount]int) record.Record {
	cell := func(col int) string { return fields[columns[col]] }
	status, _ := record.StatusFromCode(cell(colStatus))
	return record.Record{
		RowType: cell(colRowType),
		From: record.TerminalRef{
			Panel:    cell(colPanel),
			Device:   cell(colDevice),
			Terminal: cell(colTerminal),
		},
		TermKind:   cell(colTermKind),
		ElemID:     cell(colElemID),
		DevicePart: cell(colDevicePart),
		To: record.TerminalRef{
			Panel:    cell(colToPanel),
			Device:   cell(colToDevice),
			Terminal: cell(colToTerminal),
		},
		CableID:  cell(colCableID),
		Status:   status,
		SignalID: cell(colSignalID),
		Remarks:  cell(colRemarks),
	}
}

func rowOf(rec record.Record) []string {
	return []string{
		rec.RowType,
		rec.From.Panel, rec.From.Device, rec.From.Terminal,
		rec.TermKind, rec.ElemID, rec.DevicePart,
		rec.To.Panel, rec.To.Device, rec.To.Terminal,
		rec.CableID, rec.Status.Code(), rec.SignalID, rec.Remarks,
	}
}

// lineOf reports the physical line a just-read row started on, surviving
// both the success and the error path.
func lineOf(cr *csv.Reader, err error) int {
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return parseErr.Line
		}
		return 0
	}
	line, _ := cr.FieldPos(0)
	return line
}
