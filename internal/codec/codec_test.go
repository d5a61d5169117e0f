package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		{
			RowType:    record.RowTypeWire,
			From:       record.TerminalRef{Panel: "P1", Device: "K101", Terminal: "X1:4"},
			TermKind:   "screw",
			ElemID:     "E7",
			DevicePart: "coil",
			To:         record.TerminalRef{Panel: "P2", Device: "F202", Terminal: "X2:9"},
			CableID:    "W-1041",
			Status:     record.StatusConfirmed,
			SignalID:   "SIG-PUMP-RUN",
			Remarks:    "verified at panel",
		},
		{
			RowType: record.RowTypeWire,
			From:    record.TerminalRef{Panel: "P2", Device: "F202", Terminal: "X2:10"},
			To:      record.TerminalRef{Panel: "P3", Device: "M3", Terminal: "U"},
			CableID: "W-1042",
			Status:  record.StatusUnconfirmed,
			Remarks: "loose lug, retorque",
		},
		{
			RowType: "note",
			From:    record.TerminalRef{Panel: "P1", Device: "K101"},
			Status:  record.StatusPending,
			Remarks: `says "spare"`,
		},
	}
}

func headerLine() string {
	return strings.Join(Header, ",")
}

func TestWriteGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "wirelist", buf.Bytes())
}

func TestRoundTrip(t *testing.T) {
	want := sampleRecords()

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err := Parse(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("round trip raised warnings: %v", report.Warnings)
	}
	if report.Excluded != 0 {
		t.Fatalf("round trip excluded %d rows", report.Excluded)
	}
	if !reflect.DeepEqual(report.Records, want) {
		t.Fatalf("round trip changed records:\n got %+v\nwant %+v", report.Records, want)
	}
}

func TestParseMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	report, err := Parse(strings.NewReader(headerLine() + "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Records) != 0 || len(report.Warnings) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestParseShortRowPadded(t *testing.T) {
	in := headerLine() + "\n" +
		"wire,P1,K101,X1:4,screw,E7,coil,P2,F202,X2:9,W-1041,C\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", report.Warnings)
	}
	if w := report.Warnings[0]; w.Line != 2 || !strings.Contains(w.Message, "right-padded") {
		t.Fatalf("unexpected warning: %v", w)
	}
	if len(report.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(report.Records))
	}
	rec := report.Records[0]
	if rec.SignalID != "" || rec.Remarks != "" {
		t.Fatalf("padded fields not empty: %+v", rec)
	}
	if rec.Status != record.StatusConfirmed {
		t.Fatalf("status = %v, want confirmed", rec.Status)
	}
}

func TestParseLongRowTruncated(t *testing.T) {
	in := headerLine() + "\n" +
		"wire,P1,K101,X1:4,screw,E7,coil,P2,F202,X2:9,W-1041,C,SIG-1,ok,extra,extra\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, "truncated") {
		t.Fatalf("expected one truncation warning, got %v", report.Warnings)
	}
	if len(report.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(report.Records))
	}
	if got := report.Records[0].Remarks; got != "ok" {
		t.Fatalf("remarks = %q, want %q", got, "ok")
	}
}

func TestParseUnknownStatus(t *testing.T) {
	in := headerLine() + "\n" +
		"wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,X,,\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, `"X"`) {
		t.Fatalf("expected one unknown-status warning, got %v", report.Warnings)
	}
	if got := report.Records[0].Status; got != record.StatusPending {
		t.Fatalf("status = %v, want pending", got)
	}
}

func TestParseBlankStatusCoercedWithWarning(t *testing.T) {
	in := headerLine() + "\n" +
		"wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,,,\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, "pending") {
		t.Fatalf("blank status must warn like any out-of-set code, got %v", report.Warnings)
	}
	if got := report.Records[0].Status; got != record.StatusPending {
		t.Fatalf("status = %v, want pending", got)
	}
	if report.Excluded != 0 {
		t.Fatalf("coercion must keep the row, excluded %d", report.Excluded)
	}
}

func TestParseReorderedHeaderMapsByName(t *testing.T) {
	cols := append([]string(nil), Header...)
	// Swap SIGNAL_ID and REMARKS.
	cols[12], cols[13] = cols[13], cols[12]
	in := strings.Join(cols, ",") + "\n" +
		"wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,C,note here,SIG-1\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, "mapping by name") {
		t.Fatalf("expected one reorder warning, got %v", report.Warnings)
	}
	rec := report.Records[0]
	if rec.SignalID != "SIG-1" || rec.Remarks != "note here" {
		t.Fatalf("name mapping failed: %+v", rec)
	}
}

func TestParseUnrecognizedHeaderFallsBackToPositions(t *testing.T) {
	in := "A,B,C,D,E,F,G,H,I,J,K,L,M,N\n" +
		"wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,C,SIG-1,ok\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Line != 1 {
		t.Fatalf("expected one header warning on line 1, got %v", report.Warnings)
	}
	rec := report.Records[0]
	if rec.From.Terminal != "X1:4" || rec.SignalID != "SIG-1" {
		t.Fatalf("positional fallback failed: %+v", rec)
	}
}

func TestParseExcludesWireRowWithoutOrigin(t *testing.T) {
	in := headerLine() + "\n" +
		"wire,P1,K101,,,,,P2,F202,X2:9,W-1041,C,,\n" +
		"note,,,,,,,,,,,?,,panel walkthrough reminder\n" +
		"wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,C,,\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if report.Excluded != 1 {
		t.Fatalf("excluded = %d, want 1", report.Excluded)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Line != 2 {
		t.Fatalf("expected one exclusion warning on line 2, got %v", report.Warnings)
	}
	if len(report.Records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(report.Records))
	}
	if report.Records[0].RowType != "note" {
		t.Fatalf("note row should survive incomplete identity, got %+v", report.Records[0])
	}
}

func TestParseQuotedFields(t *testing.T) {
	in := headerLine() + "\n" +
		`wire,P1,K101,X1:4,,,,P2,F202,X2:9,W-1041,C,,"tagged ""hot"", do not lift"` + "\n"
	report, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", report.Warnings)
	}
	want := `tagged "hot", do not lift`
	if got := report.Records[0].Remarks; got != want {
		t.Fatalf("remarks = %q, want %q", got, want)
	}
}
