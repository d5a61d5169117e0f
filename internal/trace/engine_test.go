package trace

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

func newEngineHarness(t *testing.T, opts ...Option) (*Engine, *Repository) {
	t.Helper()
	repo := NewRepository(t.TempDir())
	clock := &testClock{value: time.Unix(0, 0)}
	all := append([]Option{WithClock(clock.Now), WithSessionID("test-session")}, opts...)
	eng, err := New(repo, all...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng, repo
}

// feed submits each input in turn, failing the test on any rejection, and
// returns the step produced by the last one.
func feed(t *testing.T, eng *Engine, inputs ...string) Step {
	t.Helper()
	var step Step
	for _, input := range inputs {
		var err error
		step, err = eng.Submit(input)
		if err != nil {
			t.Fatalf("submit %q: %v", input, err)
		}
	}
	return step
}

func mustStart(t *testing.T, eng *Engine) {
	t.Helper()
	if _, err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestEngineStartAsksForSeed(t *testing.T) {
	eng, repo := newEngineHarness(t)
	step, err := eng.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step.Phase != PhaseSeedPanel || step.Prompt == "" {
		t.Fatalf("unexpected first step: %+v", step)
	}
	stored, err := repo.Load()
	if err != nil {
		t.Fatalf("load repo: %v", err)
	}
	if stored.Phase != PhaseSeedPanel || stored.SessionID != "test-session" {
		t.Fatalf("persisted state mismatch: %+v", stored)
	}
}

func TestSubmitAdvancesOnePhasePerInput(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	want := []Phase{
		PhaseSeedDevice, PhaseSeedTerminal,
		PhaseDestPanel, PhaseDestDevice, PhaseDestTerminal,
		PhaseConfirm,
	}
	inputs := []string{"1", "AA", "A01", "2", "BB", "B01"}
	for i, input := range inputs {
		step, err := eng.Submit(input)
		if err != nil {
			t.Fatalf("submit %q: %v", input, err)
		}
		if step.Phase != want[i] {
			t.Fatalf("after %q: phase %s, want %s", input, step.Phase, want[i])
		}
	}
}

func TestConfirmedCommit(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	step := feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "0")

	records := eng.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != record.StatusConfirmed || !rec.IsWire() {
		t.Fatalf("unexpected record: %+v", rec)
	}
	wantKey := record.EdgeKey(
		record.TerminalRef{Panel: "1", Device: "AA", Terminal: "A01"},
		record.TerminalRef{Panel: "2", Device: "BB", Terminal: "B01"},
	)
	if rec.EdgeKey() != wantKey {
		t.Fatalf("edge key mismatch: %+v", rec)
	}
	if !strings.Contains(step.Notice, "CONFIRMED") {
		t.Fatalf("notice should report the commit, got %q", step.Notice)
	}
	if len(eng.Pending()) != 0 {
		t.Fatalf("no discovery entry expected for count 0, got %+v", eng.Pending())
	}
	// Nothing pending, so the cycle returns to a fresh seed.
	if eng.Phase() != PhaseSeedPanel {
		t.Fatalf("phase after commit = %s, want seed panel", eng.Phase())
	}
	if eng.HistoryLen() != 1 {
		t.Fatalf("expected exactly one checkpoint, got %d", eng.HistoryLen())
	}
}

func TestRemainingCountDefersFarEnd(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2")

	pending := eng.Pending()
	if len(pending) != 1 || pending[0].Remaining != 2 {
		t.Fatalf("expected one pending entry with 2 wires, got %+v", pending)
	}
	dest := record.TerminalRef{Panel: "2", Device: "BB", Terminal: "B01"}
	if pending[0].Ref.Key() != dest.Key() {
		t.Fatalf("pending entry points at %v, want %v", pending[0].Ref, dest)
	}
	origin, ok := eng.Origin()
	if !ok || origin.Key() != dest.Key() {
		t.Fatalf("expected to resume from the far end, got %v (ok=%v)", origin, ok)
	}
	if eng.Phase() != PhaseDestPanel {
		t.Fatalf("phase = %s, want destination panel", eng.Phase())
	}
	if eng.PendingWires() != 2 {
		t.Fatalf("pending wires = %d, want 2", eng.PendingWires())
	}
}

func TestRejectedInputDoesNotAdvance(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)

	if _, err := eng.Submit("   "); !errors.Is(err, ErrInputRequired) {
		t.Fatalf("expected ErrInputRequired, got %v", err)
	}
	if eng.Phase() != PhaseSeedPanel {
		t.Fatalf("phase moved on rejected input: %s", eng.Phase())
	}

	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01")
	if _, err := eng.Submit("maybe"); !errors.Is(err, ErrNotYesNo) {
		t.Fatalf("expected ErrNotYesNo, got %v", err)
	}
	if eng.Phase() != PhaseConfirm {
		t.Fatalf("phase moved on bad confirm: %s", eng.Phase())
	}

	feed(t, eng, "y")
	for _, input := range []string{"three", "-1", "1.5"} {
		if _, err := eng.Submit(input); !errors.Is(err, ErrInvalidCount) {
			t.Fatalf("input %q: expected ErrInvalidCount, got %v", input, err)
		}
	}
	if eng.Phase() != PhaseRemaining {
		t.Fatalf("phase moved on bad count: %s", eng.Phase())
	}
	if eng.HistoryLen() != 0 {
		t.Fatalf("rejected input must not checkpoint, got %d", eng.HistoryLen())
	}
}

func TestSubmitWhileIdleRejected(t *testing.T) {
	eng, _ := newEngineHarness(t)
	if _, err := eng.Submit("1"); err == nil {
		t.Fatalf("expected error submitting while idle")
	}
}

func TestDuplicateEdgeUpdatesStatusInPlace(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "0")

	// Re-trace the same pair; answering no downgrades it in place.
	step := feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "n")
	records := eng.Records()
	if len(records) != 1 {
		t.Fatalf("duplicate edge appended a row: %d records", len(records))
	}
	if records[0].Status != record.StatusUnconfirmed {
		t.Fatalf("status = %v, want unconfirmed", records[0].Status)
	}
	if !strings.Contains(step.Notice, "updated") {
		t.Fatalf("notice should report the in-place update, got %q", step.Notice)
	}
}

func TestUnconfirmedCommitChasesFarEnd(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "n")

	records := eng.Records()
	if len(records) != 1 || records[0].Status != record.StatusUnconfirmed {
		t.Fatalf("expected one unconfirmed record, got %+v", records)
	}
	if len(eng.Pending()) != 0 {
		t.Fatalf("rejection must not push a discovery entry, got %+v", eng.Pending())
	}
	origin, ok := eng.Origin()
	want := record.TerminalRef{Panel: "2", Device: "BB", Terminal: "B01"}
	if !ok || origin.Key() != want.Key() {
		t.Fatalf("far end should become the next origin, got %v (ok=%v)", origin, ok)
	}
	if eng.Phase() != PhaseDestPanel {
		t.Fatalf("phase = %s, want destination panel", eng.Phase())
	}
}

func TestUndoRestoresPreCommitState(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2")

	undone, err := eng.Undo()
	if err != nil || !undone {
		t.Fatalf("undo: %v (undone=%v)", err, undone)
	}
	if len(eng.Records()) != 0 {
		t.Fatalf("records not restored: %+v", eng.Records())
	}
	if len(eng.Pending()) != 0 {
		t.Fatalf("discovery push not rolled back: %+v", eng.Pending())
	}
	// The checkpoint was taken as the count answer arrived, so undo re-poses
	// that question with the draft intact.
	if eng.Phase() != PhaseRemaining {
		t.Fatalf("phase = %s, want remaining count", eng.Phase())
	}
	draft := eng.Draft()
	if draft.From.Terminal != "A01" || draft.To.Terminal != "B01" {
		t.Fatalf("draft not restored: %+v", draft)
	}
	if eng.HistoryLen() != 0 {
		t.Fatalf("history should be drained, got %d", eng.HistoryLen())
	}

	// Answering again recommits the same edge.
	feed(t, eng, "2")
	if len(eng.Records()) != 1 || len(eng.Pending()) != 1 {
		t.Fatalf("recommit failed: %d records, %d pending", len(eng.Records()), len(eng.Pending()))
	}
}

func TestUndoWithEmptyHistory(t *testing.T) {
	eng, _ := newEngineHarness(t)
	undone, err := eng.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone {
		t.Fatalf("undo reported success with empty history")
	}
}

func TestCircleBackDrainsMostRecentFirst(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)

	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2") // defer B with 2
	feed(t, eng, "3", "CC", "C01", "y", "1")                   // from B: defer C with 1
	feed(t, eng, "4", "DD", "D01", "y", "0")                   // from C: C drained

	origin, ok := eng.Origin()
	wantB := record.TerminalRef{Panel: "2", Device: "BB", Terminal: "B01"}
	if !ok || origin.Key() != wantB.Key() {
		t.Fatalf("expected to circle back to %v, got %v (ok=%v)", wantB, origin, ok)
	}
	pending := eng.Pending()
	if len(pending) != 1 || pending[0].Remaining != 1 {
		t.Fatalf("expected B alone with 1 wire left, got %+v", pending)
	}

	feed(t, eng, "5", "EE", "E01", "y", "0") // from B: B drained
	if eng.Phase() != PhaseSeedPanel {
		t.Fatalf("expected fresh seed once nothing is pending, got %s", eng.Phase())
	}
	if len(eng.Pending()) != 0 {
		t.Fatalf("stack should be empty, got %+v", eng.Pending())
	}
	if len(eng.Records()) != 4 {
		t.Fatalf("expected 4 records, got %d", len(eng.Records()))
	}
}

func TestForwardPolicyStaysOnFarEnd(t *testing.T) {
	eng, _ := newEngineHarness(t, WithResumePolicy(ResumeForward))
	mustStart(t, eng)

	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2") // defer B with 2
	feed(t, eng, "3", "CC", "C01", "y", "3")                   // from B: defer C with 3
	// From C back to B: B's count is summed in place, so the stack top is
	// still C. Forward policy stays on the far end B anyway.
	feed(t, eng, "2", "BB", "B01", "y", "5")

	origin, ok := eng.Origin()
	wantB := record.TerminalRef{Panel: "2", Device: "BB", Terminal: "B01"}
	if !ok || origin.Key() != wantB.Key() {
		t.Fatalf("forward policy should stay on %v, got %v (ok=%v)", wantB, origin, ok)
	}
	pending := eng.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected B and C pending, got %+v", pending)
	}
	if pending[0].Ref.Key() != wantB.Key() || pending[0].Remaining != 6 {
		t.Fatalf("expected B first with summed count 6, got %+v", pending[0])
	}
}

func TestImportReplacesRecordsAndIsUndoable(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "0")

	doc := strings.Join(codec.Header, ",") + "\n" +
		"wire,P9,K9,X9,,,,P8,K8,X8,W-9,C,,\n" +
		"wire,P9,K9,X10,,,,P8,K8,X9,W-10,Z,,\n"
	report, err := eng.Import(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Records) != 2 || len(report.Warnings) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(eng.Records()) != 2 {
		t.Fatalf("store not replaced: %d records", len(eng.Records()))
	}
	if len(eng.Warnings()) != 1 {
		t.Fatalf("import warnings not exposed: %+v", eng.Warnings())
	}

	undone, err := eng.Undo()
	if err != nil || !undone {
		t.Fatalf("undo: %v (undone=%v)", err, undone)
	}
	records := eng.Records()
	if len(records) != 1 || records[0].From.Terminal != "A01" {
		t.Fatalf("pre-import records not restored: %+v", records)
	}
	if ws := eng.Warnings(); ws != nil {
		t.Fatalf("undo should restore the pre-import warning list, got %v", ws)
	}
}

func TestImportWarningsSurviveResume(t *testing.T) {
	repo := NewRepository(t.TempDir())
	eng, err := New(repo, WithSessionID("first-sitting"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	doc := strings.Join(codec.Header, ",") + "\n" +
		"wire,P9,K9,X9,,,,P8,K8,X8,W-9,X,,\n"
	report, err := eng.Import(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected one status warning, got %v", report.Warnings)
	}

	restarted, err := New(repo)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	resumed, err := restarted.Resume()
	if err != nil || !resumed {
		t.Fatalf("resume: %v (resumed=%v)", err, resumed)
	}
	if len(restarted.Records()) != 1 {
		t.Fatalf("records lost across resume: %+v", restarted.Records())
	}
	if !reflect.DeepEqual(restarted.Warnings(), report.Warnings) {
		t.Fatalf("import warnings lost across resume:\n got %+v\nwant %+v",
			restarted.Warnings(), report.Warnings)
	}
}

func TestImportWithoutHeaderLeavesStateAlone(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "0")

	if _, err := eng.Import(strings.NewReader("")); !errors.Is(err, codec.ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
	if len(eng.Records()) != 1 {
		t.Fatalf("failed import mutated the store: %d records", len(eng.Records()))
	}
	if eng.HistoryLen() != 1 {
		t.Fatalf("failed import checkpointed: %d", eng.HistoryLen())
	}
}

func TestExportRoundTripsRecords(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "0")

	var buf bytes.Buffer
	if err := eng.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	report, err := codec.Parse(&buf)
	if err != nil {
		t.Fatalf("parse exported document: %v", err)
	}
	if !reflect.DeepEqual(report.Records, eng.Records()) {
		t.Fatalf("export/parse changed records:\n got %+v\nwant %+v", report.Records, eng.Records())
	}
}

func TestCancelDiscardsDraftOnly(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2")
	feed(t, eng, "3", "CC") // half-collected far end

	if err := eng.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if eng.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", eng.Phase())
	}
	if draft := eng.Draft(); draft != (Draft{}) {
		t.Fatalf("draft not discarded: %+v", draft)
	}
	if len(eng.Records()) != 1 || len(eng.Pending()) != 1 {
		t.Fatalf("cancel must keep records and pending terminals")
	}
	if eng.HistoryLen() != 1 {
		t.Fatalf("cancel must not checkpoint, got %d", eng.HistoryLen())
	}
}

func TestStartResumesFromPendingStack(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2")
	if err := eng.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	step, err := eng.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step.Phase != PhaseDestPanel || !strings.Contains(step.Notice, "resuming") {
		t.Fatalf("expected resume step, got %+v", step)
	}
	origin, ok := eng.Origin()
	if !ok || origin.Terminal != "B01" {
		t.Fatalf("expected origin B01, got %v (ok=%v)", origin, ok)
	}
}

func TestSessionPersistsAcrossEngines(t *testing.T) {
	repo := NewRepository(t.TempDir())
	eng, err := New(repo, WithSessionID("first-sitting"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	mustStart(t, eng)
	feed(t, eng, "1", "AA", "A01", "2", "BB", "B01", "y", "2")

	restarted, err := New(repo)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	resumed, err := restarted.Resume()
	if err != nil || !resumed {
		t.Fatalf("resume: %v (resumed=%v)", err, resumed)
	}
	if restarted.SessionID() != "first-sitting" {
		t.Fatalf("session id not adopted: %s", restarted.SessionID())
	}
	if len(restarted.Records()) != 1 || len(restarted.Pending()) != 1 {
		t.Fatalf("state not restored: %d records, %d pending",
			len(restarted.Records()), len(restarted.Pending()))
	}
	if restarted.Phase() != PhaseDestPanel {
		t.Fatalf("phase not restored: %s", restarted.Phase())
	}
	if restarted.HistoryLen() != 0 {
		t.Fatalf("undo log must start empty after restart, got %d", restarted.HistoryLen())
	}
}

func TestResumeWithoutPersistedSession(t *testing.T) {
	eng, _ := newEngineHarness(t)
	resumed, err := eng.Resume()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed {
		t.Fatalf("resume reported success with nothing persisted")
	}
}

func TestHistoryCapsAtDefaultDepth(t *testing.T) {
	eng, _ := newEngineHarness(t)
	mustStart(t, eng)
	for i := 0; i < 51; i++ {
		feed(t, eng,
			fmt.Sprintf("P%d", i), "AA", "A01",
			fmt.Sprintf("Q%d", i), "BB", "B01",
			"y", "0")
	}
	if eng.HistoryLen() != 50 {
		t.Fatalf("history length = %d, want 50", eng.HistoryLen())
	}
	// The oldest checkpoint was evicted: draining every undo lands on the
	// state just before the second commit, which still holds one record.
	for {
		undone, err := eng.Undo()
		if err != nil {
			t.Fatalf("undo: %v", err)
		}
		if !undone {
			break
		}
	}
	if len(eng.Records()) != 1 {
		t.Fatalf("expected the first commit to survive eviction, got %d records", len(eng.Records()))
	}
}

type testClock struct {
	value time.Time
}

func (c *testClock) Now() time.Time {
	c.value = c.value.Add(time.Second)
	return c.value
}
