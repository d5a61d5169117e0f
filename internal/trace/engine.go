package trace

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
	"github.com/tripcoil/TripCoil-Terminal/internal/discovery"
	"github.com/tripcoil/TripCoil-Terminal/internal/history"
	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

// ResumePolicy decides where the cycle continues after a confirmed commit
// when both the far end and older deferred terminals are candidates.
type ResumePolicy string

const (
	// ResumeCircleBack picks the most-recently-deferred pending terminal.
	ResumeCircleBack ResumePolicy = "circle-back"
	// ResumeForward stays on the far end of the committed wire while it
	// still has wires outstanding.
	ResumeForward ResumePolicy = "forward"
)

// Valid reports whether the policy is one of the recognized values.
func (p ResumePolicy) Valid() bool {
	return p == ResumeCircleBack || p == ResumeForward
}

// ParseResumePolicy maps a configuration string to a policy. The second
// return value reports whether the string was recognized.
func ParseResumePolicy(s string) (ResumePolicy, bool) {
	switch record.Normalize(s) {
	case string(ResumeCircleBack), "circleback", "circle_back":
		return ResumeCircleBack, true
	case string(ResumeForward):
		return ResumeForward, true
	}
	return "", false
}

// Input validation sentinels. Each one means "re-prompt, nothing changed":
// the phase does not advance and no checkpoint is taken.
var (
	ErrInputRequired = errors.New("trace: input required")
	ErrNotYesNo      = errors.New("trace: answer y or n")
	ErrInvalidCount  = errors.New("trace: count must be a whole number, zero or more")
)

// Step tells the prompt loop what to pose next: the phase now outstanding,
// its prompt text, and a one-line notice about what the last submission did.
type Step struct {
	Phase  Phase
	Prompt string
	Notice string
}

// step captures the outstanding prompt after an operation.
func (e *Engine) step(notice string) Step {
	return Step{Phase: e.phase, Prompt: e.phase.Prompt(), Notice: notice}
}

// Engine is the trace-collection state machine. It owns the record store,
// the discovery stack, and the undo log, and persists the session through
// the injected state store after every boundary it crosses.
type Engine struct {
	store    *record.Store
	stack    *discovery.Stack
	log      *history.Log[snapshot]
	repo     StateStore
	clock    func() time.Time
	policy   ResumePolicy
	session  string
	phase    Phase
	draft    Draft
	warnings []codec.Warning
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithResumePolicy selects the post-commit resume policy. Unrecognized
// values leave the default in place.
func WithResumePolicy(policy ResumePolicy) Option {
	return func(e *Engine) {
		if policy.Valid() {
			e.policy = policy
		}
	}
}

// WithHistoryDepth bounds the undo log. Non-positive depths fall back to
// the default capacity.
func WithHistoryDepth(depth int) Option {
	return func(e *Engine) {
		e.log = history.NewLog[snapshot](depth)
	}
}

// WithSessionID pins the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(id) != "" {
			e.session = id
		}
	}
}

// New wires a trace engine to its persistence store.
func New(repo StateStore, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("trace: state store is required")
	}
	engine := &Engine{
		store:   record.NewStore(),
		stack:   discovery.New(),
		log:     history.NewLog[snapshot](history.DefaultCapacity),
		repo:    repo,
		clock:   time.Now,
		policy:  ResumeCircleBack,
		session: uuid.NewString(),
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Resume adopts the persisted session if one exists. It reports false when
// there is nothing to resume. The undo log starts empty either way.
func (e *Engine) Resume() (bool, error) {
	state, err := e.repo.Load()
	if errors.Is(err, ErrStateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("trace: resume session: %w", err)
	}
	if state.SessionID != "" {
		e.session = state.SessionID
	}
	e.phase = state.Phase
	e.draft = state.Draft
	e.stack.Restore(state.Stack)
	e.store.ReplaceAll(state.Records)
	e.warnings = cloneWarnings(state.Warnings)
	return true, nil
}

// State returns the persistable form of the session.
func (e *Engine) State() SessionState {
	return SessionState{
		SessionID: e.session,
		Phase:     e.phase,
		Draft:     e.draft,
		Stack:     e.stack.Pending(),
		Records:   e.store.All(),
		Warnings:  cloneWarnings(e.warnings),
		UpdatedAt: e.now(),
	}
}

// Start begins the prompt cycle. With pending terminals on the stack it
// resumes from the most recent one; otherwise it asks for a fresh seed.
func (e *Engine) Start() (Step, error) {
	if next, ok := e.stack.PopNext(); ok {
		e.draft = Draft{From: next}
		e.phase = PhaseDestPanel
		if err := e.persist(); err != nil {
			return Step{}, err
		}
		return e.step(fmt.Sprintf("resuming from %s", next)), nil
	}
	e.draft = Draft{}
	e.phase = PhaseSeedPanel
	if err := e.persist(); err != nil {
		return Step{}, err
	}
	return e.step(""), nil
}

// Submit feeds one line of operator input to the outstanding prompt. On a
// validation sentinel the phase has not advanced and the same prompt should
// be posed again.
func (e *Engine) Submit(line string) (Step, error) {
	input := strings.TrimSpace(line)
	switch {
	case e.phase == PhaseIdle:
		return Step{}, fmt.Errorf("trace: no trace in progress")
	case e.phase.IsSeed() || e.phase.IsDest():
		return e.submitField(input)
	case e.phase == PhaseConfirm:
		return e.submitConfirm(input)
	case e.phase == PhaseRemaining:
		return e.submitRemaining(input)
	default:
		return Step{}, fmt.Errorf("trace: unhandled phase %d", e.phase)
	}
}

func (e *Engine) submitField(input string) (Step, error) {
	if input == "" {
		return Step{}, ErrInputRequired
	}
	switch e.phase {
	case PhaseSeedPanel:
		e.draft.From.Panel = input
	case PhaseSeedDevice:
		e.draft.From.Device = input
	case PhaseSeedTerminal:
		e.draft.From.Terminal = input
	case PhaseDestPanel:
		e.draft.To.Panel = input
	case PhaseDestDevice:
		e.draft.To.Device = input
	case PhaseDestTerminal:
		e.draft.To.Terminal = input
	}
	e.phase++
	return e.step(""), nil
}

func (e *Engine) submitConfirm(input string) (Step, error) {
	if input == "" {
		return Step{}, ErrInputRequired
	}
	switch record.Normalize(input) {
	case "y", "yes":
		e.phase = PhaseRemaining
		return e.step(""), nil
	case "n", "no":
		return e.commit(record.StatusUnconfirmed, 0)
	default:
		return Step{}, ErrNotYesNo
	}
}

func (e *Engine) submitRemaining(input string) (Step, error) {
	if input == "" {
		return Step{}, ErrInputRequired
	}
	count, err := strconv.Atoi(input)
	if err != nil || count < 0 {
		return Step{}, ErrInvalidCount
	}
	return e.commit(record.StatusConfirmed, count)
}

// commit finalizes the drafted edge: checkpoint first, then the store
// mutation, then stack bookkeeping, then the next-origin decision.
// Re-committing an existing directed edge updates its status in place
// rather than appending a duplicate.
func (e *Engine) commit(status record.Status, remaining int) (Step, error) {
	e.checkpoint()

	edge := record.Record{
		RowType: record.RowTypeWire,
		From:    e.draft.From,
		To:      e.draft.To,
		Status:  status,
	}
	notice := fmt.Sprintf("recorded %s -> %s as %s", edge.From, edge.To, status)
	if _, ok := e.store.Find(edge.From, edge.To); ok {
		e.store.UpdateStatus(edge.From, edge.To, status)
		notice = fmt.Sprintf("updated %s -> %s to %s", edge.From, edge.To, status)
	} else {
		e.store.Append(edge)
	}

	e.stack.Decrement(edge.From)
	if status == record.StatusConfirmed && remaining > 0 {
		e.stack.Push(edge.To, remaining)
	}

	e.nextOrigin(edge, status)
	if err := e.persist(); err != nil {
		return Step{}, err
	}
	return e.step(notice), nil
}

// nextOrigin decides where the cycle continues after a commit. An
// unconfirmed far end becomes the next origin outright: the wire could not
// be verified, so the drawing-side terminal is the next thing to chase.
// Confirmed commits follow the resume policy, and when nothing is pending
// the cycle returns to a fresh seed.
func (e *Engine) nextOrigin(edge record.Record, status record.Status) {
	if status == record.StatusUnconfirmed && edge.To.Complete() {
		e.resumeAt(edge.To)
		return
	}
	if e.policy == ResumeForward && e.pendingAt(edge.To) {
		e.resumeAt(edge.To)
		return
	}
	if next, ok := e.stack.PopNext(); ok {
		e.resumeAt(next)
		return
	}
	e.draft = Draft{}
	e.phase = PhaseSeedPanel
}

func (e *Engine) resumeAt(origin record.TerminalRef) {
	e.draft = Draft{From: origin}
	e.phase = PhaseDestPanel
}

func (e *Engine) pendingAt(ref record.TerminalRef) bool {
	key := ref.Key()
	for _, entry := range e.stack.Pending() {
		if entry.Ref.Key() == key {
			return true
		}
	}
	return false
}

// Undo restores the most recent checkpoint verbatim: records, stack, phase,
// and draft all return to their pre-commit values, which re-poses the
// question the undone commit answered. It reports false when the log is
// empty.
func (e *Engine) Undo() (bool, error) {
	snap, ok := e.log.Pop()
	if !ok {
		return false, nil
	}
	e.store.ReplaceAll(snap.records)
	e.stack.Restore(snap.stack)
	e.phase = snap.phase
	e.draft = snap.draft
	e.warnings = snap.warnings
	if err := e.persist(); err != nil {
		return true, err
	}
	return true, nil
}

// Cancel abandons the pass in progress and returns to idle. Committed
// records and pending terminals survive; only the partial draft is
// discarded, and no checkpoint is taken, so Cancel cannot be undone back
// into the half-finished prompt.
func (e *Engine) Cancel() error {
	e.draft = Draft{}
	e.phase = PhaseIdle
	return e.persist()
}

// Import replaces the record set with the parsed contents of r. The
// pre-import state is checkpointed first, so a regretted import is one
// Undo away. The discovery stack and the prompt cycle are left alone.
func (e *Engine) Import(r io.Reader) (codec.Report, error) {
	report, err := codec.Parse(r)
	if err != nil {
		return report, err
	}
	return report, e.Adopt(report)
}

// Adopt replaces the record set with an already-parsed report, for
// callers that load documents themselves (the wirelist store's import
// picker). Checkpoint and persistence behave exactly as in Import.
func (e *Engine) Adopt(report codec.Report) error {
	e.checkpoint()
	e.store.ReplaceAll(report.Records)
	e.warnings = cloneWarnings(report.Warnings)
	return e.persist()
}

// Export writes the current record set as a wirelist document.
func (e *Engine) Export(w io.Writer) error {
	return codec.Write(w, e.store.All())
}

// checkpoint pushes an undo snapshot. It must run before any mutation the
// same operation performs.
func (e *Engine) checkpoint() {
	e.log.Push(snapshot{
		records:  e.store.All(),
		stack:    e.stack.Pending(),
		phase:    e.phase,
		draft:    e.draft,
		warnings: cloneWarnings(e.warnings),
	})
}

func (e *Engine) persist() error {
	if err := e.repo.Save(e.State()); err != nil {
		return fmt.Errorf("trace: save session: %w", err)
	}
	return nil
}

// Phase returns the phase whose prompt is outstanding.
func (e *Engine) Phase() Phase { return e.phase }

// Draft returns the partially collected edge.
func (e *Engine) Draft() Draft { return e.draft }

// SessionID returns the identifier of this session.
func (e *Engine) SessionID() string { return e.session }

// Records returns the record set in documentation order.
func (e *Engine) Records() []record.Record { return e.store.All() }

// Pending returns the deferred terminals, most recent last.
func (e *Engine) Pending() []discovery.Entry { return e.stack.Pending() }

// PendingWires sums the declared wire counts across all pending terminals.
func (e *Engine) PendingWires() int {
	total := 0
	for _, entry := range e.stack.Pending() {
		total += entry.Remaining
	}
	return total
}

// Warnings returns the validation warnings from the most recent import.
func (e *Engine) Warnings() []codec.Warning {
	return cloneWarnings(e.warnings)
}

// HistoryLen returns the number of undo checkpoints currently held.
func (e *Engine) HistoryLen() int { return e.log.Len() }

// Origin returns the terminal the current pass traces from, once one is
// established.
func (e *Engine) Origin() (record.TerminalRef, bool) {
	if e.phase.IsActive() && !e.phase.IsSeed() && e.draft.From.Complete() {
		return e.draft.From, true
	}
	return record.TerminalRef{}, false
}

func (e *Engine) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock()
}
