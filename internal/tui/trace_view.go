package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tripcoil/TripCoil-Terminal/internal/record"
	"github.com/tripcoil/TripCoil-Terminal/internal/trace"
)

var (
	promptTextStyle = lipgloss.NewStyle().Bold(true)
	noticeTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	rejectTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	draftTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// traceView is the prompt cycle screen: it poses the engine's outstanding
// question, feeds answers back, and reports what each commit did.
type traceView struct {
	app    *App
	input  textinput.Model
	step   trace.Step
	reject string
}

// traceLeftMsg tells the App the prompt cycle screen is done.
type traceLeftMsg struct {
	reason string
}

func newTraceView(app *App) *traceView {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 64
	input.Width = 40
	input.Focus()
	return &traceView{app: app, input: input}
}

// Open primes the view. Resuming re-poses the outstanding prompt; starting
// asks the engine where the next pass begins, which pops the pending stack
// when terminals are still owed wires.
func (v *traceView) Open(resume bool) error {
	if resume && v.app.engine.Phase().IsActive() {
		phase := v.app.engine.Phase()
		v.step = trace.Step{Phase: phase, Prompt: phase.Prompt()}
		return nil
	}
	step, err := v.app.engine.Start()
	if err != nil {
		return err
	}
	v.step = step
	if step.Notice != "" {
		v.app.setStatus(step.Notice)
	}
	return nil
}

func (v *traceView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "enter":
		return v.submit()
	case "ctrl+z":
		return v.undo()
	case "ctrl+x":
		return v.cancel()
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

// submit feeds the typed answer to the engine. A validation sentinel leaves
// the phase where it was, so the same prompt is posed again with a hint.
func (v *traceView) submit() tea.Cmd {
	step, err := v.app.engine.Submit(v.input.Value())
	if err != nil {
		v.reject = rejectionHint(err)
		if !isInputError(err) {
			v.app.logError("Submit failed: %v", err)
		}
		return nil
	}
	v.reject = ""
	v.input.SetValue("")
	v.step = step
	if step.Notice != "" {
		v.app.setStatus(step.Notice)
	}
	return nil
}

func (v *traceView) undo() tea.Cmd {
	ok, err := v.app.engine.Undo()
	if err != nil {
		v.reject = err.Error()
		v.app.logError("Undo failed: %v", err)
		return nil
	}
	if !ok {
		v.reject = "Nothing to undo."
		return nil
	}
	v.reject = ""
	v.input.SetValue("")
	phase := v.app.engine.Phase()
	v.app.logInfo("Undo · rolled back to %s", phase)
	if !phase.IsActive() {
		return leaveTrace("Undid last commit")
	}
	v.step = trace.Step{Phase: phase, Prompt: phase.Prompt()}
	v.app.setStatus("Undid last commit · the prompt returns to where it was")
	return nil
}

func (v *traceView) cancel() tea.Cmd {
	if err := v.app.engine.Cancel(); err != nil {
		v.reject = err.Error()
		v.app.logError("Cancel failed: %v", err)
		return nil
	}
	v.app.logInfo("Trace cancelled · draft discarded")
	return leaveTrace("Trace cancelled · committed records kept")
}

func leaveTrace(reason string) tea.Cmd {
	msg := traceLeftMsg{reason: reason}
	return func() tea.Msg { return msg }
}

func (v *traceView) View() string {
	pos, total := promptPosition(v.step.Phase)
	draft := v.app.engine.Draft()
	lines := []string{
		promptTextStyle.Render(fmt.Sprintf("[%d/%d] %s", pos+1, total, v.step.Phase)),
		draftTextStyle.Render(fmt.Sprintf("From: %s", draftRef(draft.From))),
		draftTextStyle.Render(fmt.Sprintf("To:   %s", draftRef(draft.To))),
		"",
		v.step.Prompt,
		v.input.View(),
	}
	if v.reject != "" {
		lines = append(lines, rejectTextStyle.Render("✗ "+v.reject))
	}
	if v.step.Notice != "" {
		lines = append(lines, noticeTextStyle.Render("✓ "+v.step.Notice))
	}
	lines = append(lines, hintTextStyle.Render("enter=answer  ctrl+z=undo  ctrl+x=cancel trace  esc=menu"))
	return strings.Join(lines, "\n")
}

// draftRef renders a part-filled terminal ref for the draft summary.
func draftRef(ref record.TerminalRef) string {
	part := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "·"
		}
		return strings.TrimSpace(s)
	}
	return part(ref.Panel) + "/" + part(ref.Device) + "/" + part(ref.Terminal)
}

func isInputError(err error) bool {
	return errors.Is(err, trace.ErrInputRequired) ||
		errors.Is(err, trace.ErrNotYesNo) ||
		errors.Is(err, trace.ErrInvalidCount)
}

// rejectionHint turns a validation sentinel into the line shown under the
// prompt.
func rejectionHint(err error) string {
	switch {
	case errors.Is(err, trace.ErrInputRequired):
		return "An answer is required."
	case errors.Is(err, trace.ErrNotYesNo):
		return "Answer y or n."
	case errors.Is(err, trace.ErrInvalidCount):
		return "Enter a whole number, zero or more."
	default:
		return err.Error()
	}
}
