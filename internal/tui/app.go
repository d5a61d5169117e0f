// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for TripCoil.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
	"github.com/tripcoil/TripCoil-Terminal/internal/config"
	"github.com/tripcoil/TripCoil-Terminal/internal/logbook"
	"github.com/tripcoil/TripCoil-Terminal/internal/record"
	"github.com/tripcoil/TripCoil-Terminal/internal/trace"
	"github.com/tripcoil/TripCoil-Terminal/internal/wirelist"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu     appState = iota // Main menu with "Start Trace", etc.
	stateTrace                        // The live prompt cycle
	stateRecords                      // Browsing collected records
	stateImportSelect                 // Picking a wirelist document to import
	stateExportName                   // Naming the wirelist document to write
)

const logTailLines = 8

var promptOrder = []trace.Phase{
	trace.PhaseSeedPanel,
	trace.PhaseSeedDevice,
	trace.PhaseSeedTerminal,
	trace.PhaseDestPanel,
	trace.PhaseDestDevice,
	trace.PhaseDestTerminal,
	trace.PhaseConfirm,
	trace.PhaseRemaining,
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithEngineOptions appends options applied when the trace engine is built,
// letting tests pin the clock or the session identifier.
func WithEngineOptions(opts ...trace.Option) AppOption {
	return func(a *App) {
		a.engineOpts = append(a.engineOpts, opts...)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	engine  *trace.Engine
	lists   *wirelist.Store
	logbook *logbook.Logbook

	engineOpts  []trace.Option
	traceView   *traceView
	recordsView *recordsView

	// UI components
	mainMenu      list.Model      // The main menu list
	importMenu    list.Model      // Wirelist picker for imports
	exportName    textinput.Model // File name input for exports
	statusMsg     string          // Status message to display
	err           error           // Any error to display
	lastLogStatus string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type wirelistOption struct {
	name string
	path string
}

func (o wirelistOption) Title() string       { return o.name }
func (o wirelistOption) Description() string { return o.path }
func (o wirelistOption) FilterValue() string { return o.name }

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, lbErr := logbook.New(filepath.Join(cfg.LogsDir(), logbook.FileName))
	if lbErr != nil {
		lb = nil
	}

	app := &App{
		state:   stateMainMenu,
		config:  cfg,
		lists:   wirelist.NewStore(cfg.WirelistDir()),
		logbook: lb,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	engineOpts := []trace.Option{trace.WithHistoryDepth(cfg.HistoryDepth())}
	if policy, ok := trace.ParseResumePolicy(cfg.ResumePolicy()); ok {
		engineOpts = append(engineOpts, trace.WithResumePolicy(policy))
	}
	engineOpts = append(engineOpts, app.engineOpts...)
	eng, err := trace.New(trace.NewRepository(cfg.StateDir()), engineOpts...)
	if err != nil {
		return nil, err
	}
	resumed, err := eng.Resume()
	if err != nil {
		return nil, err
	}
	app.engine = eng
	if lb != nil {
		lb.BeginSession(eng.SessionID())
		if resumed {
			lb.Info("Session resumed · phase: %s · %d record(s)", eng.Phase(), len(eng.Records()))
		}
	}

	// Create the list components
	mainMenu := list.New(buildMainMenu(eng), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⌁ TRIPCOIL TERMINAL"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	importMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	importMenu.Title = "Import Wirelist"
	importMenu.SetShowStatusBar(false)
	importMenu.SetFilteringEnabled(false)
	exportName := textinput.New()
	exportName.Prompt = "File name: "
	exportName.CharLimit = 128

	app.mainMenu = mainMenu
	app.importMenu = importMenu
	app.exportName = exportName
	return app, nil
}

// buildMainMenu creates the main menu items based on session state
func buildMainMenu(eng *trace.Engine) []list.Item {
	items := []list.Item{}

	switch {
	case eng.Phase().IsActive():
		items = append(items, menuItem{
			title: fmt.Sprintf("Resume Trace (%s)", eng.Phase()),
			desc:  "Pick up the prompt you left off on",
		})
	case len(eng.Pending()) > 0:
		items = append(items, menuItem{
			title: fmt.Sprintf("Start Trace (%d pending)", len(eng.Pending())),
			desc:  "Circle back to the terminals still owing wires",
		})
	default:
		items = append(items, menuItem{
			title: "Start Trace",
			desc:  "Begin a fresh trace at a seed terminal",
		})
	}

	if held := eng.HistoryLen(); held > 0 {
		items = append(items, menuItem{
			title: fmt.Sprintf("Undo Last Commit (%d held)", held),
			desc:  "Roll records, stack, and prompt back one step",
		})
	}

	items = append(items,
		menuItem{title: "View Records", desc: fmt.Sprintf("%d row(s) collected this session", len(eng.Records()))},
		menuItem{title: "Import Wirelist", desc: "Replace session records with a document"},
		menuItem{title: "Export Wirelist", desc: "Write session records to a document"},
		menuItem{title: "Exit", desc: "Quit TripCoil"},
	)

	return items
}

func (a *App) setStatus(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	a.statusMsg = message
	a.logProgress(message)
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) logProgress(status string) {
	status = strings.TrimSpace(status)
	if status == "" || status == a.lastLogStatus {
		return
	}
	a.lastLogStatus = status
	a.logInfo(status)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.importMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		return a, nil

	case traceLeftMsg:
		a.setStatus(msg.reason)
		return a.returnToMainMenu()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "esc":
			if a.state != stateMainMenu {
				return a.returnToMainMenu()
			}
		case "enter":
			switch a.state {
			case stateMainMenu:
				return a.handleMainMenuSelection()
			case stateImportSelect:
				return a.confirmImportSelection()
			case stateExportName:
				return a.confirmExport()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMainMenu:
		var menuCmd tea.Cmd
		a.mainMenu, menuCmd = a.mainMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	case stateImportSelect:
		var menuCmd tea.Cmd
		a.importMenu, menuCmd = a.importMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	case stateExportName:
		var inputCmd tea.Cmd
		a.exportName, inputCmd = a.exportName.Update(msg)
		if inputCmd != nil {
			cmds = append(cmds, inputCmd)
		}
	case stateTrace:
		if a.traceView != nil {
			if cmd := a.traceView.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	case stateRecords:
		if a.recordsView != nil {
			a.recordsView.Update(msg)
		}
	}

	return a, tea.Batch(cmds...)
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch {
	case strings.HasPrefix(item.title, "Start Trace"):
		a.logInfo("Menu · Start Trace selected")
		return a.openTrace(false)

	case strings.HasPrefix(item.title, "Resume Trace"):
		a.logInfo("Menu · Resume Trace selected (%s)", a.engine.Phase())
		return a.openTrace(true)

	case strings.HasPrefix(item.title, "Undo Last Commit"):
		a.logInfo("Menu · Undo selected")
		return a.performUndo()

	case item.title == "View Records":
		a.logInfo("Menu · View Records selected")
		a.recordsView = newRecordsView(a)
		a.state = stateRecords
		return a, nil

	case item.title == "Import Wirelist":
		a.logInfo("Menu · Import Wirelist selected")
		return a.beginImportSelection()

	case item.title == "Export Wirelist":
		a.logInfo("Menu · Export Wirelist selected")
		return a.beginExportName()

	case item.title == "Exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}

	return a, nil
}

// openTrace enters the prompt cycle, either resuming the outstanding prompt
// or asking the engine where the next pass begins.
func (a *App) openTrace(resume bool) (tea.Model, tea.Cmd) {
	view := newTraceView(a)
	if err := view.Open(resume); err != nil {
		a.err = err
		a.setStatus(fmt.Sprintf("Trace failed to start: %v", err))
		a.logError("Trace failed to start: %v", err)
		return a, nil
	}
	a.err = nil
	a.traceView = view
	a.state = stateTrace
	return a, nil
}

// performUndo rolls the session back one commit. When the restored phase is
// mid-prompt the trace screen reopens on the question the undone commit had
// answered.
func (a *App) performUndo() (tea.Model, tea.Cmd) {
	ok, err := a.engine.Undo()
	if err != nil {
		a.setStatus(fmt.Sprintf("Undo failed: %v", err))
		a.logError("Undo failed: %v", err)
		return a, nil
	}
	if !ok {
		a.setStatus("Nothing to undo")
		return a, nil
	}
	a.logInfo("Undo · rolled back to %s", a.engine.Phase())
	if a.engine.Phase().IsActive() {
		a.setStatus("Undid last commit · the prompt returns to where it was")
		return a.openTrace(true)
	}
	a.setStatus("Undid last commit")
	a.mainMenu.SetItems(buildMainMenu(a.engine))
	return a, nil
}

func (a *App) beginImportSelection() (tea.Model, tea.Cmd) {
	names, err := a.lists.List()
	if err != nil {
		a.setStatus(fmt.Sprintf("Listing wirelists failed: %v", err))
		a.logError("Listing wirelists failed: %v", err)
		return a, nil
	}
	if len(names) == 0 {
		a.setStatus(fmt.Sprintf("No wirelist documents in %s", a.lists.Dir()))
		return a, nil
	}
	items := make([]list.Item, len(names))
	for i, name := range names {
		path, _ := a.lists.Path(name)
		items[i] = wirelistOption{name: name, path: path}
	}
	a.importMenu.SetItems(items)
	if a.width > 0 && a.height > 0 {
		a.importMenu.SetSize(max(0, a.width-6), max(0, a.height-12))
	}
	a.state = stateImportSelect
	a.statusMsg = "Select a wirelist to import"
	return a, nil
}

func (a *App) confirmImportSelection() (tea.Model, tea.Cmd) {
	item, ok := a.importMenu.SelectedItem().(wirelistOption)
	if !ok {
		a.statusMsg = "Wirelist selection unavailable"
		return a, nil
	}
	report, err := a.importDocument(item.name)
	if err != nil {
		a.setStatus(fmt.Sprintf("Import failed: %v", err))
		a.logError("Import %s failed: %v", item.name, err)
		return a, nil
	}
	for _, warning := range report.Warnings {
		a.logWarn("Import %s · %s", item.name, warning)
	}
	summary := fmt.Sprintf("Imported %d row(s) from %s", len(report.Records), item.name)
	if len(report.Warnings) > 0 {
		summary += fmt.Sprintf(" · %d warning(s)", len(report.Warnings))
	}
	if report.Excluded > 0 {
		summary += fmt.Sprintf(" · %d row(s) excluded", report.Excluded)
	}
	a.setStatus(summary)
	return a.returnToMainMenu()
}

// importDocument replaces the session records with the parsed document. The
// engine checkpoints first, so a regretted import is one undo away.
func (a *App) importDocument(name string) (codec.Report, error) {
	report, err := a.lists.Load(name)
	if err != nil {
		return codec.Report{}, err
	}
	return report, a.engine.Adopt(report)
}

func (a *App) beginExportName() (tea.Model, tea.Cmd) {
	a.exportName.SetValue(a.config.Project.Files.DefaultName)
	a.exportName.CursorEnd()
	a.exportName.Focus()
	a.state = stateExportName
	a.statusMsg = "Name the wirelist document to write"
	return a, nil
}

func (a *App) confirmExport() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(a.exportName.Value())
	records := a.engine.Records()
	if err := a.lists.Save(name, records); err != nil {
		a.setStatus(fmt.Sprintf("Export failed: %v", err))
		a.logError("Export %s failed: %v", name, err)
		return a, nil
	}
	if err := a.config.SetDefaultWirelist(name); err != nil {
		a.logWarn("Default wirelist not updated: %v", err)
	}
	a.setStatus(fmt.Sprintf("Exported %d row(s) to %s", len(records), name))
	return a.returnToMainMenu()
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.traceView = nil
	a.recordsView = nil
	a.exportName.Blur()
	a.logInfo("Returned to main menu (phase: %s)", a.engine.Phase())

	// Refresh menu items (session state may have changed)
	a.mainMenu.SetItems(buildMainMenu(a.engine))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
	}
	if leftWidth < 20 {
		leftWidth = width
		rightWidth = 0
	}
	if a.state == stateMainMenu {
		a.mainMenu.SetSize(max(20, leftWidth-4), max(10, a.height-12))
	}
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateTrace:
		if a.traceView != nil {
			content = a.traceView.View()
		} else {
			content = "Preparing trace…"
		}
	case stateRecords:
		if a.recordsView != nil {
			content = a.recordsView.View()
		}
	case stateImportSelect:
		content = a.renderImportSelection()
	case stateExportName:
		content = a.renderExportName()
	}
	return a.renderBoard(content, leftWidth, rightWidth)
}

func (a *App) renderBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F7B801")).
		MarginBottom(1).
		Render("⌁ TRIPCOIL")
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderSessionPanel(leftWidth-4),
		"",
		a.renderMainArea(mainContent, leftWidth-4),
	)
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(left)
	var body string
	if rightWidth > 0 {
		right := a.renderPendingPanel(rightWidth - 4)
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(right)
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderSessionPanel(width int) string {
	phaseLine := "Phase: idle"
	if a.engine.Phase().IsActive() {
		pos, total := promptPosition(a.engine.Phase())
		phaseLine = fmt.Sprintf("Phase: %s (%d/%d)", a.engine.Phase(), pos+1, total)
	}
	confirmed, unconfirmed, pending := statusTally(a.engine.Records())
	lines := []string{
		phaseLine,
		fmt.Sprintf("Records: %d · %d confirmed · %d unconfirmed · %d pending",
			len(a.engine.Records()), confirmed, unconfirmed, pending),
		fmt.Sprintf("Policy: %s · Undo: %d step(s)", a.config.ResumePolicy(), a.engine.HistoryLen()),
	}
	if a.err != nil {
		lines = append(lines, fmt.Sprintf("⚠ %v", a.err))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderMainArea(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		content = "Ready to trace."
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(content)
}

func (a *App) renderImportSelection() string {
	view := a.importMenu.View()
	if strings.TrimSpace(view) == "" {
		view = "No wirelist documents available"
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → import document    Esc → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, view, hint)
}

func (a *App) renderExportName() string {
	head := lipgloss.NewStyle().Bold(true).Render("Export Wirelist")
	body := fmt.Sprintf("Writing %d row(s) into %s", len(a.engine.Records()), a.lists.Dir())
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → write document    Esc → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, head, body, "", a.exportName.View(), hint)
}

// renderPendingPanel shows the deferred terminals, most recent first. The
// top entry is the one the next Start resumes from.
func (a *App) renderPendingPanel(width int) string {
	pending := a.engine.Pending()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Pending (%d) · %d wire(s)", len(pending), a.engine.PendingWires()))
	if len(pending) == 0 {
		note := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render("No deferred terminals. Every stated wire is accounted for.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	var rows []string
	for i := len(pending) - 1; i >= 0; i-- {
		entry := pending[i]
		line := fmt.Sprintf("%s · %d remaining", entry.Ref, entry.Remaining)
		style := lipgloss.NewStyle().Width(max(20, width))
		if i == len(pending)-1 {
			line = "▸ " + line
			style = style.Bold(true)
		} else {
			line = "  " + line
		}
		rows = append(rows, style.Render(line))
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("▸ resumes next")
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"), hint)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(logTailLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
	return box
}

func statusTally(records []record.Record) (confirmed, unconfirmed, pending int) {
	for _, rec := range records {
		switch rec.Status {
		case record.StatusConfirmed:
			confirmed++
		case record.StatusUnconfirmed:
			unconfirmed++
		default:
			pending++
		}
	}
	return confirmed, unconfirmed, pending
}

func promptPosition(p trace.Phase) (int, int) {
	for i, phase := range promptOrder {
		if p == phase {
			return i, len(promptOrder)
		}
	}
	return len(promptOrder), len(promptOrder)
}
