package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

var (
	tableHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	tableWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	tableDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

const warningsShown = 4

// recordsView is a scrollable table of the session's records plus the
// validation warnings from the most recent import.
type recordsView struct {
	app    *App
	offset int
}

func newRecordsView(app *App) *recordsView {
	return &recordsView{app: app}
}

func (v *recordsView) pageSize() int {
	size := v.app.height - 16
	if size < 5 {
		size = 5
	}
	return size
}

func (v *recordsView) Update(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}
	last := max(0, len(v.app.engine.Records())-1)
	switch key.String() {
	case "up", "k":
		if v.offset > 0 {
			v.offset--
		}
	case "down", "j":
		if v.offset < last {
			v.offset++
		}
	case "pgup":
		v.offset = max(0, v.offset-v.pageSize())
	case "pgdown":
		v.offset = min(last, v.offset+v.pageSize())
	case "home", "g":
		v.offset = 0
	}
}

func (v *recordsView) View() string {
	records := v.app.engine.Records()
	sections := []string{tableHeadStyle.Render(fmt.Sprintf("Records (%d)", len(records)))}

	if warnings := v.app.engine.Warnings(); len(warnings) > 0 {
		lines := []string{fmt.Sprintf("Import warnings (%d):", len(warnings))}
		shown := warnings
		if len(shown) > warningsShown {
			shown = shown[:warningsShown]
		}
		for _, warning := range shown {
			lines = append(lines, "  "+warning.String())
		}
		if extra := len(warnings) - len(shown); extra > 0 {
			lines = append(lines, fmt.Sprintf("  … and %d more (see the journey log)", extra))
		}
		sections = append(sections, tableWarnStyle.Render(strings.Join(lines, "\n")))
	}

	if len(records) == 0 {
		sections = append(sections,
			tableDimStyle.Render("No records yet. Trace a wire or import a wirelist."),
			hintTextStyle.Render("esc=menu"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	rows := []string{tableHeadStyle.Render(fmt.Sprintf(
		"%4s  %-2s  %-24s  %-24s  %-10s  %-12s  %s",
		"#", "ST", "FROM", "TO", "CABLE", "SIGNAL", "REMARKS"))}
	end := min(len(records), v.offset+v.pageSize())
	for i := v.offset; i < end; i++ {
		rows = append(rows, renderRecordRow(i, records[i]))
	}
	sections = append(sections, strings.Join(rows, "\n"))
	if v.offset > 0 || end < len(records) {
		sections = append(sections, tableDimStyle.Render(
			fmt.Sprintf("rows %d-%d of %d", v.offset+1, end, len(records))))
	}
	sections = append(sections, hintTextStyle.Render("↑/↓ scroll  pgup/pgdn page  g=top  esc=menu"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderRecordRow(idx int, rec record.Record) string {
	to := rec.To.String()
	if !rec.IsWire() && rec.To.IsZero() {
		to = "(" + strings.TrimSpace(rec.RowType) + ")"
	}
	return fmt.Sprintf("%4d  %-2s  %-24s  %-24s  %-10s  %-12s  %s",
		idx+1,
		rec.Status.Code(),
		clip(rec.From.String(), 24),
		clip(to, 24),
		clip(rec.CableID, 10),
		clip(rec.SignalID, 12),
		clip(rec.Remarks, 28),
	)
}

// clip truncates a cell to the column width, marking the cut.
func clip(s string, width int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
