package resource

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noelruault/lazyeip/internal/ui/shared"
)

const defaultColumnWidth = 18

var (
	tableTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Underline(true)
	loadingRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	emptyRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	scrollInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Badge colors
const (
	ColorSuccess   = lipgloss.Color("2")
	ColorDanger    = lipgloss.Color("1")
	ColorWarning   = lipgloss.Color("3")
	ColorSecondary = lipgloss.Color("8")
)

// StateColor maps an instance state to its badge color. Unknown states get
// the secondary color.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "running":
		return ColorSuccess
	case "stopped":
		return ColorDanger
	case "pending", "stopping":
		return ColorWarning
	}
	return ColorSecondary
}

// Table renders a titled table. Placeholder rows span the full width and
// loading rows are prefixed with spin. vp is kept scrolled to selected.
func Table(title string, spec Spec, rows []Row, selected int, vp *shared.Viewport, spin string) string {
	widths := make([]int, len(spec.Columns))
	total := 0
	for i := range spec.Columns {
		widths[i] = defaultColumnWidth
		if i < len(spec.Widths) && spec.Widths[i] > 0 {
			widths[i] = spec.Widths[i]
		}
		total += widths[i] + 1
	}

	var b strings.Builder
	b.WriteString(tableTitleStyle.Render(title))
	b.WriteString("\n")

	header := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		header[i] = pad(col, widths[i])
	}
	b.WriteString(tableHeaderStyle.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(rows) == 1 && rows[0].Kind != DataRow {
		text := shared.Truncate(rows[0].Cells[0], total)
		switch rows[0].Kind {
		case LoadingRow:
			if spin != "" {
				b.WriteString(spin + " ")
			}
			b.WriteString(loadingRowStyle.Render(text))
		case ErrorRow:
			b.WriteString(errorRowStyle.Render(text))
		default:
			b.WriteString(emptyRowStyle.Render(text))
		}
		return b.String()
	}

	if vp == nil {
		vp = &shared.Viewport{}
	}
	shared.EnsureVisible(selected, len(rows), vp)
	start, end := shared.GetVisibleRange(len(rows), *vp)
	if vp.Height <= 0 {
		start, end = 0, len(rows)
	}
	for i := start; i < end; i++ {
		b.WriteString(renderRow(rows[i], widths, i == selected))
		b.WriteString("\n")
	}
	if end-start < len(rows) {
		b.WriteString(scrollInfoStyle.Render(fmt.Sprintf("Showing %d-%d of %d", start+1, end, len(rows))))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderRow(row Row, widths []int, selected bool) string {
	cells := make([]string, len(widths))
	for i := range widths {
		var text string
		switch {
		case i < len(row.Cells):
			text = row.Cells[i]
		case i == len(widths)-1 && len(row.Actions) > 0:
			text = strings.Join(row.Actions, " | ")
		}
		cells[i] = pad(shared.Truncate(text, widths[i]), widths[i])
	}
	line := strings.Join(cells, " ")
	if selected {
		// Raw ANSI keeps lipgloss from widening the highlighted row.
		return "\x1b[48;5;51m\x1b[38;5;0m\x1b[1m" + line + "\x1b[0m"
	}
	if row.State != "" {
		// Color only the state cell so padding stays aligned.
		for i, cell := range row.Cells {
			if cell == row.State && i < len(cells) {
				cells[i] = lipgloss.NewStyle().Foreground(StateColor(row.State)).Render(pad(cell, widths[i]))
				return strings.Join(cells, " ")
			}
		}
	}
	return line
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
