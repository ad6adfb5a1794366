package associate

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("51")).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render draws the dialog. spinner is shown while candidates load.
func Render(w *Workflow, spinner string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Associate Elastic IP"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Instance:   "))
	b.WriteString(normalStyle.Render(w.InstanceID))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Elastic IP:"))
	b.WriteString("\n")

	if w.Phase == Opening {
		b.WriteString(spinner + " Loading available elastic IPs...")
		return b.String()
	}

	for i, opt := range w.Options() {
		switch {
		case opt.Disabled:
			b.WriteString(disabledStyle.Render("  " + opt.Label))
		case i == w.Cursor:
			b.WriteString(selectedStyle.Render("> " + opt.Label))
		default:
			b.WriteString(normalStyle.Render("  " + opt.Label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if w.Submitting() {
		b.WriteString(spinner + " Associating...\n")
	}
	b.WriteString(hintStyle.Render("j/k: choose • enter: associate • esc: cancel"))
	return b.String()
}
