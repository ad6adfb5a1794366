package credentials

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/ui/resource"
)

// TableSpec describes the credential table.
var TableSpec = resource.Spec{
	Columns:     []string{"NAME", "ACCESS KEY", "REGION", "CREATED", "ACTIONS"},
	Widths:      []int{20, 22, 14, 20, 10},
	LoadingText: "Loading credentials...",
	EmptyText:   "No credentials saved",
}

var (
	formTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	formLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	formHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("51")).Bold(true)
	optionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

var fieldLabels = [fieldCount]string{"Name", "Access Key", "Secret Key", "Region"}

// Row renders one credential. The secret is never part of api.Credential.
func Row(cred api.Credential) resource.Row {
	created := "-"
	if !cred.CreatedAt.IsZero() {
		created = humanize.Time(cred.CreatedAt)
	}
	return resource.Row{
		Cells:   []string{cred.Name, cred.AccessKey, cred.Region, created},
		Actions: []string{"delete"},
	}
}

// Rows renders the credential table body.
func (c *Controller) Rows() []resource.Row {
	span := len(TableSpec.Columns)
	if !c.Loaded {
		return []resource.Row{{Kind: resource.LoadingRow, Cells: []string{TableSpec.LoadingText}, Span: span}}
	}
	if len(c.Credentials) == 0 {
		return []resource.Row{{Kind: resource.EmptyRow, Cells: []string{TableSpec.EmptyText}, Span: span}}
	}
	rows := make([]resource.Row, 0, len(c.Credentials))
	for _, cred := range c.Credentials {
		r := Row(cred)
		r.Span = 1
		rows = append(rows, r)
	}
	return rows
}

// RenderList renders the credential table.
func RenderList(c *Controller, spin string) string {
	title := fmt.Sprintf("Credentials[%d]", len(c.Credentials))
	return resource.Table(title, TableSpec, c.Rows(), c.Selected, &c.Viewport, spin)
}

// RenderForm renders the creation dialog.
func RenderForm(c *Controller) string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render("Add Credential"))
	b.WriteString("\n\n")
	for i, input := range c.Form.Inputs {
		b.WriteString(formLabelStyle.Render(fmt.Sprintf("%-12s", fieldLabels[i])))
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formHintStyle.Render("tab: next field • enter: save • esc: cancel"))
	return b.String()
}

// RenderSelector renders a selector as a single line, or as its option
// list while it is open.
func RenderSelector(label string, s Selector) string {
	if !s.Open {
		return formLabelStyle.Render(label+": ") + optionStyle.Render(s.Label())
	}
	var b strings.Builder
	b.WriteString(formLabelStyle.Render(label + ":"))
	for i, opt := range s.Options {
		b.WriteString("\n")
		if i == s.Cursor {
			b.WriteString(selectedStyle.Render("> " + opt.Label))
		} else {
			b.WriteString(optionStyle.Render("  " + opt.Label))
		}
	}
	return b.String()
}
