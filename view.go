package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/ui/associate"
	"github.com/noelruault/lazyeip/internal/ui/credentials"
	uiEC2 "github.com/noelruault/lazyeip/internal/ui/ec2"
	"github.com/noelruault/lazyeip/internal/ui/eip"
	"github.com/noelruault/lazyeip/internal/ui/resource"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("51")).Bold(true).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	keyHintKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	keyHintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	modalStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("51")).Padding(1, 2)
	contentStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

func alertStyle(sev notify.Severity) lipgloss.Style {
	color := resource.ColorSecondary
	switch sev {
	case notify.SeveritySuccess:
		color = resource.ColorSuccess
	case notify.SeverityDanger:
		color = resource.ColorDanger
	case notify.SeverityWarning:
		color = resource.ColorWarning
	case notify.SeverityInfo:
		color = lipgloss.Color("6")
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")

	body := m.renderSection()
	if modal := m.renderModal(); modal != "" {
		body = modalStyle.Render(modal)
	}
	s.WriteString(contentStyle.Render(body))
	s.WriteString("\n")

	if alerts := m.renderAlerts(); alerts != "" {
		s.WriteString(alerts)
		s.WriteString("\n")
	}
	s.WriteString(m.renderKeyHints())
	return s.String()
}

func (m model) renderHeader() string {
	tabs := make([]string, 0, sectionCount)
	for sec := credentialsSection; sec < sectionCount; sec++ {
		label := fmt.Sprintf("%d %s", int(sec)+1, sec)
		if sec == m.section {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render("lazyeip "), strings.Join(tabs, " "))
}

func (m model) renderSection() string {
	spin := m.spinner.View()
	switch m.section {
	case credentialsSection:
		return credentials.RenderList(m.creds, spin)
	case instancesSection:
		return credentials.RenderSelector("Credential", m.creds.InstanceSelector) + "\n\n" + m.renderInstances(spin)
	default:
		return credentials.RenderSelector("Credential", m.creds.ElasticIPSelector) + "\n\n" + m.renderElasticIPs(spin)
	}
}

func (m model) renderInstances(spin string) string {
	if !m.session.HasActive() {
		return keyHintStyle.Render("Select a credential to view instances (press s)")
	}
	return uiEC2.RenderList(m.ec2, spin)
}

func (m model) renderElasticIPs(spin string) string {
	if !m.session.HasActive() {
		return keyHintStyle.Render("Select a credential to view elastic IPs (press s)")
	}
	return eip.RenderList(m.eips, spin)
}

// renderModal returns the dialog that currently owns the keyboard, if any.
func (m model) renderModal() string {
	switch {
	case m.confirm != nil:
		var b strings.Builder
		b.WriteString(m.confirm.Prompt)
		if m.confirm.Warning != "" {
			b.WriteString("\n")
			b.WriteString(warningStyle.Render(m.confirm.Warning))
		}
		b.WriteString("\n\n")
		b.WriteString(keyHintStyle.Render("y: confirm • n: cancel"))
		return b.String()
	case m.creds.Form.Open:
		return credentials.RenderForm(m.creds)
	case m.assoc.Active():
		return associate.Render(m.assoc, m.spinner.View())
	case m.ec2.ShowingDetails:
		return uiEC2.RenderDetails(m.ec2)
	case m.showHelp:
		return m.renderHelp()
	}
	return ""
}

func (m model) renderAlerts() string {
	alerts := m.notifier.Alerts()
	if len(alerts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		lines = append(lines, alertStyle(a.Severity).Render("● ")+a.Message)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderKeyHints() string {
	hints := make([]string, 0, 8)
	for _, b := range m.keys.ShortHelp(m.section) {
		h := b.Help()
		hints = append(hints, keyHintKeyStyle.Render("<"+h.Key+">")+" "+keyHintStyle.Render(h.Desc))
	}
	return strings.Join(hints, "  ")
}

func (m model) renderHelp() string {
	bindings := []struct {
		section string
		keys    []string
	}{
		{"Navigation", []string{"1/2/3: switch section", "tab: next section", "j/k: move", "esc: close / dismiss alert", "q: quit"}},
		{"Credentials", []string{"a: add credential", "d: delete credential", "r: reload"}},
		{"Instances", []string{"s: select credential", "enter: details", "a: associate elastic IP", "o: open in console", "r: reload"}},
		{"Elastic IPs", []string{"s: select credential", "n: allocate", "d: disassociate", "x: release", "r: reload"}},
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Help"))
	b.WriteString("\n")
	for _, group := range bindings {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render(group.section))
		b.WriteString("\n")
		for _, k := range group.keys {
			b.WriteString("  " + k + "\n")
		}
	}
	return b.String()
}
