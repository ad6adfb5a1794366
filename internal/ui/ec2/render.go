package ec2

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/ui/resource"
)

// TableSpec describes the instance table.
var TableSpec = resource.Spec{
	Columns:     []string{"ID", "TYPE", "STATE", "PUBLIC IP", "PRIVATE IP", "ACTIONS"},
	Widths:      []int{20, 12, 14, 16, 16, 20},
	LoadingText: "Loading instances...",
	EmptyText:   "No instances found",
	ErrorPrefix: "Failed to load instances",
}

// LaunchTimeLayout is how launch times are shown, in local time.
const LaunchTimeLayout = "2006-01-02 15:04:05"

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// StateColor maps an instance state to its badge color.
func StateColor(state string) lipgloss.Color {
	return resource.StateColor(state)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Row renders one instance.
func Row(inst api.Instance) resource.Row {
	return resource.Row{
		Cells:   []string{inst.ID, inst.InstanceType, inst.State, orDash(inst.PublicIP), orDash(inst.PrivateIP)},
		Actions: []string{"associate", "details"},
		State:   inst.State,
	}
}

// Rows renders the instance table body.
func (s *State) Rows() []resource.Row {
	return s.Loader.Rows(Row)
}

// RenderList renders the instance table.
func RenderList(s *State, spin string) string {
	title := fmt.Sprintf("EC2-Instances[%d]", len(s.Loader.Items))
	return resource.Table(title, TableSpec, s.Rows(), s.SelectedIndex, &s.Viewport, spin)
}

// DetailRow is one attribute of the detail modal. Value may span lines.
type DetailRow struct {
	Label string
	Value string
}

// DetailRows lists the attributes shown for inst.
func DetailRows(inst api.Instance) []DetailRow {
	launched := "none"
	if !inst.LaunchTime.IsZero() {
		launched = fmt.Sprintf("%s (%s)", inst.LaunchTime.Local().Format(LaunchTimeLayout), humanize.Time(inst.LaunchTime))
	}

	groups := make([]string, 0, len(inst.SecurityGroups))
	for _, sg := range inst.SecurityGroups {
		groups = append(groups, fmt.Sprintf("%s (%s)", sg.Name, sg.ID))
	}
	tags := make([]string, 0, len(inst.Tags))
	for _, tag := range inst.Tags {
		tags = append(tags, fmt.Sprintf("%s: %s", tag.Key, tag.Value))
	}

	return []DetailRow{
		{"Instance ID", inst.ID},
		{"Type", inst.InstanceType},
		{"State", inst.State},
		{"Public IP", orNone(inst.PublicIP)},
		{"Private IP", orNone(inst.PrivateIP)},
		{"Availability Zone", orNone(inst.AvailabilityZone)},
		{"Launch Time", launched},
		{"Security Groups", orNone(strings.Join(groups, "\n"))},
		{"Tags", orNone(strings.Join(tags, "\n"))},
	}
}

// RenderDetails renders the EC2 details modal.
func RenderDetails(s *State) string {
	if s.Details == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("EC2 Instance Details"))
	b.WriteString("\n\n")
	for _, row := range DetailRows(*s.Details) {
		value := valueStyle.Render(row.Value)
		if row.Label == "State" {
			value = lipgloss.NewStyle().Foreground(StateColor(row.Value)).Bold(true).Render(row.Value)
		}
		lines := strings.Split(value, "\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-20s", row.Label)))
		b.WriteString(lines[0])
		b.WriteString("\n")
		for _, line := range lines[1:] {
			b.WriteString(strings.Repeat(" ", 20))
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("o: open in console • esc: close"))
	return b.String()
}
