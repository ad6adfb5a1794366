package eip

import (
	"fmt"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/ui/resource"
)

// TableSpec describes the elastic IP table.
var TableSpec = resource.Spec{
	Columns:     []string{"PUBLIC IP", "ALLOCATION ID", "INSTANCE", "STATUS", "ACTIONS"},
	Widths:      []int{16, 28, 20, 14, 24},
	LoadingText: "Loading elastic IPs...",
	EmptyText:   "No elastic IPs found",
	ErrorPrefix: "Failed to load elastic IPs",
}

// Status is the label shown in the STATUS column.
func Status(e api.ElasticIP) string {
	if e.Associated() {
		return "associated"
	}
	return "unassociated"
}

// Actions lists the row actions. Disassociate needs an association.
func Actions(e api.ElasticIP) []string {
	if e.Associated() {
		return []string{OpDisassociate, OpRelease}
	}
	return []string{OpRelease}
}

// Row renders one elastic IP.
func Row(e api.ElasticIP) resource.Row {
	instance := e.InstanceID
	if instance == "" {
		instance = "none"
	}
	return resource.Row{
		Cells:   []string{e.PublicIP, e.AllocationID, instance, Status(e)},
		Actions: Actions(e),
	}
}

// Rows renders the elastic IP table body.
func (s *State) Rows() []resource.Row {
	return s.Loader.Rows(Row)
}

// RenderList renders the elastic IP table.
func RenderList(s *State, spin string) string {
	title := fmt.Sprintf("Elastic-IPs[%d]", len(s.Loader.Items))
	return resource.Table(title, TableSpec, s.Rows(), s.SelectedIndex, &s.Viewport, spin)
}
