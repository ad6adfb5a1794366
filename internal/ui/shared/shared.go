package shared

import tea "github.com/charmbracelet/bubbletea"

// Viewport holds scrolling state for list-like views.
type Viewport struct {
	Offset int
	Height int
}

// EnsureVisible adjusts the viewport offset to keep the selected item visible.
func EnsureVisible(selectedIndex, listLength int, vp *Viewport) {
	if listLength == 0 || vp == nil || vp.Height <= 0 {
		return
	}
	if selectedIndex < vp.Offset {
		vp.Offset = selectedIndex
	} else if selectedIndex >= vp.Offset+vp.Height {
		vp.Offset = selectedIndex - vp.Height + 1
	}
	maxOffset := listLength - vp.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if vp.Offset > maxOffset {
		vp.Offset = maxOffset
	}
	if vp.Offset < 0 {
		vp.Offset = 0
	}
}

// GetVisibleRange returns start and end indices for the current viewport.
func GetVisibleRange(listLength int, vp Viewport) (int, int) {
	if listLength == 0 || vp.Height <= 0 {
		return 0, 0
	}
	start := vp.Offset
	end := vp.Offset + vp.Height
	if end > listLength {
		end = listLength
	}
	return start, end
}

// Truncate shortens a string to the given width with ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// MoveCursor returns index moved by delta and clamped to [0, listLength).
func MoveCursor(index, delta, listLength int) int {
	if listLength == 0 {
		return 0
	}
	index += delta
	if index < 0 {
		index = 0
	}
	if index >= listLength {
		index = listLength - 1
	}
	return index
}

// Confirmation is a pending destructive action. The view shows Prompt (and
// Warning when set); Run is invoked only after the user confirms.
type Confirmation struct {
	Prompt  string
	Warning string
	Run     func() tea.Cmd
}
