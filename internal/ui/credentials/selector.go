package credentials

import "github.com/noelruault/lazyeip/internal/api"

// SentinelLabel is the first option of every selector. Choosing it
// deselects the active credential.
const SentinelLabel = "Select a credential"

// Option is one selector entry. The sentinel has an empty ID.
type Option struct {
	ID    string
	Label string
}

// Selector is a dropdown of credentials.
type Selector struct {
	Options []Option
	Cursor  int
	Open    bool
}

// NewSelector builds the sentinel plus one option per credential and keeps
// selectedID selected if it is still present.
func NewSelector(creds []api.Credential, selectedID string) Selector {
	opts := make([]Option, 0, len(creds)+1)
	opts = append(opts, Option{Label: SentinelLabel})
	for _, cred := range creds {
		opts = append(opts, Option{ID: cred.ID, Label: cred.Name + " (" + cred.Region + ")"})
	}
	s := Selector{Options: opts}
	s.Select(selectedID)
	return s
}

// Value returns the selected credential id, or "" for the sentinel.
func (s Selector) Value() string {
	if s.Cursor < 0 || s.Cursor >= len(s.Options) {
		return ""
	}
	return s.Options[s.Cursor].ID
}

// Label returns the text of the selected option.
func (s Selector) Label() string {
	if s.Cursor < 0 || s.Cursor >= len(s.Options) {
		return SentinelLabel
	}
	return s.Options[s.Cursor].Label
}

// Select moves the cursor to id, falling back to the sentinel.
func (s *Selector) Select(id string) {
	s.Cursor = 0
	if id == "" {
		return
	}
	for i, opt := range s.Options {
		if opt.ID == id {
			s.Cursor = i
			return
		}
	}
}

// Move shifts the cursor within the options.
func (s *Selector) Move(delta int) {
	s.Cursor += delta
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor >= len(s.Options) {
		s.Cursor = len(s.Options) - 1
	}
}
