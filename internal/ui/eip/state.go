// Package eip holds the elastic IP table and its mutations.
package eip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/session"
	"github.com/noelruault/lazyeip/internal/ui/resource"
	"github.com/noelruault/lazyeip/internal/ui/shared"
)

// Backend is the part of the API client the elastic IP view needs.
type Backend interface {
	ListElasticIPs(ctx context.Context, credentialID string) ([]api.ElasticIP, error)
	AllocateElasticIP(ctx context.Context, credentialID string) error
	DisassociateElasticIP(ctx context.Context, credentialID, associationID string) error
	ReleaseElasticIP(ctx context.Context, credentialID, allocationID string) error
}

// Mutation kinds
const (
	OpAllocate     = "allocate"
	OpDisassociate = "disassociate"
	OpRelease      = "release"
)

var pastTense = map[string]string{
	OpAllocate:     "allocated",
	OpDisassociate: "disassociated",
	OpRelease:      "released",
}

// LoadedMsg is the result of an elastic IP listing.
type LoadedMsg = resource.LoadedMsg[api.ElasticIP]

// MutationMsg is the result of allocate, disassociate or release.
type MutationMsg struct {
	Op           string
	CredentialID string
	Err          error
}

// AvailableMsg carries the unassociated elastic IPs for one credential.
type AvailableMsg struct {
	CredentialID string
	Candidates   []api.ElasticIP
	Err          error
}

// State contains elastic IP UI and data state.
type State struct {
	Loader        *resource.Loader[api.ElasticIP]
	SelectedIndex int
	Viewport      shared.Viewport

	backend Backend
	session *session.Context
	timeout time.Duration
	logger  *slog.Logger
}

// New creates the elastic IP state bound to the shared selection context.
func New(backend Backend, sess *session.Context, timeout time.Duration, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		Loader:  resource.NewLoader[api.ElasticIP](session.ElasticIPs, TableSpec, backend.ListElasticIPs, sess, timeout, logger),
		backend: backend,
		session: sess,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *State) context() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

// Load fetches elastic IPs for credentialID.
func (s *State) Load(credentialID string) tea.Cmd {
	return s.Loader.Load(credentialID)
}

// HandleLoaded applies a listing and keeps the cursor in range.
func (s *State) HandleLoaded(msg LoadedMsg) bool {
	if !s.Loader.Apply(msg) {
		return false
	}
	s.SelectedIndex = shared.MoveCursor(s.SelectedIndex, 0, len(s.Loader.Items))
	return true
}

// Clear empties the table.
func (s *State) Clear() {
	s.Loader.Clear()
	s.SelectedIndex = 0
	s.Viewport.Offset = 0
}

// Move shifts the cursor.
func (s *State) Move(delta int) {
	s.SelectedIndex = shared.MoveCursor(s.SelectedIndex, delta, len(s.Loader.Items))
	shared.EnsureVisible(s.SelectedIndex, len(s.Loader.Items), &s.Viewport)
}

// Selected returns the elastic IP under the cursor.
func (s *State) Selected() (api.ElasticIP, bool) {
	if s.Loader.Phase != resource.Ready || s.SelectedIndex >= len(s.Loader.Items) {
		return api.ElasticIP{}, false
	}
	return s.Loader.Items[s.SelectedIndex], true
}

func (s *State) mutate(op, credentialID string, call func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.context()
		defer cancel()
		return MutationMsg{Op: op, CredentialID: credentialID, Err: call(ctx)}
	}
}

// Allocate requests a new address. It needs no confirmation.
func (s *State) Allocate(credentialID string) tea.Cmd {
	backend := s.backend
	return s.mutate(OpAllocate, credentialID, func(ctx context.Context) error {
		return backend.AllocateElasticIP(ctx, credentialID)
	})
}

// Disassociate unbinds an address. Only call it after confirmation.
func (s *State) Disassociate(credentialID, associationID string) tea.Cmd {
	backend := s.backend
	return s.mutate(OpDisassociate, credentialID, func(ctx context.Context) error {
		return backend.DisassociateElasticIP(ctx, credentialID, associationID)
	})
}

// Release returns an address to the pool. Only call it after confirmation.
func (s *State) Release(credentialID, allocationID string) tea.Cmd {
	backend := s.backend
	return s.mutate(OpRelease, credentialID, func(ctx context.Context) error {
		return backend.ReleaseElasticIP(ctx, credentialID, allocationID)
	})
}

// RequestDisassociate returns the confirmation guarding Disassociate. The
// bool is false when the address is not associated.
func (s *State) RequestDisassociate(credentialID string, eip api.ElasticIP) (shared.Confirmation, bool) {
	if !eip.Associated() {
		return shared.Confirmation{}, false
	}
	return shared.Confirmation{
		Prompt: fmt.Sprintf("Disassociate %s from %s?", eip.PublicIP, eip.InstanceID),
		Run:    func() tea.Cmd { return s.Disassociate(credentialID, eip.AssociationID) },
	}, true
}

// RequestRelease returns the confirmation guarding Release.
func (s *State) RequestRelease(credentialID string, eip api.ElasticIP) shared.Confirmation {
	return shared.Confirmation{
		Prompt:  fmt.Sprintf("Release elastic IP %s?", eip.PublicIP),
		Warning: "This action cannot be undone.",
		Run:     func() tea.Cmd { return s.Release(credentialID, eip.AllocationID) },
	}
}

// HandleMutation notifies and, on success, reloads the table so it matches
// the backend again. The reload is skipped when another credential became
// active while the request was in flight.
func (s *State) HandleMutation(msg MutationMsg) tea.Cmd {
	if msg.Err != nil {
		s.logger.Error("elastic IP mutation failed", "op", msg.Op, "credential_id", msg.CredentialID, "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to %s elastic IP: %v", msg.Op, msg.Err))
	}
	s.logger.Info("elastic IP mutation succeeded", "op", msg.Op, "credential_id", msg.CredentialID)
	done := notify.Success(fmt.Sprintf("Elastic IP %s", pastTense[msg.Op]))
	if msg.CredentialID != s.session.Active() {
		return done
	}
	return tea.Batch(s.Load(msg.CredentialID), done)
}

// ListAvailable fetches the unassociated addresses for the association
// dialog. The main table is not touched.
func (s *State) ListAvailable(credentialID string) tea.Cmd {
	backend := s.backend
	return func() tea.Msg {
		ctx, cancel := s.context()
		defer cancel()
		all, err := backend.ListElasticIPs(ctx, credentialID)
		if err != nil {
			return AvailableMsg{CredentialID: credentialID, Err: err}
		}
		return AvailableMsg{CredentialID: credentialID, Candidates: Available(all)}
	}
}

// Available keeps the addresses that have no instance.
func Available(all []api.ElasticIP) []api.ElasticIP {
	out := make([]api.ElasticIP, 0, len(all))
	for _, e := range all {
		if e.InstanceID == "" {
			out = append(out, e)
		}
	}
	return out
}
