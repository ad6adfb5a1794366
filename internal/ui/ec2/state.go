package ec2

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/session"
	"github.com/noelruault/lazyeip/internal/ui/resource"
	"github.com/noelruault/lazyeip/internal/ui/shared"
)

// Backend is the part of the API client the instance view needs.
type Backend interface {
	ListInstances(ctx context.Context, credentialID string) ([]api.Instance, error)
	GetInstance(ctx context.Context, credentialID, instanceID string) (api.Instance, error)
}

// LoadedMsg is the result of an instance listing.
type LoadedMsg = resource.LoadedMsg[api.Instance]

// DetailsMsg carries a single-instance lookup.
type DetailsMsg struct {
	CredentialID string
	Instance     api.Instance
	Err          error
}

// State contains EC2-specific UI and data state.
type State struct {
	Loader         *resource.Loader[api.Instance]
	SelectedIndex  int
	Viewport       shared.Viewport
	Details        *api.Instance
	ShowingDetails bool

	backend Backend
	session *session.Context
	timeout time.Duration
	logger  *slog.Logger
}

// New creates the instance state bound to the shared selection context.
func New(backend Backend, sess *session.Context, timeout time.Duration, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		Loader:  resource.NewLoader[api.Instance](session.Instances, TableSpec, backend.ListInstances, sess, timeout, logger),
		backend: backend,
		session: sess,
		timeout: timeout,
		logger:  logger,
	}
}

// Load fetches instances for credentialID.
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

// Clear empties the table and closes the detail modal.
func (s *State) Clear() {
	s.Loader.Clear()
	s.SelectedIndex = 0
	s.Viewport.Offset = 0
	s.CloseDetails()
}

// Move shifts the cursor.
func (s *State) Move(delta int) {
	s.SelectedIndex = shared.MoveCursor(s.SelectedIndex, delta, len(s.Loader.Items))
	shared.EnsureVisible(s.SelectedIndex, len(s.Loader.Items), &s.Viewport)
}

// Selected returns the instance under the cursor.
func (s *State) Selected() (api.Instance, bool) {
	if s.Loader.Phase != resource.Ready || s.SelectedIndex >= len(s.Loader.Items) {
		return api.Instance{}, false
	}
	return s.Loader.Items[s.SelectedIndex], true
}

// ShowDetails fetches one instance for the detail modal.
func (s *State) ShowDetails(credentialID, instanceID string) tea.Cmd {
	backend := s.backend
	timeout := s.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		inst, err := backend.GetInstance(ctx, credentialID, instanceID)
		return DetailsMsg{CredentialID: credentialID, Instance: inst, Err: err}
	}
}

// HandleDetails opens the modal. Failures only notify; the table is left
// alone. Lookups for a credential that is no longer active are dropped.
func (s *State) HandleDetails(msg DetailsMsg) tea.Cmd {
	if msg.CredentialID != s.session.Active() {
		return nil
	}
	if msg.Err != nil {
		s.logger.Error("failed to load instance details", "credential_id", msg.CredentialID, "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to load instance details: %v", msg.Err))
	}
	inst := msg.Instance
	s.Details = &inst
	s.ShowingDetails = true
	return nil
}

// CloseDetails hides the modal.
func (s *State) CloseDetails() {
	s.Details = nil
	s.ShowingDetails = false
}

// ConsoleURL links to the instance in the AWS console.
func ConsoleURL(region, instanceID string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/ec2/home?region=%s#InstanceDetails:instanceId=%s",
		region, url.QueryEscape(region), url.QueryEscape(instanceID))
}
