// Package associate drives the dialog that binds an unassociated elastic
// IP to an instance.
package associate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/ui/eip"
	"github.com/noelruault/lazyeip/internal/ui/shared"
)

// NoCandidatesLabel is the disabled option shown when nothing is free.
const NoCandidatesLabel = "No available elastic IPs"

// Backend performs the association.
type Backend interface {
	AssociateElasticIP(ctx context.Context, credentialID, instanceID, allocationID string) error
}

// Phase is the dialog lifecycle.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
)

// ResultMsg is the outcome of Confirm.
type ResultMsg struct {
	CredentialID string
	InstanceID   string
	AllocationID string
	Err          error

	request uint64
}

// Option is one candidate line. Disabled options cannot be confirmed.
type Option struct {
	AllocationID string
	Label        string
	Disabled     bool
}

// Workflow is the association dialog state.
type Workflow struct {
	Phase        Phase
	CredentialID string
	InstanceID   string
	Candidates   []api.ElasticIP
	Cursor       int

	// pending is the request id of the in-flight Confirm, zero when idle.
	pending  uint64
	requests uint64

	backend   Backend
	addresses *eip.State
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a closed workflow. Candidates come from addresses.
func New(backend Backend, addresses *eip.State, timeout time.Duration, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{backend: backend, addresses: addresses, timeout: timeout, logger: logger}
}

// Active reports whether the dialog is opening or open.
func (w *Workflow) Active() bool {
	return w.Phase != Closed
}

// Submitting reports whether a Confirm is waiting for its result.
func (w *Workflow) Submitting() bool {
	return w.pending != 0
}

// Open starts the dialog for instanceID and fetches the candidates.
func (w *Workflow) Open(credentialID, instanceID string) tea.Cmd {
	if credentialID == "" {
		return notify.Warning("Please select a credential first")
	}
	w.Phase = Opening
	w.CredentialID = credentialID
	w.InstanceID = instanceID
	w.Candidates = nil
	w.Cursor = 0
	w.pending = 0
	return w.addresses.ListAvailable(credentialID)
}

// HandleAvailable fills the candidate list. A failed fetch closes the
// dialog. Results for a dialog that is no longer opening are ignored.
func (w *Workflow) HandleAvailable(msg eip.AvailableMsg) tea.Cmd {
	if w.Phase != Opening || msg.CredentialID != w.CredentialID {
		return nil
	}
	if msg.Err != nil {
		w.logger.Error("failed to load available elastic IPs", "credential_id", msg.CredentialID, "error", msg.Err)
		w.Cancel()
		return notify.Danger(fmt.Sprintf("Failed to load available elastic IPs: %v", msg.Err))
	}
	w.Candidates = msg.Candidates
	w.Cursor = 0
	w.Phase = Open
	return nil
}

// Options lists the candidate selector entries.
func (w *Workflow) Options() []Option {
	if len(w.Candidates) == 0 {
		return []Option{{Label: NoCandidatesLabel, Disabled: true}}
	}
	opts := make([]Option, 0, len(w.Candidates))
	for _, c := range w.Candidates {
		opts = append(opts, Option{
			AllocationID: c.AllocationID,
			Label:        fmt.Sprintf("%s (%s)", c.PublicIP, c.AllocationID),
		})
	}
	return opts
}

// Move shifts the candidate cursor.
func (w *Workflow) Move(delta int) {
	w.Cursor = shared.MoveCursor(w.Cursor, delta, len(w.Options()))
}

// SelectedAllocation returns the allocation id under the cursor, or "" for
// the disabled placeholder.
func (w *Workflow) SelectedAllocation() string {
	opts := w.Options()
	if w.Cursor < 0 || w.Cursor >= len(opts) || opts[w.Cursor].Disabled {
		return ""
	}
	return opts[w.Cursor].AllocationID
}

// Confirm associates the selected address with the instance. Missing input
// fails locally without a request.
func (w *Workflow) Confirm(credentialID string) tea.Cmd {
	if w.Phase != Open || w.pending != 0 {
		return nil
	}
	allocationID := w.SelectedAllocation()
	if err := validate(w.InstanceID, allocationID); err != nil {
		var validationErr *api.ValidationError
		if errors.As(err, &validationErr) {
			return notify.Danger(fmt.Sprintf("Please select an %s", validationErr.Field))
		}
		return notify.Danger(err.Error())
	}

	w.requests++
	w.pending = w.requests
	request := w.pending

	backend := w.backend
	instanceID := w.InstanceID
	timeout := w.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := backend.AssociateElasticIP(ctx, credentialID, instanceID, allocationID)
		return ResultMsg{CredentialID: credentialID, InstanceID: instanceID, AllocationID: allocationID, Err: err, request: request}
	}
}

func validate(instanceID, allocationID string) error {
	if instanceID == "" {
		return &api.ValidationError{Field: "instance", Message: "an instance is required"}
	}
	if allocationID == "" {
		return &api.ValidationError{Field: "elastic IP", Message: "an elastic IP is required"}
	}
	return nil
}

// HandleResult closes the dialog on success and reports whether the
// instance table should be reloaded. Failures keep the dialog open with
// its candidates for a retry. A result for a dialog that was cancelled or
// reopened since its Confirm is still reported but leaves the current
// dialog alone.
func (w *Workflow) HandleResult(msg ResultMsg) (tea.Cmd, bool) {
	current := msg.request != 0 && msg.request == w.pending
	if current {
		w.pending = 0
	}
	if msg.Err != nil {
		w.logger.Error("failed to associate elastic IP",
			"instance_id", msg.InstanceID, "allocation_id", msg.AllocationID, "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to associate elastic IP: %v", msg.Err)), false
	}
	w.logger.Info("elastic IP associated", "instance_id", msg.InstanceID, "allocation_id", msg.AllocationID)
	if current {
		w.Cancel()
	}
	return notify.Success("Elastic IP associated successfully"), true
}

// Cancel closes the dialog with no side effects.
func (w *Workflow) Cancel() {
	w.Phase = Closed
	w.CredentialID = ""
	w.InstanceID = ""
	w.Candidates = nil
	w.Cursor = 0
	w.pending = 0
}
