package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/ui/shared"
)

// Backend is the part of the API client the credential views need.
type Backend interface {
	ListCredentials(ctx context.Context) ([]api.Credential, error)
	CreateCredential(ctx context.Context, in api.CredentialInput) (api.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
}

// ListedMsg carries the result of a credential listing.
type ListedMsg struct {
	Credentials []api.Credential
	Err         error
}

// CreatedMsg carries the result of a create request.
type CreatedMsg struct {
	Credential api.Credential
	Err        error
}

// DeletedMsg carries the result of a delete request.
type DeletedMsg struct {
	ID  string
	Err error
}

// Form field indices
const (
	FieldName = iota
	FieldAccessKey
	FieldSecretKey
	FieldRegion
	fieldCount
)

// Form is the "add credential" dialog.
type Form struct {
	Open   bool
	Inputs []textinput.Model
	Focus  int
}

// Controller owns the credential table, the creation form and both
// credential selectors.
type Controller struct {
	Credentials []api.Credential
	Loaded      bool
	Selected    int
	Viewport    shared.Viewport

	// One selector per resource section. Both are rebuilt from the same
	// listing and never copied from each other.
	InstanceSelector  Selector
	ElasticIPSelector Selector

	Form Form

	backend       Backend
	defaultRegion string
	timeout       time.Duration
	logger        *slog.Logger
}

// New creates the controller. defaultRegion pre-fills the form.
func New(backend Backend, defaultRegion string, timeout time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		backend:           backend,
		defaultRegion:     defaultRegion,
		timeout:           timeout,
		logger:            logger,
		InstanceSelector:  NewSelector(nil, ""),
		ElasticIPSelector: NewSelector(nil, ""),
	}
	c.Form = newForm(defaultRegion)
	return c
}

func newForm(defaultRegion string) Form {
	inputs := make([]textinput.Model, fieldCount)

	name := textinput.New()
	name.Placeholder = "production"
	name.CharLimit = 64
	name.Width = 40
	inputs[FieldName] = name

	access := textinput.New()
	access.Placeholder = "AKIA..."
	access.CharLimit = 128
	access.Width = 40
	inputs[FieldAccessKey] = access

	secret := textinput.New()
	secret.Placeholder = "secret access key"
	secret.CharLimit = 128
	secret.Width = 40
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'
	inputs[FieldSecretKey] = secret

	region := textinput.New()
	region.Placeholder = defaultRegion
	region.CharLimit = 32
	region.Width = 20
	region.SetValue(defaultRegion)
	inputs[FieldRegion] = region

	return Form{Inputs: inputs}
}

func (c *Controller) context() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(context.Background(), c.timeout)
	}
	return context.WithCancel(context.Background())
}

// List fetches all credentials.
func (c *Controller) List() tea.Cmd {
	backend := c.backend
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		creds, err := backend.ListCredentials(ctx)
		return ListedMsg{Credentials: creds, Err: err}
	}
}

// HandleListed replaces the table and re-derives both selectors, keeping
// each selector's current value when it still exists.
func (c *Controller) HandleListed(msg ListedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to load credentials", "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to load credentials: %v", msg.Err))
	}
	creds := msg.Credentials
	if creds == nil {
		creds = []api.Credential{}
	}
	c.Credentials = creds
	c.Loaded = true
	c.Selected = shared.MoveCursor(c.Selected, 0, len(creds))
	c.InstanceSelector = NewSelector(creds, c.InstanceSelector.Value())
	c.ElasticIPSelector = NewSelector(creds, c.ElasticIPSelector.Value())
	return nil
}

// Contains reports whether id is in the last listing.
func (c *Controller) Contains(id string) bool {
	for _, cred := range c.Credentials {
		if cred.ID == id {
			return true
		}
	}
	return false
}

// RegionOf returns the region of a listed credential.
func (c *Controller) RegionOf(id string) string {
	for _, cred := range c.Credentials {
		if cred.ID == id {
			return cred.Region
		}
	}
	return ""
}

// Move shifts the table cursor.
func (c *Controller) Move(delta int) {
	c.Selected = shared.MoveCursor(c.Selected, delta, len(c.Credentials))
	shared.EnsureVisible(c.Selected, len(c.Credentials), &c.Viewport)
}

// SelectedCredential returns the credential under the table cursor.
func (c *Controller) SelectedCredential() (api.Credential, bool) {
	if c.Selected < 0 || c.Selected >= len(c.Credentials) {
		return api.Credential{}, false
	}
	return c.Credentials[c.Selected], true
}

// SyncSelectors points both selectors at id.
func (c *Controller) SyncSelectors(id string) {
	c.InstanceSelector.Select(id)
	c.ElasticIPSelector.Select(id)
}

// OpenForm shows the creation dialog with the first field focused.
func (c *Controller) OpenForm() tea.Cmd {
	c.Form.Open = true
	return c.focusField(FieldName)
}

// CloseForm hides the dialog without touching its contents.
func (c *Controller) CloseForm() {
	c.Form.Open = false
	for i := range c.Form.Inputs {
		c.Form.Inputs[i].Blur()
	}
}

// NextField moves focus through the form fields, wrapping around.
func (c *Controller) NextField(delta int) tea.Cmd {
	next := (c.Form.Focus + delta + fieldCount) % fieldCount
	return c.focusField(next)
}

func (c *Controller) focusField(index int) tea.Cmd {
	for i := range c.Form.Inputs {
		c.Form.Inputs[i].Blur()
	}
	c.Form.Focus = index
	return c.Form.Inputs[index].Focus()
}

// UpdateForm forwards a message to the focused input.
func (c *Controller) UpdateForm(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.Form.Inputs[c.Form.Focus], cmd = c.Form.Inputs[c.Form.Focus].Update(msg)
	return cmd
}

func (c *Controller) resetForm() {
	for i := range c.Form.Inputs {
		c.Form.Inputs[i].Reset()
	}
	c.Form.Inputs[FieldRegion].SetValue(c.defaultRegion)
}

// Input returns the form contents.
func (c *Controller) Input() api.CredentialInput {
	return api.CredentialInput{
		Name:      strings.TrimSpace(c.Form.Inputs[FieldName].Value()),
		AccessKey: strings.TrimSpace(c.Form.Inputs[FieldAccessKey].Value()),
		SecretKey: strings.TrimSpace(c.Form.Inputs[FieldSecretKey].Value()),
		Region:    strings.TrimSpace(c.Form.Inputs[FieldRegion].Value()),
	}
}

// Create submits the form. Blank fields fail locally without a request.
func (c *Controller) Create() tea.Cmd {
	in := c.Input()
	if err := in.Validate(); err != nil {
		var validationErr *api.ValidationError
		if errors.As(err, &validationErr) {
			return notify.Danger(fmt.Sprintf("Please fill in all required fields (%s is empty)", validationErr.Field))
		}
		return notify.Danger(err.Error())
	}

	backend := c.backend
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		cred, err := backend.CreateCredential(ctx, in)
		return CreatedMsg{Credential: cred, Err: err}
	}
}

// HandleCreated closes and resets the form on success, then re-lists.
// Failures leave the form open for another attempt.
func (c *Controller) HandleCreated(msg CreatedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to add credential", "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to add credential: %v", msg.Err))
	}
	c.logger.Info("credential added", "credential_id", msg.Credential.ID)
	c.CloseForm()
	c.resetForm()
	return tea.Batch(c.List(), notify.Success("Credential added"))
}

// RequestDelete returns the confirmation guarding Delete.
func (c *Controller) RequestDelete(cred api.Credential) shared.Confirmation {
	return shared.Confirmation{
		Prompt: fmt.Sprintf("Delete credential %q?", cred.Name),
		Run:    func() tea.Cmd { return c.Delete(cred.ID) },
	}
}

// Delete removes a credential. Only call it after confirmation.
func (c *Controller) Delete(id string) tea.Cmd {
	backend := c.backend
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		return DeletedMsg{ID: id, Err: backend.DeleteCredential(ctx, id)}
	}
}

// HandleDeleted re-lists on success. On failure the table keeps its last
// known contents.
func (c *Controller) HandleDeleted(msg DeletedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to delete credential", "credential_id", msg.ID, "error", msg.Err)
		return notify.Danger(fmt.Sprintf("Failed to delete credential: %v", msg.Err))
	}
	c.logger.Info("credential deleted", "credential_id", msg.ID)
	return tea.Batch(c.List(), notify.Success("Credential deleted"))
}
