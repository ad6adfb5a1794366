package main

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skratchdot/open-golang/open"

	"github.com/noelruault/lazyeip/internal/config"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/session"
	"github.com/noelruault/lazyeip/internal/ui/associate"
	"github.com/noelruault/lazyeip/internal/ui/credentials"
	uiEC2 "github.com/noelruault/lazyeip/internal/ui/ec2"
	"github.com/noelruault/lazyeip/internal/ui/eip"
	"github.com/noelruault/lazyeip/internal/ui/resource"
	uiShared "github.com/noelruault/lazyeip/internal/ui/shared"
)

type section int

const (
	credentialsSection section = iota
	instancesSection
	elasticIPsSection
	sectionCount
)

func (s section) String() string {
	switch s {
	case credentialsSection:
		return "Credentials"
	case instancesSection:
		return "Instances"
	default:
		return "Elastic IPs"
	}
}

// backend is everything the panel asks of the REST API.
type backend interface {
	credentials.Backend
	uiEC2.Backend
	eip.Backend
	associate.Backend
}

// consoleOpenedMsg reports the result of opening the AWS console.
type consoleOpenedMsg struct {
	instanceID string
	err        error
}

type model struct {
	section  section
	width    int
	height   int
	config   *config.Config
	logger   *slog.Logger
	keys     KeyMap
	session  *session.Context
	notifier *notify.Notifier
	creds    *credentials.Controller
	ec2      *uiEC2.State
	eips     *eip.State
	assoc    *associate.Workflow
	confirm  *uiShared.Confirmation
	spinner  spinner.Model
	showHelp bool
	openURL  func(string) error
}

func initialModel(cfg *config.Config, api backend, logger *slog.Logger) model {
	if logger == nil {
		logger = slog.Default()
	}
	sess := session.New(cfg.GuardStaleLoads)
	eips := eip.New(api, sess, cfg.RequestTimeout, logger)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	return model{
		section:  credentialsSection,
		config:   cfg,
		logger:   logger,
		keys:     DefaultKeyMap,
		session:  sess,
		notifier: notify.New(logger),
		creds:    credentials.New(api, cfg.Region, cfg.RequestTimeout, logger),
		ec2:      uiEC2.New(api, sess, cfg.RequestTimeout, logger),
		eips:     eips,
		assoc:    associate.New(api, eips, cfg.RequestTimeout, logger),
		spinner:  sp,
		openURL:  open.Run,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.creds.List(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.notifier.Update(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case credentials.ListedMsg:
		cmd := m.creds.HandleListed(msg)
		if msg.Err == nil && m.session.HasActive() && !m.creds.Contains(m.session.Active()) {
			// The active credential was deleted.
			m.logger.Info("active credential removed", "credential_id", m.session.Active())
			return m, tea.Batch(cmd, m.onCredentialSelected(""))
		}
		return m, cmd

	case credentials.CreatedMsg:
		return m, m.creds.HandleCreated(msg)

	case credentials.DeletedMsg:
		return m, m.creds.HandleDeleted(msg)

	case uiEC2.LoadedMsg:
		m.ec2.HandleLoaded(msg)
		return m, nil

	case uiEC2.DetailsMsg:
		return m, m.ec2.HandleDetails(msg)

	case eip.LoadedMsg:
		m.eips.HandleLoaded(msg)
		return m, nil

	case eip.MutationMsg:
		return m, m.eips.HandleMutation(msg)

	case eip.AvailableMsg:
		return m, m.assoc.HandleAvailable(msg)

	case associate.ResultMsg:
		cmd, reload := m.assoc.HandleResult(msg)
		if !reload || msg.CredentialID != m.session.Active() {
			return m, cmd
		}
		cmds := []tea.Cmd{cmd, m.ec2.Load(msg.CredentialID)}
		if m.eips.Loader.Phase != resource.Idle {
			cmds = append(cmds, m.eips.Load(msg.CredentialID))
		}
		return m, tea.Batch(cmds...)

	case consoleOpenedMsg:
		if msg.err != nil {
			m.logger.Error("failed to open console", "instance_id", msg.instanceID, "error", msg.err)
			return m, notify.Danger(fmt.Sprintf("Failed to open browser: %v", msg.err))
		}
		return m, notify.Info(fmt.Sprintf("Opened %s in the AWS console", msg.instanceID))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// resize gives each table the rows left after header, selector and
// status bar.
func (m *model) resize() {
	height := m.height - 12
	if height < 5 {
		height = 5
	}
	m.creds.Viewport.Height = height
	m.ec2.Viewport.Height = height
	m.eips.Viewport.Height = height
}

// onCredentialSelected is the only writer of the active credential.
func (m *model) onCredentialSelected(id string) tea.Cmd {
	if !m.session.Set(id) {
		return nil
	}
	m.creds.SyncSelectors(id)
	m.ec2.Clear()
	m.eips.Clear()
	m.assoc.Cancel()
	if id == "" {
		m.logger.Info("credential deselected")
		return nil
	}
	m.logger.Info("credential selected", "credential_id", id)
	return m.loadSection(false)
}

// loadSection loads the visible section's table. Without force an already
// loaded table is left alone.
func (m *model) loadSection(force bool) tea.Cmd {
	id := m.session.Active()
	if id == "" {
		return nil
	}
	switch m.section {
	case instancesSection:
		if force || m.ec2.Loader.Phase == resource.Idle {
			return m.ec2.Load(id)
		}
	case elasticIPsSection:
		if force || m.eips.Loader.Phase == resource.Idle {
			return m.eips.Load(id)
		}
	}
	return nil
}

func (m *model) switchSection(s section) tea.Cmd {
	if s == m.section {
		return nil
	}
	m.section = s
	if s == credentialsSection {
		return nil
	}
	return tea.Batch(m.creds.List(), m.loadSection(false))
}

func (m *model) activeSelector() *credentials.Selector {
	switch m.section {
	case instancesSection:
		return &m.creds.InstanceSelector
	case elasticIPsSection:
		return &m.creds.ElasticIPSelector
	}
	return nil
}

func (m model) requireCredential() (string, tea.Cmd) {
	id := m.session.Active()
	if id == "" {
		return "", notify.Warning("Please select a credential first")
	}
	return id, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	// Modals take every key while open.
	switch {
	case m.confirm != nil:
		return m.handleConfirmKey(msg)
	case m.creds.Form.Open:
		return m.handleFormKey(msg)
	case m.assoc.Active():
		return m.handleAssociateKey(msg)
	case m.ec2.ShowingDetails:
		return m.handleDetailsKey(msg)
	}
	if sel := m.activeSelector(); sel != nil && sel.Open {
		return m.handleSelectorKey(msg, sel)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.showHelp {
			m.showHelp = false
		} else {
			m.notifier.DismissLatest()
		}
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Credentials):
		return m, m.switchSection(credentialsSection)
	case key.Matches(msg, m.keys.Instances):
		return m, m.switchSection(instancesSection)
	case key.Matches(msg, m.keys.ElasticIPs):
		return m, m.switchSection(elasticIPsSection)
	case key.Matches(msg, m.keys.NextSection):
		return m, m.switchSection((m.section + 1) % sectionCount)
	}

	switch m.section {
	case credentialsSection:
		return m.handleCredentialsKey(msg)
	case instancesSection:
		return m.handleInstancesKey(msg)
	default:
		return m.handleElasticIPsKey(msg)
	}
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		run := m.confirm.Run
		m.confirm = nil
		return m, run()
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = nil
	}
	return m, nil
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.creds.CloseForm()
		return m, nil
	case "enter":
		return m, m.creds.Create()
	case "tab", "down":
		return m, m.creds.NextField(1)
	case "shift+tab", "up":
		return m, m.creds.NextField(-1)
	}
	return m, m.creds.UpdateForm(msg)
}

func (m model) handleAssociateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.assoc.Cancel()
	case key.Matches(msg, m.keys.Up):
		m.assoc.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.assoc.Move(1)
	case key.Matches(msg, m.keys.Enter):
		return m, m.assoc.Confirm(m.session.Active())
	}
	return m, nil
}

func (m model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.ec2.CloseDetails()
	case key.Matches(msg, m.keys.OpenConsole):
		return m, m.openConsole(m.ec2.Details.ID)
	}
	return m, nil
}

func (m model) handleSelectorKey(msg tea.KeyMsg, sel *credentials.Selector) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		sel.Move(-1)
	case key.Matches(msg, m.keys.Down):
		sel.Move(1)
	case key.Matches(msg, m.keys.Enter):
		sel.Open = false
		return m, m.onCredentialSelected(sel.Value())
	case key.Matches(msg, m.keys.Escape):
		sel.Open = false
		sel.Select(m.session.Active())
	}
	return m, nil
}

func (m model) handleCredentialsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.creds.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.creds.Move(1)
	case key.Matches(msg, m.keys.Reload):
		return m, m.creds.List()
	case key.Matches(msg, m.keys.Add):
		return m, m.creds.OpenForm()
	case key.Matches(msg, m.keys.Delete):
		if cred, ok := m.creds.SelectedCredential(); ok {
			confirm := m.creds.RequestDelete(cred)
			m.confirm = &confirm
		}
	}
	return m, nil
}

func (m model) handleInstancesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Selector):
		m.creds.InstanceSelector.Open = true
	case key.Matches(msg, m.keys.Up):
		m.ec2.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.ec2.Move(1)
	case key.Matches(msg, m.keys.Reload):
		id, warn := m.requireCredential()
		if warn != nil {
			return m, warn
		}
		return m, m.ec2.Load(id)
	case key.Matches(msg, m.keys.Enter):
		if inst, ok := m.ec2.Selected(); ok {
			return m, m.ec2.ShowDetails(m.session.Active(), inst.ID)
		}
	case key.Matches(msg, m.keys.Add):
		if inst, ok := m.ec2.Selected(); ok {
			return m, m.assoc.Open(m.session.Active(), inst.ID)
		}
	case key.Matches(msg, m.keys.OpenConsole):
		if inst, ok := m.ec2.Selected(); ok {
			return m, m.openConsole(inst.ID)
		}
	}
	return m, nil
}

func (m model) handleElasticIPsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Selector):
		m.creds.ElasticIPSelector.Open = true
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.eips.Move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.eips.Move(1)
		return m, nil
	}

	id, warn := m.requireCredential()
	switch {
	case key.Matches(msg, m.keys.Reload):
		if warn != nil {
			return m, warn
		}
		return m, m.eips.Load(id)
	case key.Matches(msg, m.keys.Allocate):
		if warn != nil {
			return m, warn
		}
		return m, m.eips.Allocate(id)
	case key.Matches(msg, m.keys.Delete):
		addr, ok := m.eips.Selected()
		if !ok {
			return m, nil
		}
		confirm, ok := m.eips.RequestDisassociate(id, addr)
		if !ok {
			return m, notify.Info(fmt.Sprintf("%s is not associated", addr.PublicIP))
		}
		m.confirm = &confirm
	case key.Matches(msg, m.keys.Release):
		if addr, ok := m.eips.Selected(); ok {
			confirm := m.eips.RequestRelease(id, addr)
			m.confirm = &confirm
		}
	}
	return m, nil
}

func (m model) openConsole(instanceID string) tea.Cmd {
	region := m.creds.RegionOf(m.session.Active())
	if region == "" {
		region = m.config.Region
	}
	url := uiEC2.ConsoleURL(region, instanceID)
	opener := m.openURL
	return func() tea.Msg {
		return consoleOpenedMsg{instanceID: instanceID, err: opener(url)}
	}
}
