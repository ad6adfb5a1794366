package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
)

type fakeBackend struct {
	creds   []api.Credential
	created []api.CredentialInput
	deleted []string
	err     error
}

func (f *fakeBackend) ListCredentials(context.Context) ([]api.Credential, error) {
	return f.creds, f.err
}

func (f *fakeBackend) CreateCredential(_ context.Context, in api.CredentialInput) (api.Credential, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return api.Credential{}, f.err
	}
	cred := api.Credential{ID: "new", Name: in.Name, AccessKey: in.AccessKey, Region: in.Region}
	f.creds = append(f.creds, cred)
	return cred, nil
}

func (f *fakeBackend) DeleteCredential(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func fill(c *Controller, name, access, secret, region string) {
	c.Form.Inputs[FieldName].SetValue(name)
	c.Form.Inputs[FieldAccessKey].SetValue(access)
	c.Form.Inputs[FieldSecretKey].SetValue(secret)
	c.Form.Inputs[FieldRegion].SetValue(region)
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestSelectorsKeepSelectionAcrossListing(t *testing.T) {
	backend := &fakeBackend{creds: []api.Credential{
		{ID: "a", Name: "alpha", Region: "us-east-1"},
		{ID: "b", Name: "beta", Region: "eu-west-1"},
	}}
	c := New(backend, "us-east-1", time.Second, nil)
	c.HandleListed(c.List()().(ListedMsg))

	if len(c.InstanceSelector.Options) != 3 || c.InstanceSelector.Options[0].Label != SentinelLabel {
		t.Fatalf("Expected sentinel plus two options, got %+v", c.InstanceSelector.Options)
	}

	c.InstanceSelector.Select("b")
	backend.creds = append(backend.creds, api.Credential{ID: "c", Name: "gamma", Region: "us-west-2"})
	c.HandleListed(c.List()().(ListedMsg))

	if c.InstanceSelector.Value() != "b" {
		t.Errorf("Expected instance selector to keep b, got %q", c.InstanceSelector.Value())
	}
	if c.ElasticIPSelector.Value() != "" {
		t.Errorf("Expected elastic IP selector to stay on the sentinel, got %q", c.ElasticIPSelector.Value())
	}
	if len(c.ElasticIPSelector.Options) != 4 {
		t.Errorf("Expected both selectors rebuilt from the listing, got %d options", len(c.ElasticIPSelector.Options))
	}
}

func TestSelectorFallsBackWhenCredentialRemoved(t *testing.T) {
	s := NewSelector([]api.Credential{{ID: "a", Name: "alpha"}}, "gone")
	if s.Value() != "" || s.Label() != SentinelLabel {
		t.Errorf("Expected sentinel, got %q", s.Value())
	}
}

func TestCreateWithBlankFieldSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend, "us-east-1", time.Second, nil)
	fill(c, "prod", "AKIA", "", "us-east-1")

	msgs := collect(c.Create())
	if len(backend.created) != 0 {
		t.Fatalf("Expected no request, got %d", len(backend.created))
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected a single notification, got %v", msgs)
	}
	note, ok := msgs[0].(notify.Msg)
	if !ok || note.Severity != notify.SeverityDanger {
		t.Errorf("Expected danger notification, got %#v", msgs[0])
	}
}

func TestCreateSuccessResetsFormAndRelists(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend, "us-east-1", time.Second, nil)
	c.OpenForm()
	fill(c, "prod", "AKIA", "s3cret", "eu-west-1")

	created := c.Create()().(CreatedMsg)
	msgs := collect(c.HandleCreated(created))

	if c.Form.Open {
		t.Error("Expected form to close")
	}
	if c.Form.Inputs[FieldSecretKey].Value() != "" || c.Form.Inputs[FieldName].Value() != "" {
		t.Error("Expected form inputs to be cleared")
	}
	if c.Form.Inputs[FieldRegion].Value() != "us-east-1" {
		t.Errorf("Expected region reset to default, got %q", c.Form.Inputs[FieldRegion].Value())
	}
	var relisted, notified bool
	for _, msg := range msgs {
		switch m := msg.(type) {
		case ListedMsg:
			relisted = len(m.Credentials) == 1
		case notify.Msg:
			notified = m.Severity == notify.SeveritySuccess
		}
	}
	if !relisted || !notified {
		t.Errorf("Expected relist and success notification, got %v", msgs)
	}
}

func TestCreateFailureKeepsFormOpen(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	c := New(backend, "us-east-1", time.Second, nil)
	c.OpenForm()
	fill(c, "prod", "AKIA", "s3cret", "eu-west-1")

	c.HandleCreated(c.Create()().(CreatedMsg))
	if !c.Form.Open || c.Form.Inputs[FieldName].Value() != "prod" {
		t.Error("Expected form to stay open with its contents")
	}
}

func TestDeleteRunsOnlyThroughConfirmation(t *testing.T) {
	backend := &fakeBackend{creds: []api.Credential{{ID: "a", Name: "alpha"}}}
	c := New(backend, "us-east-1", time.Second, nil)

	confirm := c.RequestDelete(backend.creds[0])
	if len(backend.deleted) != 0 {
		t.Fatal("Expected no request before confirmation")
	}
	msg := confirm.Run()().(DeletedMsg)
	if msg.ID != "a" || len(backend.deleted) != 1 {
		t.Errorf("Expected delete of a, got %+v", backend.deleted)
	}
}

func TestListFailureKeepsTable(t *testing.T) {
	backend := &fakeBackend{creds: []api.Credential{{ID: "a", Name: "alpha"}}}
	c := New(backend, "us-east-1", time.Second, nil)
	c.HandleListed(c.List()().(ListedMsg))

	backend.err = errors.New("down")
	c.HandleListed(c.List()().(ListedMsg))
	if len(c.Credentials) != 1 {
		t.Errorf("Expected previous credentials to remain, got %v", c.Credentials)
	}
}

func TestRowsNeverShowSecret(t *testing.T) {
	c := New(&fakeBackend{}, "us-east-1", time.Second, nil)
	c.HandleListed(ListedMsg{Credentials: []api.Credential{{ID: "a", Name: "alpha", AccessKey: "AKIA", Region: "us-east-1"}}})
	rows := c.Rows()
	if len(rows) != 1 || len(rows[0].Cells) != 4 || rows[0].Cells[3] != "-" {
		t.Errorf("Unexpected rows %+v", rows)
	}
}
