package eip

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/notify"
	"github.com/noelruault/lazyeip/internal/session"
	"github.com/noelruault/lazyeip/internal/ui/resource"
)

// fakeBackend keeps a per-credential address list so mutations show up on
// the next listing.
type fakeBackend struct {
	addrs   map[string][]api.ElasticIP
	listErr error
	mutErr  error
	next    int
	calls   []string
}

func (f *fakeBackend) ListElasticIPs(_ context.Context, credentialID string) ([]api.ElasticIP, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.ElasticIP(nil), f.addrs[credentialID]...), nil
}

func (f *fakeBackend) AllocateElasticIP(_ context.Context, credentialID string) error {
	f.calls = append(f.calls, "allocate")
	if f.mutErr != nil {
		return f.mutErr
	}
	f.next++
	f.addrs[credentialID] = append(f.addrs[credentialID], api.ElasticIP{
		PublicIP:     "203.0.113." + string(rune('0'+f.next)),
		AllocationID: "eipalloc-new",
	})
	return nil
}

func (f *fakeBackend) DisassociateElasticIP(_ context.Context, _ string, associationID string) error {
	f.calls = append(f.calls, "disassociate:"+associationID)
	return f.mutErr
}

func (f *fakeBackend) ReleaseElasticIP(_ context.Context, _ string, allocationID string) error {
	f.calls = append(f.calls, "release:"+allocationID)
	return f.mutErr
}

func messages(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, messages(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

var (
	free  = api.ElasticIP{PublicIP: "198.51.100.1", AllocationID: "eipalloc-1"}
	bound = api.ElasticIP{PublicIP: "198.51.100.2", AllocationID: "eipalloc-2", InstanceID: "i-1", AssociationID: "eipassoc-2"}
)

func TestRowActions(t *testing.T) {
	tests := []struct {
		name    string
		eip     api.ElasticIP
		status  string
		actions string
		inst    string
	}{
		{"free", free, "unassociated", "release", "none"},
		{"bound", bound, "associated", "disassociate,release", "i-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Row(tt.eip)
			if row.Cells[3] != tt.status {
				t.Errorf("status = %q, want %q", row.Cells[3], tt.status)
			}
			if got := strings.Join(row.Actions, ","); got != tt.actions {
				t.Errorf("actions = %q, want %q", got, tt.actions)
			}
			if row.Cells[2] != tt.inst {
				t.Errorf("instance = %q, want %q", row.Cells[2], tt.inst)
			}
		})
	}
}

func TestAllocateThenListIncludesNewAddress(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	backend := &fakeBackend{addrs: map[string][]api.ElasticIP{}}
	st := New(backend, sess, time.Second, nil)

	var reloaded bool
	for _, msg := range messages(st.HandleMutation(st.Allocate("x")().(MutationMsg))) {
		if loaded, ok := msg.(LoadedMsg); ok {
			reloaded = st.HandleLoaded(loaded)
		}
	}
	if !reloaded {
		t.Fatal("Expected a reload after allocate")
	}
	if len(st.Loader.Items) != 1 || st.Loader.Items[0].Associated() {
		t.Errorf("Expected one unassociated address, got %+v", st.Loader.Items)
	}
}

func TestMutationSkipsReloadAfterCredentialSwitch(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	st := New(&fakeBackend{addrs: map[string][]api.ElasticIP{}}, sess, time.Second, nil)

	cmd := st.Allocate("x")
	sess.Set("y")
	for _, msg := range messages(st.HandleMutation(cmd().(MutationMsg))) {
		if _, ok := msg.(LoadedMsg); ok {
			t.Error("Expected no reload for an inactive credential")
		}
	}
}

func TestMutationFailureLeavesRows(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	backend := &fakeBackend{addrs: map[string][]api.ElasticIP{"x": {bound}}}
	st := New(backend, sess, time.Second, nil)
	st.HandleLoaded(st.Load("x")().(LoadedMsg))

	backend.mutErr = &api.StatusError{Op: "disassociate elastic IP", Code: 500}
	confirm, ok := st.RequestDisassociate("x", bound)
	if !ok {
		t.Fatal("Expected associated address to be disassociable")
	}
	msgs := messages(st.HandleMutation(confirm.Run()().(MutationMsg)))
	if len(msgs) != 1 {
		t.Fatalf("Expected only a notification, got %v", msgs)
	}
	if note, ok := msgs[0].(notify.Msg); !ok || note.Severity != notify.SeverityDanger {
		t.Errorf("Expected danger notification, got %#v", msgs[0])
	}
	if !st.Loader.Items[0].Associated() {
		t.Error("Expected row to keep its association")
	}
}

func TestConfirmationsGateRequests(t *testing.T) {
	backend := &fakeBackend{addrs: map[string][]api.ElasticIP{}}
	st := New(backend, session.New(true), time.Second, nil)

	if _, ok := st.RequestDisassociate("x", free); ok {
		t.Error("Expected free address not to offer disassociate")
	}
	release := st.RequestRelease("x", free)
	if !strings.Contains(release.Warning, "cannot be undone") {
		t.Errorf("Expected irreversibility warning, got %q", release.Warning)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("Expected no requests before confirmation, got %v", backend.calls)
	}
	release.Run()()
	if len(backend.calls) != 1 || backend.calls[0] != "release:eipalloc-1" {
		t.Errorf("Unexpected calls %v", backend.calls)
	}
}

func TestListAvailableFiltersAndSkipsTable(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	st := New(&fakeBackend{addrs: map[string][]api.ElasticIP{"x": {free, bound}}}, sess, time.Second, nil)

	msg := st.ListAvailable("x")().(AvailableMsg)
	if msg.Err != nil || len(msg.Candidates) != 1 || msg.Candidates[0].AllocationID != "eipalloc-1" {
		t.Errorf("Unexpected candidates %+v", msg)
	}
	if st.Loader.Phase != resource.Idle {
		t.Error("Expected main table untouched")
	}
}

func TestErrorRowContainsStatus(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	backend := &fakeBackend{listErr: &api.StatusError{Op: "list elastic IPs", Code: 500}}
	st := New(backend, sess, time.Second, nil)
	st.HandleLoaded(st.Load("x")().(LoadedMsg))

	rows := st.Rows()
	if len(rows) != 1 || rows[0].Kind != resource.ErrorRow || rows[0].Span != 5 {
		t.Fatalf("Expected a single spanning error row, got %+v", rows)
	}
	if !strings.Contains(rows[0].Cells[0], "500") {
		t.Errorf("Expected status code in %q", rows[0].Cells[0])
	}
}
