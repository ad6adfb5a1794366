package resource

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/session"
	"github.com/noelruault/lazyeip/internal/ui/shared"
)

var testSpec = Spec{
	Columns:     []string{"A", "B", "C"},
	LoadingText: "Loading things...",
	EmptyText:   "No things found",
	ErrorPrefix: "Failed to load things",
}

func byCredential(data map[string][]string) Fetch[string] {
	return func(_ context.Context, credentialID string) ([]string, error) {
		return data[credentialID], nil
	}
}

func textRow(s string) Row { return Row{Cells: []string{s}} }

func TestLoadShowsPlaceholderThenRows(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	loader := NewLoader(session.Instances, testSpec, byCredential(map[string][]string{"x": {"one", "two"}}), sess, 0, nil)

	cmd := loader.Load("x")
	rows := loader.Rows(textRow)
	if len(rows) != 1 || rows[0].Kind != LoadingRow || rows[0].Span != 3 {
		t.Fatalf("Expected one spanning loading row, got %+v", rows)
	}

	msg := cmd().(LoadedMsg[string])
	if !loader.Apply(msg) {
		t.Fatal("Expected message to be consumed")
	}
	rows = loader.Rows(textRow)
	if len(rows) != 2 || rows[0].Cells[0] != "one" || rows[0].Kind != DataRow {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestNilResultRendersEmptyRow(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	loader := NewLoader(session.Instances, testSpec, byCredential(nil), sess, 0, nil)

	loader.Apply(loader.Load("x")().(LoadedMsg[string]))
	if loader.Phase != Ready || loader.Items == nil {
		t.Fatalf("Expected ready with empty collection, got phase %v items %v", loader.Phase, loader.Items)
	}
	rows := loader.Rows(textRow)
	if len(rows) != 1 || rows[0].Kind != EmptyRow || rows[0].Cells[0] != "No things found" || rows[0].Span != 3 {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestFailureRendersSingleErrorRow(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	fail := func(context.Context, string) ([]string, error) {
		return nil, &api.StatusError{Op: "list elastic IPs", Code: 500}
	}
	loader := NewLoader(session.ElasticIPs, testSpec, fail, sess, 0, nil)

	loader.Apply(loader.Load("x")().(LoadedMsg[string]))
	rows := loader.Rows(textRow)
	if len(rows) != 1 || rows[0].Kind != ErrorRow {
		t.Fatalf("Expected one error row, got %+v", rows)
	}
	if !strings.Contains(rows[0].Cells[0], "500") {
		t.Errorf("Expected status code in error row, got %q", rows[0].Cells[0])
	}
	var statusErr *api.StatusError
	if !errors.As(loader.Err, &statusErr) {
		t.Errorf("Expected StatusError to be kept, got %T", loader.Err)
	}
}

func TestOtherTableIgnored(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	loader := NewLoader(session.Instances, testSpec, byCredential(nil), sess, 0, nil)
	other := LoadedMsg[string]{Ticket: session.Ticket{Table: session.ElasticIPs}}
	if loader.Apply(other) {
		t.Error("Expected result for another table to be ignored")
	}
}

func TestCredentialSwitchGuarded(t *testing.T) {
	sess := session.New(true)
	data := map[string][]string{"x": {"from-x"}, "y": {"from-y"}}
	loader := NewLoader(session.Instances, testSpec, byCredential(data), sess, 0, nil)

	sess.Set("x")
	loadX := loader.Load("x")
	sess.Set("y")
	loadY := loader.Load("y")

	// y resolves first, x arrives late.
	loader.Apply(loadY().(LoadedMsg[string]))
	loader.Apply(loadX().(LoadedMsg[string]))

	if len(loader.Items) != 1 || loader.Items[0] != "from-y" {
		t.Errorf("Expected last-initiated load to stick, got %v", loader.Items)
	}
}

func TestCredentialSwitchUnguardedLastArrivalWins(t *testing.T) {
	sess := session.New(false)
	data := map[string][]string{"x": {"from-x"}, "y": {"from-y"}}
	loader := NewLoader(session.Instances, testSpec, byCredential(data), sess, 0, nil)

	sess.Set("x")
	loadX := loader.Load("x")
	sess.Set("y")
	loadY := loader.Load("y")

	loader.Apply(loadY().(LoadedMsg[string]))
	loader.Apply(loadX().(LoadedMsg[string]))

	if len(loader.Items) != 1 || loader.Items[0] != "from-x" {
		t.Errorf("Expected last-arriving response to win, got %v", loader.Items)
	}
}

func TestClearDropsInFlightLoad(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	loader := NewLoader(session.Instances, testSpec, byCredential(map[string][]string{"x": {"a"}}), sess, 0, nil)

	cmd := loader.Load("x")
	loader.Clear()
	loader.Apply(cmd().(LoadedMsg[string]))

	if loader.Phase != Idle || loader.Rows(textRow) != nil {
		t.Errorf("Expected cleared table to stay empty, got phase %v", loader.Phase)
	}
}

func TestTimeoutReachesFetch(t *testing.T) {
	sess := session.New(true)
	sess.Set("x")
	var hadDeadline bool
	fetch := func(ctx context.Context, _ string) ([]string, error) {
		_, hadDeadline = ctx.Deadline()
		return nil, nil
	}
	loader := NewLoader(session.Instances, testSpec, fetch, sess, time.Second, nil)
	loader.Load("x")()
	if !hadDeadline {
		t.Error("Expected request context to carry the timeout")
	}
}

func TestTablePersistsViewportOffset(t *testing.T) {
	rows := make([]Row, 0, 6)
	for _, s := range []string{"r0", "r1", "r2", "r3", "r4", "r5"} {
		rows = append(rows, Row{Kind: DataRow, Cells: []string{s}, Span: 1})
	}
	vp := shared.Viewport{Height: 2}

	Table("things", testSpec, rows, 4, &vp, "")
	if vp.Offset != 3 {
		t.Fatalf("Expected offset 3, got %d", vp.Offset)
	}
	out := Table("things", testSpec, rows, 3, &vp, "")
	if vp.Offset != 3 || !strings.Contains(out, "r4") || strings.Contains(out, "r2") {
		t.Errorf("Expected window r3..r4 to stay, offset %d:\n%s", vp.Offset, out)
	}
}
