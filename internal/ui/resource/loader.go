// Package resource implements the load -> placeholder -> rows-or-error
// pipeline shared by the instance and elastic IP tables.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noelruault/lazyeip/internal/session"
)

// Phase is the lifecycle of a table's contents.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

// RowKind tells the view how to style a row.
type RowKind int

const (
	DataRow RowKind = iota
	LoadingRow
	EmptyRow
	ErrorRow
)

// Row is one rendered table row. Placeholder rows carry a single cell and
// Span equal to the column count.
type Row struct {
	Kind    RowKind
	Cells   []string
	Span    int
	Actions []string
	// State is the instance state behind the badge column, if any.
	State string
}

// Fetch loads the collection for one credential.
type Fetch[T any] func(ctx context.Context, credentialID string) ([]T, error)

// LoadedMsg carries a finished load back to the event loop.
type LoadedMsg[T any] struct {
	Ticket session.Ticket
	Items  []T
	Err    error
}

// Spec describes the presentation differences between tables.
type Spec struct {
	Columns []string
	// Widths are per-column character widths; zero means the default.
	Widths      []int
	LoadingText string
	EmptyText   string
	ErrorPrefix string
}

// Loader owns one table's collection. Items is replaced wholesale by Apply
// and never patched.
type Loader[T any] struct {
	Table   session.Table
	Spec    Spec
	Timeout time.Duration

	Phase Phase
	Items []T
	Err   error

	fetch   Fetch[T]
	session *session.Context
	logger  *slog.Logger
}

// NewLoader wires a loader for table.
func NewLoader[T any](table session.Table, spec Spec, fetch Fetch[T], sess *session.Context, timeout time.Duration, logger *slog.Logger) *Loader[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader[T]{
		Table:   table,
		Spec:    spec,
		Timeout: timeout,
		fetch:   fetch,
		session: sess,
		logger:  logger,
	}
}

// Load switches the table to its loading placeholder and returns the
// command performing the request.
func (l *Loader[T]) Load(credentialID string) tea.Cmd {
	ticket := l.session.Begin(l.Table, credentialID)
	l.Phase = Loading
	l.Err = nil

	fetch := l.fetch
	timeout := l.Timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		items, err := fetch(ctx, credentialID)
		return LoadedMsg[T]{Ticket: ticket, Items: items, Err: err}
	}
}

// Apply consumes a load result. Results for other tables are ignored and
// stale ones are dropped. It reports whether msg was consumed.
func (l *Loader[T]) Apply(msg LoadedMsg[T]) bool {
	if msg.Ticket.Table != l.Table {
		return false
	}
	if !l.session.Accept(msg.Ticket) {
		l.logger.Debug("discarding stale load",
			"table", string(l.Table), "credential_id", msg.Ticket.CredentialID, "seq", msg.Ticket.Seq)
		return true
	}
	if msg.Err != nil {
		l.logger.Error("load failed", "table", string(l.Table), "credential_id", msg.Ticket.CredentialID, "error", msg.Err)
		l.Phase = Failed
		l.Err = msg.Err
		l.Items = nil
		return true
	}
	items := msg.Items
	if items == nil {
		items = []T{}
	}
	l.Phase = Ready
	l.Err = nil
	l.Items = items
	return true
}

// Clear empties the table without a request and drops outstanding loads.
func (l *Loader[T]) Clear() {
	l.session.Invalidate(l.Table)
	l.Phase = Idle
	l.Items = nil
	l.Err = nil
}

// Rows renders the table body using row for each item.
func (l *Loader[T]) Rows(row func(T) Row) []Row {
	span := len(l.Spec.Columns)
	switch l.Phase {
	case Loading:
		return []Row{{Kind: LoadingRow, Cells: []string{l.Spec.LoadingText}, Span: span}}
	case Failed:
		text := fmt.Sprintf("%s: %v", l.Spec.ErrorPrefix, l.Err)
		return []Row{{Kind: ErrorRow, Cells: []string{text}, Span: span}}
	case Ready:
		if len(l.Items) == 0 {
			return []Row{{Kind: EmptyRow, Cells: []string{l.Spec.EmptyText}, Span: span}}
		}
		rows := make([]Row, 0, len(l.Items))
		for _, item := range l.Items {
			r := row(item)
			r.Kind = DataRow
			r.Span = 1
			rows = append(rows, r)
		}
		return rows
	}
	return nil
}
