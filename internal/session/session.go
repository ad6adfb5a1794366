// Package session tracks the active credential and sequences the loads
// that depend on it.
package session

// Table names a view whose contents are loaded per credential.
type Table string

const (
	Instances  Table = "instances"
	ElasticIPs Table = "elastic-ips"
)

// Ticket identifies one issued load.
type Ticket struct {
	Table        Table
	Seq          uint64
	CredentialID string
}

// Context is the single source of the active credential. Only the
// credential selector handler calls Set; everything else reads Active.
//
// When guarded, a load result is accepted only if its ticket is the most
// recent one issued for its table and was issued for the credential that is
// still active. Unguarded contexts accept every result, so the last
// response to arrive wins.
type Context struct {
	active  string
	guarded bool
	seq     uint64
	latest  map[Table]uint64
}

// New returns an empty context.
func New(guarded bool) *Context {
	return &Context{guarded: guarded, latest: make(map[Table]uint64)}
}

// Active returns the active credential id, or "" when none is selected.
func (c *Context) Active() string {
	return c.active
}

// HasActive reports whether a credential is selected.
func (c *Context) HasActive() bool {
	return c.active != ""
}

// Guarded reports whether stale results are discarded.
func (c *Context) Guarded() bool {
	return c.guarded
}

// Set changes the active credential and reports whether it changed. A
// change invalidates every outstanding ticket.
func (c *Context) Set(credentialID string) bool {
	if credentialID == c.active {
		return false
	}
	c.active = credentialID
	c.seq++
	for table := range c.latest {
		c.latest[table] = c.seq
	}
	return true
}

// Begin issues a ticket for a load of table scoped to credentialID.
func (c *Context) Begin(table Table, credentialID string) Ticket {
	c.seq++
	c.latest[table] = c.seq
	return Ticket{Table: table, Seq: c.seq, CredentialID: credentialID}
}

// Invalidate makes every outstanding ticket for table stale.
func (c *Context) Invalidate(table Table) {
	c.seq++
	c.latest[table] = c.seq
}

// Accept reports whether a result carrying ticket may be applied.
func (c *Context) Accept(ticket Ticket) bool {
	if !c.guarded {
		return true
	}
	return ticket.Seq == c.latest[ticket.Table] && ticket.CredentialID == c.active
}
