package spy

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/roach88/querymatch/internal/builder"
)

// OpenDB opens a *sql.DB over inner that records every statement executed
// through it on s.
//
// Each recorded call is Call{Args: []any{connID, builder.Query}}: the
// connection number (starting at 1) and the statement as a raw query handle.
// A statement the driver defers with driver.ErrSkip is recorded once, on the
// prepared-statement path it falls back to.
func OpenDB(inner driver.Driver, dsn string, s *Spy) *sql.DB {
	return sql.OpenDB(&connector{inner: inner, dsn: dsn, spy: s})
}

type connector struct {
	inner driver.Driver
	dsn   string
	spy   *Spy
	ids   atomic.Int64
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	var (
		raw driver.Conn
		err error
	)
	if dc, ok := c.inner.(driver.DriverContext); ok {
		var inner driver.Connector
		inner, err = dc.OpenConnector(c.dsn)
		if err != nil {
			return nil, err
		}
		raw, err = inner.Connect(ctx)
	} else {
		raw, err = c.inner.Open(c.dsn)
	}
	if err != nil {
		return nil, err
	}
	return &conn{Conn: raw, id: c.ids.Add(1), spy: c.spy}, nil
}

func (c *connector) Driver() driver.Driver { return c.inner }

type conn struct {
	driver.Conn
	id  int64
	spy *Spy
}

func (c *conn) record(query string, args []driver.NamedValue) {
	bindings := make([]any, 0, len(args))
	for _, v := range values(args) {
		bindings = append(bindings, v)
	}
	c.spy.Record(c.id, builder.Raw(query, bindings...))
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ex, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	res, err := ex.ExecContext(ctx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		return nil, err
	}
	c.record(query, args)
	return res, err
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qr, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	rows, err := qr.QueryContext(ctx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		return nil, err
	}
	c.record(query, args)
	return rows, err
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		st  driver.Stmt
		err error
	)
	if pc, ok := c.Conn.(driver.ConnPrepareContext); ok {
		st, err = pc.PrepareContext(ctx, query)
	} else {
		st, err = c.Conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &stmt{Stmt: st, conn: c, query: query}, nil
}

func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if bt, ok := c.Conn.(driver.ConnBeginTx); ok {
		return bt.BeginTx(ctx, opts)
	}
	return c.Conn.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
}

func (c *conn) Ping(ctx context.Context) error {
	if p, ok := c.Conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

type stmt struct {
	driver.Stmt
	conn  *conn
	query string
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	defer s.conn.record(s.query, args)
	if ex, ok := s.Stmt.(driver.StmtExecContext); ok {
		return ex.ExecContext(ctx, args)
	}
	return s.Stmt.Exec(values(args)) //nolint:staticcheck // fallback for drivers without ExecContext
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	defer s.conn.record(s.query, args)
	if qr, ok := s.Stmt.(driver.StmtQueryContext); ok {
		return qr.QueryContext(ctx, args)
	}
	return s.Stmt.Query(values(args)) //nolint:staticcheck // fallback for drivers without QueryContext
}

// values returns the argument values in ordinal order.
func values(args []driver.NamedValue) []driver.Value {
	sorted := make([]driver.NamedValue, len(args))
	copy(sorted, args)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	out := make([]driver.Value, len(sorted))
	for i, a := range sorted {
		out[i] = a.Value
	}
	return out
}
