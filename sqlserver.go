// Package sqlserver runs common queries and commands against Microsoft SQL
// Server over ODBC.
//
// Writes are built from an ordered column list, bound positionally and
// committed immediately:
//
//	client, err := sqlserver.New(ctx, cfg)
//	...
//	n, err := client.Insert(ctx, "users", sqlserver.Cols("name", "Ada", "born", 1815))
//	n, err = client.Upsert(ctx, "users", "id", 42, sqlserver.Cols("name", "Ada"))
//	rows, err := client.Select(ctx, "SELECT * FROM dbo.[users]")
package sqlserver

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/jchilcher/sqlserver/internal/core"
	"github.com/jchilcher/sqlserver/internal/plugin"
	"github.com/jchilcher/sqlserver/pkg/config"
)

type (
	// Column is one column name and its value.
	Column = core.Column
	// Columns is an insertion-ordered column/value list used by Insert, Upsert and BulkInsert.
	Columns = core.Columns
	// SelectBuilder builds parameterized SELECT statements for SelectWhere and Count.
	SelectBuilder = core.SelectBuilder
	// Opener opens a *sql.DB; sql.Open is used by default.
	Opener = core.Opener
	// Hooks are called around every statement.
	Hooks = plugin.Hooks
	// Op names a helper operation in Hooks callbacks.
	Op = plugin.Op
	// LogHooks logs statements through logrus.
	LogHooks = plugin.LogHooks
	// HookChain runs several Hooks in order.
	HookChain = plugin.Chain
)

// Cols builds Columns from alternating name, value arguments:
//
//	sqlserver.Cols("name", "Ada", "born", 1815)
func Cols(pairs ...interface{}) Columns {
	return core.Cols(pairs...)
}

// NewSelect starts a SELECT on table.
func NewSelect(table string) *SelectBuilder {
	return core.NewSelect(table)
}

// Client runs simple queries and commands against one SQL Server database.
//
// Without keep-alive each operation opens its own connection and closes it
// before returning. With keep-alive a single handle is opened up front and
// reused until Close.
type Client struct {
	cfg   config.Config
	open  core.Opener
	hooks plugin.Hooks
	log   *log.Entry

	conn *sqlx.DB
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logrus entry the client logs through.
func WithLogger(entry *log.Entry) Option {
	return func(c *Client) {
		c.log = entry
	}
}

// WithHooks replaces the default statement hooks (LogHooks on the client's logger).
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		c.hooks = h
	}
}

// WithOpener replaces sql.Open, e.g. to hand out test doubles.
func WithOpener(open Opener) Option {
	return func(c *Client) {
		c.open = open
	}
}

func newClient(opts []Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.WithField("component", "sqlserver")
	}
	if c.hooks == nil {
		c.hooks = plugin.LogHooks{Entry: c.log}
	}
	return c
}

// New builds a client for cfg. With cfg.KeepAlive the connection is opened
// now and any connect error is returned.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	c := newClient(opts)
	if cfg != nil {
		c.cfg = *cfg
	}
	if c.cfg.KeepAlive {
		db, err := c.Connect(ctx)
		if err != nil {
			return nil, err
		}
		c.conn = db
	}
	return c, nil
}

// FromDB wraps an open handle. The client behaves as keep-alive and Close
// closes db.
func FromDB(db *sql.DB, opts ...Option) *Client {
	c := newClient(opts)
	c.cfg.KeepAlive = true
	c.conn = sqlx.NewDb(db, core.DriverName)
	return c
}

// Connect opens and pings a new connection from the client's configuration.
// The caller owns the returned handle.
//
// Missing settings are reported as *config.ConfigurationError without
// touching the driver. Driver failures are logged and returned as *Error.
func (c *Client) Connect(ctx context.Context) (*sqlx.DB, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := core.Connect(ctx, c.open, c.cfg.ConnectionString())
	if err != nil {
		c.log.WithFields(log.Fields{
			"server":   c.cfg.Server,
			"database": c.cfg.Database,
			"driver":   c.cfg.Driver,
		}).WithError(err).Error("connect failed")
		return nil, &Error{Op: "connect", Err: err}
	}
	return db, nil
}

// DB returns the kept-alive handle, or nil.
func (c *Client) DB() *sqlx.DB {
	return c.conn
}

// Close releases the kept-alive connection. Calling it again is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := core.Close(c.conn)
	c.conn = nil
	if err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

// With connects using cfg, calls fn and closes the connection on every
// exit path, including errors and panics from fn.
func With(ctx context.Context, cfg *config.Config, fn func(*Client) error, opts ...Option) (err error) {
	scoped := config.Config{}
	if cfg != nil {
		scoped = *cfg
	}
	scoped.KeepAlive = true

	c, err := New(ctx, &scoped, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// acquire returns the kept-alive handle or a fresh one with its release func.
func (c *Client) acquire(ctx context.Context) (*sqlx.DB, func() error, error) {
	if c.conn != nil {
		return c.conn, func() error { return nil }, nil
	}
	db, err := c.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

// run wraps fn with hooks and connection acquire/release.
// fn reports the row count passed to AfterStatement.
func (c *Client) run(ctx context.Context, op plugin.Op, query string, args []interface{},
	fn func(db *sqlx.DB) (int64, error)) (err error) {

	if err = c.hooks.BeforeStatement(ctx, op, query, args); err != nil {
		return err
	}
	var n int64
	defer func() {
		c.hooks.AfterStatement(ctx, op, query, n, err)
	}()

	db, release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = &Error{Op: "close", Err: cerr}
		}
	}()

	n, err = fn(db)
	if err != nil {
		return &Error{Op: string(op), Query: query, Err: err}
	}
	return nil
}
