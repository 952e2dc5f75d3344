package processor

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

type (
	// Options selects the database/sql driver and connection.
	Options struct {
		// Driver is one of Drivers()
		Driver string

		// DSN is passed to the driver unchanged
		DSN string

		// TLS enables mutual TLS for ClickHouse connections
		TLS *TLSSettings
	}

	// DB is a database/sql backed processor. The connection is opened on
	// first use and released by Close. Begin opens a transaction that every
	// call uses until Commit or Rollback.
	DB struct {
		opts   Options
		driver driverInfo

		mu sync.Mutex
		db *sql.DB
		tx *sql.Tx
	}

	driverInfo struct {
		transactions bool
		singleConn   bool
		version      string
	}
)

var drivers = map[string]driverInfo{
	"postgres":   {transactions: true, version: "SHOW server_version"},
	"mysql":      {transactions: true, version: "SELECT VERSION()"},
	"sqlserver":  {transactions: true, version: "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))"},
	"sqlite":     {transactions: true, singleConn: true, version: "SELECT sqlite_version()"},
	"sqlite3":    {transactions: true, singleConn: true, version: "SELECT sqlite_version()"},
	"clickhouse": {transactions: false, version: "SELECT version()"},
}

// Drivers returns the supported driver names.
func Drivers() []string {
	out := make([]string, 0, len(drivers))
	for name := range drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open validates opts and returns a processor. No connection is made until
// the first statement.
func Open(opts Options) (*DB, error) {
	info, ok := drivers[opts.Driver]
	if !ok {
		return nil, errors.Errorf("unknown driver %q (expected one of %v)", opts.Driver, Drivers())
	}
	if opts.DSN == "" {
		return nil, errors.Errorf("driver %s requires a dsn", opts.Driver)
	}

	return &DB{opts: opts, driver: info}, nil
}

// FromDB wraps an open database. Close closes it.
func FromDB(driver string, db *sql.DB) *DB {
	return &DB{opts: Options{Driver: driver}, driver: drivers[driver], db: db}
}

func (d *DB) Driver() string { return d.opts.Driver }

func (d *DB) SupportsTransactions() bool { return d.driver.transactions }

func (d *DB) Exec(ctx context.Context, query string, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx != nil {
		_, err := d.tx.ExecContext(ctx, query, args...)
		return err
	}

	db, err := d.conn(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx != nil {
		return d.tx.QueryContext(ctx, query, args...)
	}

	db, err := d.conn(ctx)
	if err != nil {
		return nil, err
	}

	return db.QueryContext(ctx, query, args...)
}

// Exists reports whether query returns at least one row.
func (d *DB) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	rows, err := d.Query(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	found := rows.Next()
	return found, rows.Err()
}

func (d *DB) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx != nil {
		return errors.New("transaction already open")
	}
	if !d.driver.transactions {
		return errors.Errorf("driver %s does not support transactions", d.opts.Driver)
	}

	db, err := d.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	d.tx = tx
	return nil
}

func (d *DB) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return errors.New("no open transaction")
	}

	err := d.tx.Commit()
	d.tx = nil
	return errors.Wrap(err, "failed to commit transaction")
}

func (d *DB) Rollback() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return errors.New("no open transaction")
	}

	err := d.tx.Rollback()
	d.tx = nil
	return errors.Wrap(err, "failed to roll back transaction")
}

// Close rolls back any open transaction and releases the connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}

	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil
	return err
}

// conn opens the database on first use. Callers hold d.mu.
func (d *DB) conn(ctx context.Context) (*sql.DB, error) {
	if d.db != nil {
		return d.db, nil
	}

	db, err := d.open()
	if err != nil {
		return nil, err
	}

	if d.driver.singleConn {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", d.opts.Driver)
	}

	d.db = db
	return db, nil
}

func (d *DB) open() (*sql.DB, error) {
	if d.opts.Driver != "clickhouse" {
		db, err := sql.Open(d.opts.Driver, d.opts.DSN)
		return db, errors.Wrapf(err, "failed to open %s", d.opts.Driver)
	}

	opts, err := clickhouse.ParseDSN(d.opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "invalid clickhouse dsn")
	}

	if d.opts.TLS != nil {
		if opts.TLS, err = d.opts.TLS.Config(); err != nil {
			return nil, err
		}
	}

	return clickhouse.OpenDB(opts), nil
}
