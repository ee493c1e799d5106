// Package database opens and manages the shared *sql.DB connection pool and
// applies embedded schema migrations. Postgres (pgx) and SQLite (modernc) are
// supported behind the same database/sql surface.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JaimeStill/agent-chat/pkg/lifecycle"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Postgres receives $1..$n; SQLite accepts '?' as written.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// System provides access to the connection pool and its lifecycle.
type System interface {
	Connection() *sql.DB
	Dialect() Dialect
	Start(lc *lifecycle.Coordinator) error
	Migrate(fsys fs.FS, dir string) error
}

type db struct {
	conn   *sql.DB
	cfg    Config
	logger *slog.Logger
}

// New opens the connection pool described by cfg. The connection is verified
// during Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	conn, err := open(cfg)
	if err != nil {
		return nil, err
	}

	return &db{
		conn:   conn,
		cfg:    *cfg,
		logger: logger.With("system", "database", "driver", cfg.Driver),
	}, nil
}

func (d *db) Connection() *sql.DB {
	return d.conn
}

func (d *db) Dialect() Dialect {
	return d.cfg.Driver
}

func (d *db) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database system")

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), d.cfg.ConnTimeoutDuration())
		defer cancel()

		if err := d.conn.PingContext(ctx); err != nil {
			d.logger.Error("database ping failed", "error", err)
			return
		}
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed")
	})

	return nil
}

// Migrate applies every pending up migration found in dir of fsys. A separate
// connection is used so closing the migrator leaves the shared pool intact.
func (d *db) Migrate(fsys fs.FS, dir string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	conn, err := open(&d.cfg)
	if err != nil {
		return err
	}

	var driver migratedb.Driver
	switch d.cfg.Driver {
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		driver, err = migratepgx.WithInstance(conn, &migratepgx.Config{})
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(d.cfg.Driver), driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	d.logger.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

func open(cfg *Config) (*sql.DB, error) {
	if cfg.Driver == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	conn, err := sql.Open(cfg.Driver.DriverName(), cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return conn, nil
}
