package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liftedinit/chainstore/internal/config"
	"github.com/liftedinit/chainstore/internal/db"
)

// Opener returns a database handle for a connection string.
type Opener func(connString string) (*sql.DB, error)

// Harness creates, clears and drops the chain database described by its
// configuration. The maintenance and target handles are opened on first use
// and reused by every later call.
type Harness struct {
	cfg    config.DatabaseConfig
	target string
	open   Opener

	admin *sql.DB
	conn  *sql.DB
}

type Option func(*Harness)

// WithOpener replaces db.Open, e.g. with a mock.
func WithOpener(open Opener) Option {
	return func(h *Harness) {
		h.open = open
	}
}

func New(cfg config.DatabaseConfig, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	target, err := cfg.TargetConnString()
	if err != nil {
		return nil, err
	}

	h := &Harness{cfg: cfg, target: target, open: db.Open}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (h *Harness) Name() string {
	return h.cfg.Name
}

// Admin returns the maintenance handle used to create and drop the database.
func (h *Harness) Admin() (*sql.DB, error) {
	if h.admin == nil {
		conn, err := h.open(h.cfg.ConnString)
		if err != nil {
			return nil, fmt.Errorf("failed to open maintenance connection: %w", err)
		}
		h.admin = conn
	}
	return h.admin, nil
}

// DB returns the handle connected to the chain database.
func (h *Harness) DB() (*sql.DB, error) {
	if h.conn == nil {
		conn, err := h.open(h.target)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		h.conn = conn
	}
	return h.conn, nil
}

// Setup recreates the database from scratch: an existing database is dropped
// first, then the database and its tables are created. An "already exists"
// report from initialization is not an error.
func (h *Harness) Setup(ctx context.Context) error {
	slog.Info("Initializing test database", "name", h.cfg.Name)

	admin, err := h.Admin()
	if err != nil {
		return err
	}

	exists, err := db.DatabaseExists(ctx, admin, h.cfg.Name)
	if err != nil {
		return err
	}
	if exists {
		if err := h.drop(ctx); err != nil && !db.IsNotFound(err) {
			return err
		}
	}

	if err := db.InitDatabase(ctx, admin, h.cfg.Name, h.target); err != nil {
		if !db.IsAlreadyExists(err) {
			return err
		}
		slog.Info("Database already exists", "name", h.cfg.Name)
	}

	slog.Info("Finished initializing test database", "name", h.cfg.Name)
	return nil
}

// Teardown drops the database. A database that does not exist is not an
// error; any other failure is returned unchanged.
func (h *Harness) Teardown(ctx context.Context) error {
	slog.Info("Deleting test database", "name", h.cfg.Name)

	if err := h.drop(ctx); err != nil {
		if !db.IsNotFound(err) {
			return err
		}
		slog.Debug("Database does not exist", "name", h.cfg.Name)
	}

	slog.Info("Finished deleting test database", "name", h.cfg.Name)
	return nil
}

// ClearTables empties the chain tables. A database that does not exist is
// not an error.
func (h *Harness) ClearTables(ctx context.Context) error {
	conn, err := h.DB()
	if err != nil {
		return err
	}

	if err := db.ClearTables(ctx, conn, h.cfg.Name); err != nil {
		if !db.IsNotFound(err) {
			return err
		}
		slog.Debug("Database does not exist", "name", h.cfg.Name)
	}

	return nil
}

// drop closes the target handle before dropping, since its sessions are
// terminated by the drop anyway.
func (h *Harness) drop(ctx context.Context) error {
	if err := h.closeTarget(); err != nil {
		slog.Warn("Failed to close database connection", "error", err)
	}

	admin, err := h.Admin()
	if err != nil {
		return err
	}

	return db.DropDatabase(ctx, admin, h.cfg.Name)
}

func (h *Harness) closeTarget() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

// Close releases both handles.
func (h *Harness) Close() error {
	var errs []error
	if err := h.closeTarget(); err != nil {
		errs = append(errs, err)
	}
	if h.admin != nil {
		if err := h.admin.Close(); err != nil {
			errs = append(errs, err)
		}
		h.admin = nil
	}
	return errors.Join(errs...)
}
