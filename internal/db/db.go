package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*
var migrationsFS embed.FS

// Tables lists the chain tables in the order they are cleared.
var Tables = []string{"bigchain", "backlog", "votes"}

const (
	DatabaseExistsQuery = `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`
	CreateDatabaseQuery = `CREATE DATABASE %s`
	DropDatabaseQuery   = `DROP DATABASE %s WITH (FORCE)`
	ClearTableQuery     = `DELETE FROM %s`
)

// Open returns a handle for connString. No connection is made until first
// use, so a missing database surfaces as KindNotFound from the first call.
func Open(connString string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	return stdlib.OpenDB(*cfg), nil
}

// DatabaseExists reports whether the named database exists.
func DatabaseExists(ctx context.Context, admin *sql.DB, name string) (bool, error) {
	var exists bool
	if err := admin.QueryRowContext(ctx, DatabaseExistsQuery, name).Scan(&exists); err != nil {
		return false, newError("lookup", name, err)
	}
	return exists, nil
}

// CreateDatabase creates the named database. An existing database is reported
// as KindAlreadyExists.
func CreateDatabase(ctx context.Context, admin *sql.DB, name string) error {
	slog.Info("Creating database", "name", name)
	if _, err := admin.ExecContext(ctx, fmt.Sprintf(CreateDatabaseQuery, pgx.Identifier{name}.Sanitize())); err != nil {
		return newError("create", name, err)
	}
	return nil
}

// InitDatabase creates the named database and its tables. When the database
// already exists it returns KindAlreadyExists and leaves the database untouched.
// A database whose migrations fail is dropped again, so an existing database
// always has its tables.
func InitDatabase(ctx context.Context, admin *sql.DB, name, targetConnString string) error {
	if err := CreateDatabase(ctx, admin, name); err != nil {
		return err
	}

	if err := Migrate(targetConnString); err != nil {
		migrateErr := &Error{Kind: KindOther, Op: "migrate", Database: name, Err: err}
		slog.Warn("Migrations failed, dropping database", "name", name, "error", err)
		if dropErr := DropDatabase(ctx, admin, name); dropErr != nil {
			return errors.Join(migrateErr, dropErr)
		}
		return migrateErr
	}

	return nil
}

// DropDatabase drops the named database, terminating its sessions. A missing
// database is reported as KindNotFound; every other failure as KindOther.
func DropDatabase(ctx context.Context, admin *sql.DB, name string) error {
	slog.Info("Dropping database", "name", name)
	if _, err := admin.ExecContext(ctx, fmt.Sprintf(DropDatabaseQuery, pgx.Identifier{name}.Sanitize())); err != nil {
		return newError("drop", name, err)
	}
	return nil
}

// ClearTables deletes every row of the chain tables, keeping the schema.
// target must be connected to the named database.
func ClearTables(ctx context.Context, target *sql.DB, name string) error {
	tx, err := target.BeginTx(ctx, nil)
	if err != nil {
		return newError("clear", name, err)
	}
	defer tx.Rollback() // Ensure rollback if commit is not reached

	for _, table := range Tables {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(ClearTableQuery, pgx.Identifier{table}.Sanitize())); err != nil {
			return newError("clear", name, fmt.Errorf("table %s: %w", table, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return newError("clear", name, err)
	}

	return nil
}

// Migrate brings the schema of the database behind connString up to date.
// It is idempotent.
func Migrate(connString string) error {
	slog.Info("Running PostgreSQL migrations...")

	conn, err := Open(connString)
	if err != nil {
		return err
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Closing m closes conn as well.
	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
