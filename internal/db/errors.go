package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a database lifecycle failure.
type Kind int

const (
	KindOther Kind = iota
	// KindAlreadyExists is reported when creating a resource that is already present.
	KindAlreadyExists
	// KindNotFound is reported when the target database does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindNotFound:
		return "not found"
	default:
		return "operation failed"
	}
}

// Error is returned by every lifecycle operation. Callers branch on Kind,
// never on the message text.
type Error struct {
	Kind     Kind
	Op       string
	Database string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s database %q: %s", e.Op, e.Database, e.Kind)
	}
	return fmt.Sprintf("%s database %q: %s: %v", e.Op, e.Database, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAlreadyExists reports whether err is a lifecycle error of kind KindAlreadyExists.
func IsAlreadyExists(err error) bool {
	return kindOf(err) == KindAlreadyExists
}

// IsNotFound reports whether err is a lifecycle error of kind KindNotFound.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// newError classifies err by its SQLSTATE.
func newError(op, database string, err error) *Error {
	return &Error{Kind: classify(err), Op: op, Database: database, Err: err}
}

func classify(err error) Kind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindOther
	}

	switch pgErr.Code {
	case pgerrcode.DuplicateDatabase:
		return KindAlreadyExists
	case pgerrcode.InvalidCatalogName:
		return KindNotFound
	default:
		return KindOther
	}
}
