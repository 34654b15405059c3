package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned by Get for unknown identities.
var ErrNotFound = errors.New("sql: instance not found")

// ConstraintError is returned by Commit and Link when the database rejects a
// row because of a constraint.
type ConstraintError struct {
	Table string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sql: constraint failed on %s: %v", e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

type constraint uint8

const (
	noConstraint constraint = iota
	uniqueConstraint
	foreignKeyConstraint
	checkConstraint
)

// Postgres SQLSTATE codes of class 23.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
	mysqlCheckViolation   = 3819
)

// IsConstraintError reports if the error resulted from a constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) || classify(err) != noConstraint
}

// IsUniqueConstraintError reports if the error resulted from a duplicate
// value in a unique column.
func IsUniqueConstraintError(err error) bool {
	return classify(err) == uniqueConstraint
}

// IsForeignKeyConstraintError reports if the error resulted from a missing
// or referenced parent row.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err) == foreignKeyConstraint
}

// IsCheckConstraintError reports if the error resulted from a CHECK
// constraint.
func IsCheckConstraintError(err error) bool {
	return classify(err) == checkConstraint
}

func classify(err error) constraint {
	if err == nil {
		return noConstraint
	}
	if e, ok := asError[*pq.Error](err); ok {
		switch e.Code {
		case pgUniqueViolation:
			return uniqueConstraint
		case pgForeignKeyViolation:
			return foreignKeyConstraint
		case pgCheckViolation:
			return checkConstraint
		}
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		switch e.Number {
		case mysqlDuplicateEntry:
			return uniqueConstraint
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return foreignKeyConstraint
		case mysqlCheckViolation:
			return checkConstraint
		}
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueConstraint
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyConstraint
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return checkConstraint
		}
	}
	// Wrapped or proxied drivers only keep the message.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return uniqueConstraint
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return foreignKeyConstraint
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return checkConstraint
	}
	return noConstraint
}

func asError[T any](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
