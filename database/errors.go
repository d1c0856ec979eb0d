/*
 * Copyright 2025 The burrow Authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ValidationError aggregates every invalid configuration field found during
// a single LoadSettings call. It is always fatal: the process must not
// construct any client after receiving it.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Has reports whether the named field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ConnectionError is returned when the underlying driver cannot establish a
// connection pool. The message is safe for logging; the cause may contain
// DSN content and is only reachable through Unwrap.
type ConnectionError struct {
	Host  string
	cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to database host %q", e.Host)
}

func (e *ConnectionError) Unwrap() error { return e.cause }

// MigrationError wraps a failing migration file with its underlying cause.
// The migrate CLI catches it, logs it, and still exits 0 unless strict exit
// is requested.
type MigrationError struct {
	Version string
	File    string
	cause   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s (%s) failed: %v", e.Version, e.File, e.cause)
}

func (e *MigrationError) Unwrap() error { return e.cause }

// SQLErrorKind classifies driver errors coarsely for log reporting.
type SQLErrorKind int

const (
	UnknownErr SQLErrorKind = iota
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	SyntaxErr
)

func (k SQLErrorKind) String() string {
	switch k {
	case NoTableErr:
		return "no_table"
	case ExistTableErr:
		return "table_exists"
	case DuplicateKeyErr:
		return "duplicate_key"
	case NotNullViolationErr:
		return "not_null_violation"
	case ForeignKeyViolationErr:
		return "foreign_key_violation"
	case SyntaxErr:
		return "syntax_error"
	default:
		return "unknown"
	}
}

// ClassifySQLError maps a driver error onto a SQLErrorKind. MySQL errors are
// matched by number; PostgreSQL and SQLite by SQLSTATE or message substring.
func ClassifySQLError(err error) (bool, SQLErrorKind) {
	if err == nil {
		return false, UnknownErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1146:
			return true, NoTableErr
		case 1050:
			return true, ExistTableErr
		case 1062:
			return true, DuplicateKeyErr
		case 1048:
			return true, NotNullViolationErr
		case 1216, 1217, 1451, 1452:
			return true, ForeignKeyViolationErr
		case 1064:
			return true, SyntaxErr
		default:
			return true, UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "sqlstate 42p01") ||
		strings.Contains(s, "undefined table") ||
		strings.Contains(s, "no such table") {
		return true, NoTableErr
	}
	if strings.Contains(s, "already exists") &&
		(strings.Contains(s, "table") || strings.Contains(s, "relation")) {
		return true, ExistTableErr
	}
	if strings.Contains(s, "duplicate key value") ||
		strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "sqlstate 23505") {
		return true, DuplicateKeyErr
	}
	if strings.Contains(s, "not-null constraint") ||
		strings.Contains(s, "not null constraint failed") ||
		strings.Contains(s, "sqlstate 23502") {
		return true, NotNullViolationErr
	}
	if strings.Contains(s, "foreign key constraint") ||
		strings.Contains(s, "sqlstate 23503") {
		return true, ForeignKeyViolationErr
	}
	if strings.Contains(s, "syntax error") ||
		strings.Contains(s, "sqlstate 42601") {
		return true, SyntaxErr
	}
	return false, UnknownErr
}
