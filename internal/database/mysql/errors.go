package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/aysualkaya/assistant/internal/database"
)

// MySQL error numbers (read-relevant only)
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errBadFieldError   = 1054
	errSyntaxError     = 1064
	errUnknownTable    = 1146
	errConnRefused     = 2003
)

// mapError translates go-sql-driver/mysql native errors into *database.DBError.
func mapError(err error, msg string) *database.DBError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &database.DBError{Kind: database.ErrKindTimeout, Message: msg, Cause: err}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &database.DBError{Kind: database.ErrKindNotFound, Message: msg, Cause: err}
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := database.ErrKindQueryFailed
		switch mysqlErr.Number {
		case errAccessDenied, errUnknownDatabase, errConnRefused:
			kind = database.ErrKindConnectionFailed
		case errBadFieldError, errSyntaxError, errUnknownTable:
			kind = database.ErrKindQueryFailed
		}
		return &database.DBError{
			Kind:    kind,
			Message: fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			Cause:   err,
		}
	}

	// Fallthrough: connection-level errors (network, auth handshake)
	return &database.DBError{Kind: database.ErrKindConnectionFailed, Message: msg, Cause: err}
}
