package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aysualkaya/assistant/internal/database"
)

// mapError translates pgx / pgconn native errors into *database.DBError.
// SQLSTATE class 08 covers connection failures; everything else from the
// server is a query error.
func mapError(err error, msg string) *database.DBError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &database.DBError{Kind: database.ErrKindTimeout, Message: msg, Cause: err}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &database.DBError{Kind: database.ErrKindNotFound, Message: msg, Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := database.ErrKindQueryFailed
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			kind = database.ErrKindConnectionFailed
		}
		return &database.DBError{
			Kind:    kind,
			Message: fmt.Sprintf("%s: %s", msg, pgErr.Message),
			Cause:   err,
		}
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return &database.DBError{Kind: database.ErrKindConnectionFailed, Message: msg, Cause: err}
}
