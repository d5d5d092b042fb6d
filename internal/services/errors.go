package services

import (
	"errors"
	"fmt"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// classify maps a pgx error onto an apperr kind. fallback is used for driver
// errors that are neither transport failures nor a known SQLSTATE.
func classify(op string, fallback apperr.Kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, op, err)
		case pgUndefinedTable:
			return apperr.Wrap(fallback, op, fmt.Errorf("%w: %s", apperr.ErrMissingTable, pgErr.Message))
		}
		return apperr.Wrap(fallback, op, err)
	}

	if classified := apperr.FromTransport(op, err); apperr.KindOf(classified) == apperr.KindNetworkOrTimeout {
		return classified
	}
	return apperr.Wrap(fallback, op, err)
}
