package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// MapError translates driver errors into apperr kinds. what names the entity
// for the caller-facing message, e.g. "appointment".
func MapError(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			e := apperr.Conflict("%s already exists", what)
			e.Err = err
			return e
		case pgForeignKeyViolation:
			e := apperr.Validation("%s references a record that does not exist", what)
			e.Err = err
			return e
		case pgInvalidText:
			e := apperr.Validation("invalid value for %s", what)
			e.Err = err
			return e
		}
	}
	return apperr.Internal(err, "%s: database error", what)
}
