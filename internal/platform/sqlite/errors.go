package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MapError maps a SQLite error to the store error taxonomy. notFound and
// duplicate are the entity-specific sentinels; nil selects the generic ones.
func MapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if notFound == nil {
		notFound = store.ErrNotFound
	}
	if duplicate == nil {
		duplicate = store.ErrDuplicate
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return duplicate
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: check constraint violation", store.ErrInvalidEntity)
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: not null violation", store.ErrInvalidEntity)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: foreign key violation", store.ErrInvalidEntity)
		}
	}

	return err
}
