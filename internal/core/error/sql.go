package errx

import (
	"database/sql"
	"errors"
	"net/http"
)

// WrapSQL maps database errors to AppError with appropriate status codes.
func WrapSQL(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return New(err, http.StatusNotFound, StoreErrorMessage)
	}

	return New(err, http.StatusBadGateway, StoreErrorMessage)
}
