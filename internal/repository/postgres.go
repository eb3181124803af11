// internal/repository/postgres.go
package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clickguard/internal/models"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint failure
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// validID rejects ids Postgres would refuse to cast to UUID, so unknown
// ids read as not found instead of a query error
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nullID maps an empty foreign key to NULL
func nullID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
