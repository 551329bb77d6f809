package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrUniqueViolation is wrapped into errors caused by a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

const pqUniqueViolation = "23505"

// wrapErr adds op context and tags unique violations so services can map them
// to conflicts without importing the driver.
func wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrUniqueViolation, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}
