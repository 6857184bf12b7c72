package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert would violate a uniqueness rule
	ErrDuplicate = errors.New("duplicate record")

	// ErrConflict is returned when a write is refused because of the current state of a row
	ErrConflict = errors.New("conflicting record state")
)

// Tables named by NotFoundError
const (
	TableUsers        = "users"
	TableEvents       = "events"
	TableTeams        = "teams"
	TableJoinRequests = "join_requests"
)

// NotFoundError names the missing row when an operation touches more than one table.
// It matches ErrNotFound under errors.Is.
type NotFoundError struct {
	Table string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Table, e.ID, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MissingTable returns the table of the first NotFoundError in err's chain, or "" if there is none
func MissingTable(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Table
	}
	return ""
}
