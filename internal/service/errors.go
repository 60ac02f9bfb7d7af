package service

import (
	"errors"
	"fmt"

	"routine-planner/internal/repository"
)

var (
	// ErrConflict rejects a request that does not fit the current period
	// state: a second open period, a close with nothing open, or a racing
	// duplicate insert.
	ErrConflict = errors.New("conflict")
	// ErrNotFound means the row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller's identity cannot be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput covers malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
)

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// fromRepo lifts repository sentinels into the service taxonomy. Duplicate
// keys surface as conflicts so a lost race is never reported as success.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("%s", what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists: %w", ErrConflict, what, err)
	default:
		return err
	}
}
