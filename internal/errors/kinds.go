package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrMalformedLocalData = stderrors.New("malformed local entry data")
	ErrInvalidTimeFormat  = stderrors.New("time must be HH:MM")
	ErrPreconditionNotMet = stderrors.New("precondition not met")
)

// RepositoryError reports a failed remote store operation. Callers treat it
// as "try again on the next trigger", never as fatal.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func Repository(op string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if stderrors.As(err, &repoErr) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}

func IsRepository(err error) bool {
	var repoErr *RepositoryError
	return stderrors.As(err, &repoErr)
}
