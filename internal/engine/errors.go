package engine

import (
	"github.com/pkg/errors"
)

// ErrFatal marks engine errors that retrying won't fix, e.g. a misconfigured engine binary
// or corrupt data. Test with errors.Is(err, ErrFatal).
var ErrFatal = errors.New("fatal engine error")

// fatalError wraps an error so that errors.Is(err, ErrFatal) holds, while keeping the original
// error in the chain.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string        { return e.err.Error() }
func (e *fatalError) Unwrap() error        { return e.err }
func (e *fatalError) Is(target error) bool { return target == ErrFatal }

// Fatal marks err as fatal. It returns nil if err is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal returns whether err was marked as fatal anywhere in its chain.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
