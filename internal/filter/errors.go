package filter

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMalformedKey is returned for keys with no usable field path
	ErrMalformedKey = errors.New("malformed filter key")
	// ErrUnknownField is returned when a segment is not a schema field
	ErrUnknownField = errors.New("unknown filter field")
	// ErrInvalidNested is returned when a non-terminal segment cannot be
	// traversed into a nested schema
	ErrInvalidNested = errors.New("invalid nested filter field")
	// ErrInvalidArity is returned when the number of values does not fit
	// the operator
	ErrInvalidArity = errors.New("invalid number of filter values")
	// ErrInvalidValue is returned when a value cannot be normalized
	ErrInvalidValue = errors.New("invalid filter value")
)

// Error is a validation failure for a single filter parameter. It unwraps
// to one of the sentinel errors above.
type Error struct {
	Key     string // raw filter key as supplied
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return fmt.Sprintf("filter{%s}: %s", e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// withKey attaches the raw key to a filter error
func withKey(err error, key string) error {
	var fe *Error
	if errors.As(err, &fe) && fe.Key == "" {
		copied := *fe
		copied.Key = key
		return &copied
	}
	return err
}

// InvalidKeys lists the raw keys of every filter error contained in err, in
// the order they were reported
func InvalidKeys(err error) []string {
	if err == nil {
		return nil
	}

	var errs []error
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	} else {
		errs = []error{err}
	}

	var keys []string
	for _, e := range errs {
		var fe *Error
		if errors.As(e, &fe) && fe.Key != "" {
			keys = append(keys, fe.Key)
		}
	}
	return keys
}
