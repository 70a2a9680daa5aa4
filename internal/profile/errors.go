package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProfile is returned when an operation requires at least one point
	ErrEmptyProfile = errors.New("profile has no points")

	// ErrNonFinite is returned when a distance or elevation is NaN or infinite
	ErrNonFinite = errors.New("non-finite value")

	// ErrMissingColumn is returned when a required input column is absent
	ErrMissingColumn = errors.New("missing required column")

	// ErrMaskLength is returned when a mask does not line up with its profile
	ErrMaskLength = errors.New("mask length does not match profile length")
)

// DataProcessingError reports malformed or unusable profile data.
// Op names the operation that rejected the data.
type DataProcessingError struct {
	Op  string
	Msg string
	Err error
}

func (e *DataProcessingError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *DataProcessingError) Unwrap() error {
	return e.Err
}

// NewDataError builds a DataProcessingError
func NewDataError(op string, err error, format string, args ...interface{}) *DataProcessingError {
	return &DataProcessingError{
		Op:  op,
		Msg: fmt.Sprintf(format, args...),
		Err: err,
	}
}

// IsDataProcessingError reports whether err is, or wraps, a DataProcessingError
func IsDataProcessingError(err error) bool {
	var dpe *DataProcessingError
	return errors.As(err, &dpe)
}
