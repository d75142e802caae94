package trajectory

import "errors"

// Error implements errors unique to a trajectory store
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so that Error works with
// errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrTooShort is returned when a trajectory holds fewer than two
// records, so that no transition can be formed from it.
var ErrTooShort = errors.New("trajectory too short")

// ErrShape is returned when a record does not match the shape of the
// records already held by a store.
var ErrShape = errors.New("record shape mismatch")

// IsTooShort returns whether or not an error reports that a trajectory
// is too short to be used for an update.
func IsTooShort(err error) bool {
	return errors.Is(err, ErrTooShort)
}
