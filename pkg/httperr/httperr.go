package httperr

import "errors"

type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}

// DecodeError marks a stored payload that could not be deserialized, as
// opposed to storage being unreachable.
type DecodeError struct {
	msg string
	err error
}

func (e *DecodeError) Error() string { return e.msg }
func (e *DecodeError) Unwrap() error { return e.err }

func NewDecode(msg string, err error) error { return &DecodeError{msg: msg, err: err} }

func IsDecode(err error) bool {
	_, ok := errors.AsType[*DecodeError](err)
	return ok
}

// UnavailableError marks a retryable storage I/O failure.
type UnavailableError struct {
	msg string
	err error
}

func (e *UnavailableError) Error() string { return e.msg }
func (e *UnavailableError) Unwrap() error { return e.err }

func NewUnavailable(msg string, err error) error { return &UnavailableError{msg: msg, err: err} }

func IsUnavailable(err error) bool {
	_, ok := errors.AsType[*UnavailableError](err)
	return ok
}
