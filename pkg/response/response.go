package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error that knows the HTTP status it should be reported with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches cause to a typed error. The result keeps the status of base
// and reads "<base>: <cause>"; cause is not matchable with errors.Is.
func Wrap(base error, cause error) error {
	if cause == nil {
		return base
	}
	return fmt.Errorf("%w: %v", base, cause)
}

// StatusOf returns the HTTP status carried by err, or 500 for untyped errors.
func StatusOf(err error) int {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Code
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	code := StatusOf(err)
	return code >= 400 && code < 500
}
