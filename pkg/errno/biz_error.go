package errno

import (
	"errors"
	"fmt"
	"strings"
)

// BizError is an Errno enriched with a cause and a detail string.
// errors.Is(err, ErrNotFound) holds for any BizError built on ErrNotFound.
type BizError interface {
	error
	Errno() *Errno
	Message() string
}

type simpleBizError struct {
	errno  *Errno
	cause  error
	detail string
}

// NewSimpleBizError wraps cause under errno. detail fills the %s verb of the
// errno message when present.
func NewSimpleBizError(errno *Errno, cause error, detail string) BizError {
	if errno == nil {
		errno = ErrUnknown
	}
	return &simpleBizError{errno: errno, cause: cause, detail: detail}
}

func (e *simpleBizError) Errno() *Errno {
	return e.errno
}

func (e *simpleBizError) Message() string {
	if strings.Contains(e.errno.Message, "%s") {
		return fmt.Sprintf(e.errno.Message, e.detail)
	}
	if e.detail != "" {
		return e.errno.Message + ": " + e.detail
	}
	return e.errno.Message
}

func (e *simpleBizError) Error() string {
	if e.cause != nil {
		return e.Message() + ": " + e.cause.Error()
	}
	return e.Message()
}

func (e *simpleBizError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.errno}
	}
	return []error{e.errno, e.cause}
}

// From resolves the Errno carried by err, falling back to ErrInternalServer.
func From(err error) *Errno {
	if err == nil {
		return OK
	}
	var biz BizError
	if errors.As(err, &biz) {
		return biz.Errno()
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternalServer
}

// MessageOf renders the client-facing message of err.
func MessageOf(err error) string {
	var biz BizError
	if errors.As(err, &biz) {
		return biz.Message()
	}
	e := From(err)
	return strings.ReplaceAll(e.Message, " %s", "")
}
