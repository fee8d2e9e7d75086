package apierr

import (
  "errors"
  "fmt"
  "net/http"
)

// Kind classifies a failure so callers can branch on it (and the HTTP layer
// can map it to a status) without matching on message text.
type Kind string

const (
  KindNotFound        Kind = "not_found"
  KindConflict        Kind = "conflict"
  KindInvalidArgument Kind = "invalid_argument"
  KindInternal        Kind = "internal"
)

type Error struct {
  Kind Kind
  Code string
  Err  error
}

func (e *Error) Error() string {
  if e == nil {
    return ""
  }
  if e.Err != nil {
    return e.Err.Error()
  }
  if e.Code != "" {
    return e.Code
  }
  return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
  return &Error{Kind: kind, Code: code, Err: err}
}

func NotFound(code, format string, args ...interface{}) *Error {
  return &Error{Kind: KindNotFound, Code: code, Err: fmt.Errorf(format, args...)}
}

func Conflict(code, format string, args ...interface{}) *Error {
  return &Error{Kind: KindConflict, Code: code, Err: fmt.Errorf(format, args...)}
}

func InvalidArgument(code, format string, args ...interface{}) *Error {
  return &Error{Kind: KindInvalidArgument, Code: code, Err: fmt.Errorf(format, args...)}
}

func Internal(code, format string, args ...interface{}) *Error {
  return &Error{Kind: KindInternal, Code: code, Err: fmt.Errorf(format, args...)}
}

func KindOf(err error) Kind {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Kind
  }
  return KindInternal
}

func IsKind(err error, kind Kind) bool {
  return KindOf(err) == kind
}

func CodeOf(err error) string {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Code
  }
  return ""
}

func HTTPStatus(err error) int {
  switch KindOf(err) {
  case KindNotFound:
    return http.StatusNotFound
  case KindConflict:
    return http.StatusConflict
  case KindInvalidArgument:
    return http.StatusBadRequest
  default:
    return http.StatusInternalServerError
  }
}
