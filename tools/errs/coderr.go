package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pkgerr "github.com/pkg/errors"
)

const (
	ValidationError     = 1001
	NotFoundError       = 1004
	PersistenceError    = 1500
	ServerInternalError = 1999
)

var (
	ErrValidation  = NewCodeError(ValidationError, "validation error")
	ErrNotFound    = NewCodeError(NotFoundError, "not found")
	ErrPersistence = NewCodeError(PersistenceError, "persistence error")
	ErrInternal    = NewCodeError(ServerInternalError, "server internal error")
)

// CodeError is an error with a stable numeric code. Codes are compared by
// errors.Is, so a wrapped clone of ErrNotFound still matches ErrNotFound.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`

	cause error
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: e.Detail,
		cause:  e.cause,
	}
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	ret := e.clone()
	if ret.Detail == "" {
		ret.Detail = detail
	} else {
		ret.Detail += ", " + detail
	}
	return ret
}

// WrapMsg returns a copy of e whose detail is msg followed by the kv pairs.
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	ret := e.clone()
	if msg != "" || len(kv) > 0 {
		ret = ret.WithDetail(toString(msg, kv))
	}
	return pkgerr.WithStack(ret)
}

// WrapCause is WrapMsg with an underlying error that stays reachable through
// errors.Is / errors.As.
func (e *CodeError) WrapCause(cause error, msg string, kv ...any) error {
	if cause == nil {
		return nil
	}
	ret := e.clone()
	ret.cause = cause
	if msg != "" || len(kv) > 0 {
		ret = ret.WithDetail(toString(msg, kv))
	}
	return pkgerr.WithStack(ret)
}

func (e *CodeError) Unwrap() error { return e.cause }

func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	if e == nil || t == nil {
		return e == t
	}
	return e.Code == t.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 4)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	if e.cause != nil {
		v = append(v, "cause: "+e.cause.Error())
	}
	return strings.Join(v, " ")
}

// Code extracts the code of the first CodeError in err's chain, or
// ServerInternalError when there is none.
func Code(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ServerInternalError
}

// Msg is the client-facing message for err.
func Msg(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		if ce.Detail != "" {
			return ce.Msg + ": " + ce.Detail
		}
		return ce.Msg
	}
	return ErrInternal.Msg
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func New(msg string, kv ...any) error {
	return pkgerr.New(toString(msg, kv))
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return pkgerr.Wrap(err, toString(msg, kv))
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			sb.WriteString("MISSING")
		}
	}
	return sb.String()
}
