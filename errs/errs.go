//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package errs provides the memq error type, which carries a return code and a message.
package errs

import (
	"errors"
	"fmt"
	"io"
)

// RetCode is the memq return code.
type RetCode int32

// memq return codes.
const (
	// RetOK means success.
	RetOK RetCode = 0

	// RetNilHandle means an operation was invoked on an absent BIO or queue.
	RetNilHandle RetCode = 1
	// RetEmpty means a read found no queued data. It is a result, not a failure.
	RetEmpty RetCode = 2
	// RetAlloc means chunk memory could not be allocated.
	RetAlloc RetCode = 3
	// RetUnsupported means the operation is not implemented by the BIO method.
	RetUnsupported RetCode = 4
	// RetConfig means the configuration could not be loaded or is invalid.
	RetConfig RetCode = 5
	// RetMetrics means a metrics sink failed to report.
	RetMetrics RetCode = 6

	// RetUnknown is the error code for unspecified errors.
	RetUnknown RetCode = 999
)

func (c RetCode) String() string {
	switch c {
	case RetOK:
		return "ok"
	case RetNilHandle:
		return "nil handle"
	case RetEmpty:
		return "empty"
	case RetAlloc:
		return "alloc"
	case RetUnsupported:
		return "unsupported"
	case RetConfig:
		return "config"
	case RetMetrics:
		return "metrics"
	default:
		return "unknown"
	}
}

// ErrorType is the error code type, framework errors come from memq itself,
// business errors are created by users of the package.
const (
	ErrorTypeFramework = 1
	ErrorTypeBusiness  = 2
)

func typeDesc(t int) string {
	if t == ErrorTypeFramework {
		return "framework"
	}
	return "business"
}

// Success is the success prompt string.
const Success = "success"

// ErrUnknown is an unknown error.
var ErrUnknown = NewFrameError(RetUnknown, "unknown error")

// Error is the error structure which contains error type, code and message.
type Error struct {
	Type int
	Code RetCode
	Msg  string

	cause error      // internal error, forms the error chain.
	stack stackTrace // call stack, set only once per chain.
}

// Error implements the error interface and returns the error description.
func (e *Error) Error() string {
	if e == nil {
		return Success
	}
	if e.cause != nil {
		return fmt.Sprintf("type:%s, code:%d, msg:%s, caused by %s",
			typeDesc(e.Type), e.Code, e.Msg, e.cause.Error())
	}
	return fmt.Sprintf("type:%s, code:%d, msg:%s", typeDesc(e.Type), e.Code, e.Msg)
}

// Format implements the fmt.Formatter interface.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "type:%s, code:%d, msg:%s", typeDesc(e.Type), e.Code, e.Msg)
			if e.stack != nil {
				e.stack.Format(s, verb)
			}
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\nCause by %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(s, "%%!%c(errs.Error=%s)", verb, e.Error())
	}
}

// Unwrap supports Go 1.13+ error chains.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same type and code.
// Sentinels created once with NewFrameError can then be matched by errors.Is
// even after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code && e.Msg == t.Msg
}

// ErrCode permits any integer defined in https://go.dev/ref/spec#Numeric_types
type ErrCode interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~int | ~uintptr
}

// New creates a business error.
func New[T ErrCode](code T, msg string) error {
	return newError(ErrorTypeBusiness, RetCode(code), msg, nil)
}

// Newf creates a business error, msg supports format strings.
func Newf[T ErrCode](code T, format string, params ...interface{}) error {
	return newError(ErrorTypeBusiness, RetCode(code), fmt.Sprintf(format, params...), nil)
}

// Wrap creates a new business error which contains err.
// The stack is only added when the chain does not hold an *Error yet.
func Wrap[T ErrCode](err error, code T, msg string) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeBusiness, RetCode(code), msg, err)
}

// Wrapf is the same as Wrap, msg supports format strings.
func Wrapf[T ErrCode](err error, code T, format string, params ...interface{}) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeBusiness, RetCode(code), fmt.Sprintf(format, params...), err)
}

// NewFrameError creates a framework error.
func NewFrameError[T ErrCode](code T, msg string) *Error {
	return newError(ErrorTypeFramework, RetCode(code), msg, nil)
}

// WrapFrameError is the same as Wrap, except type is ErrorTypeFramework.
func WrapFrameError[T ErrCode](err error, code T, msg string) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeFramework, RetCode(code), msg, err)
}

func newError(typ int, code RetCode, msg string, cause error) *Error {
	err := &Error{Type: typ, Code: code, Msg: msg, cause: cause}
	var e *Error
	if traceable && (cause == nil || !errors.As(cause, &e)) {
		err.stack = callers()
	}
	return err
}

// Code gets the error code through error.
func Code(e error) RetCode {
	if e == nil {
		return RetOK
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return RetUnknown
	}
	if err == nil {
		return RetOK
	}
	return err.Code
}

// Msg gets error msg through error.
func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return e.Error()
	}
	if err == (*Error)(nil) {
		return Success
	}
	if err.Unwrap() != nil {
		return err.Error()
	}
	return err.Msg
}
