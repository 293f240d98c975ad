// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package apperror models Thrift application-level exceptions: the errors a
// proxy reports back to a caller in-band, as a TApplicationException message,
// without tearing down the session.
package apperror

import (
	"errors"
	"fmt"
)

// Type is a Thrift application exception type, numbered per the
// TApplicationException wire representation.
type Type int

// Standard application exception types.
const (
	TypeUnknown               Type = 0
	TypeUnknownMethod         Type = 1
	TypeInvalidMessageType    Type = 2
	TypeWrongMethodName       Type = 3
	TypeBadSequenceID         Type = 4
	TypeMissingResult         Type = 5
	TypeInternalError         Type = 6
	TypeProtocolError         Type = 7
	TypeInvalidTransform      Type = 8
	TypeInvalidProtocol       Type = 9
	TypeUnsupportedClientType Type = 10
)

func (t Type) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypeUnknownMethod:
		return "unknown method"
	case TypeInvalidMessageType:
		return "invalid message type"
	case TypeWrongMethodName:
		return "wrong method name"
	case TypeBadSequenceID:
		return "bad sequence id"
	case TypeMissingResult:
		return "missing result"
	case TypeInternalError:
		return "internal error"
	case TypeProtocolError:
		return "protocol error"
	case TypeInvalidTransform:
		return "invalid transform"
	case TypeInvalidProtocol:
		return "invalid protocol"
	case TypeUnsupportedClientType:
		return "unsupported client type"
	default:
		return fmt.Sprintf("apperror.Type(%d)", int(t))
	}
}

// Error is an application exception to be relayed to the downstream caller.
// It satisfies the error interface so it can travel ordinary error returns
// before reaching the session layer, which encodes it as a
// TApplicationException reply.
type Error struct {
	typ Type
	msg string
}

var _ error = (*Error)(nil)

// New returns a new application exception of the given type.
func New(typ Type, msg string) *Error {
	return &Error{typ: typ, msg: msg}
}

// Newf returns a new application exception with a formatted message.
func Newf(typ Type, format string, args ...interface{}) *Error {
	return &Error{typ: typ, msg: fmt.Sprintf(format, args...)}
}

// Type returns the application exception type.
func (e *Error) Type() Type {
	if e == nil {
		return TypeUnknown
	}
	return e.typ
}

// Message returns the caller-visible message.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.msg
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.typ, e.msg)
}

// FromError returns the application exception for the provided error, if the
// error is one (possibly wrapped). Otherwise it returns nil and false.
func FromError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
