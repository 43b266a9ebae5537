/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package binding

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as the package and method, such as "binding.New".
type Op string

// ErrKind defines the kind of error this is.
type ErrKind uint8

// Enumeration of ErrKind
const (
	ErrKindOther         ErrKind = iota // Unclassified error. This value is not printed in the error message.
	ErrKindConfiguration                // A required client capability or option is missing or invalid.
	ErrKindLifecycle                    // A lifecycle hook was called in the wrong state.
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindOther:
		return "other error"
	case ErrKindConfiguration:
		return "configuration error"
	case ErrKindLifecycle:
		return "lifecycle error"
	}
	return "unknown error kind"
}

// Error is returned by the binding package when a Controller cannot be built or driven.
type Error struct {
	// The operation being performed
	Op Op

	// Class of error
	Kind ErrKind

	// Description of the error
	Message string

	// The underlying error that triggered this one, if any
	Err error
}

// newError creates an Error.
func newError(op Op, kind ErrKind, format string, args ...interface{}) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapError creates an Error caused by err.
func wrapError(err error, op Op, kind ErrKind, format string, args ...interface{}) *Error {
	e := newError(op, kind, format, args...)
	e.Err = err
	return e
}

// Error implements Go's error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Kind != ErrKindOther {
		msg = e.Kind.String() + ": " + msg
	}
	if len(e.Op) > 0 {
		msg = string(e.Op) + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true if err is (or wraps) an Error of kind ErrKindConfiguration.
func IsConfigurationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrKindConfiguration
}

// IsLifecycleError returns true if err is (or wraps) an Error of kind ErrKindLifecycle.
func IsLifecycleError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrKindLifecycle
}
