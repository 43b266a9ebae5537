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

package wstransport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/botobag/gqlbind/binding"
)

// ProtocolError reports a violation of the graphql-transport-ws protocol or a close of the
// connection by the server.
type ProtocolError struct {
	Message string

	// Close code sent by the server; Zero if the connection was not closed by a close frame.
	CloseCode int

	Err error
}

// Error implements Go's error interface.
func (err *ProtocolError) Error() string {
	msg := "wstransport: " + err.Message
	if err.CloseCode != 0 {
		msg += fmt.Sprintf(" (close code %d)", err.CloseCode)
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (err *ProtocolError) Unwrap() error {
	return err.Err
}

// OperationError carries the errors of an "error" message: the server rejected the operation
// before executing it.
type OperationError struct {
	ID     string
	Errors []*binding.ResponseError
}

// Error implements Go's error interface.
func (err *OperationError) Error() string {
	messages := make([]string, len(err.Errors))
	for i, e := range err.Errors {
		messages[i] = e.Message
	}
	return fmt.Sprintf("wstransport: operation %s failed: %s", err.ID, strings.Join(messages, "; "))
}

// ErrClosed is returned for operations on a closed Client.
var ErrClosed = errors.New("wstransport: client is closed")

// ErrUnknownHandle is returned by Unsubscribe for a handle not created by the Client.
var ErrUnknownHandle = errors.New("wstransport: unknown subscription handle")
