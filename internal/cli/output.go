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

package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/exp/maps"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation failed
	ExitCommandError = 2 // Invalid flags, arguments or binding file
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Returns ExitFailure if the error is not an
// ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Printer writes values in the configured format. It is safe for concurrent use.
type Printer struct {
	Format string
	Writer io.Writer

	mutex sync.Mutex
}

// Print writes value as one JSON line, or as sorted "key: value" lines followed by a blank line in
// text format.
func (p *Printer) Print(value map[string]interface{}) error {
	var out strings.Builder

	if p.Format == "text" {
		keys := maps.Keys(value)
		sort.Strings(keys)
		for _, key := range keys {
			encoded, err := json.Marshal(value[key])
			if err != nil {
				return err
			}
			out.WriteString(key)
			out.WriteString(": ")
			out.Write(encoded)
			out.WriteString("\n")
		}
		out.WriteString("\n")
	} else {
		if value == nil {
			value = map[string]interface{}{}
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out.Write(encoded)
		out.WriteString("\n")
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	_, err := io.WriteString(p.Writer, out.String())
	return err
}
