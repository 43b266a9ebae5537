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

package future

// ready implements a Future that is immediately ready with a value or an error.
type ready struct {
	value interface{}
	err   error
}

// Poll implements Future.
func (f *ready) Poll(waker Waker) (PollResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

// Ready creates a Future that is immediately ready with a value.
func Ready(value interface{}) Future {
	return &ready{value: value}
}

// errNil is returned from a Future created by Err(nil) so that it still finishes with an error.
type errNil struct{}

func (errNil) Error() string {
	return ""
}

// Err creates a Future that is immediately ready with an error.
func Err(err error) Future {
	if err == nil {
		err = errNil{}
	}
	return &ready{err: err}
}
