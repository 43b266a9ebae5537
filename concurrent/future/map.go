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

// MapFunc transforms the value of a Future.
type MapFunc func(value interface{}) (interface{}, error)

// mapFuture implements Future returned by Map.
type mapFuture struct {
	input Future
	fn    MapFunc
}

// Poll implements Future.
func (f *mapFuture) Poll(waker Waker) (PollResult, error) {
	result, err := f.input.Poll(waker)
	if err != nil {
		return nil, err
	}

	if result == PollResultPending {
		return PollResultPending, nil
	}

	return f.fn(result)
}

// Map creates a Future that finishes with the value of f transformed by fn. fn is not called if f
// finishes with an error.
func Map(f Future, fn MapFunc) Future {
	return &mapFuture{
		input: f,
		fn:    fn,
	}
}
