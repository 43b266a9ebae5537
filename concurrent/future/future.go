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

// A Future represents a value that may not have finished computing yet. The Binding Controller
// returns one from every on-demand action (mutations and query actions) so callers decide whether
// to wait for the response, poll it from their own event loop or simply drop it.
//
// The design follows Rust's Future: a Future is inert until polled. Poll must never block. When
// the value is not available yet, the Future keeps the given Waker and calls its Wake once it is
// worth polling again.
type Future interface {
	// Poll attempts to resolve the future to a final value. It returns:
	//
	//	* ([any value], err): the future finished with an error.
	//	* (PollResultPending, nil): the future is not ready yet; waker will be woken later.
	//	* ([value other than PollResultPending], nil): the future finished with a value.
	//
	// Only the Waker passed to the most recent call to Poll is scheduled to receive a wakeup. Once a
	// future has finished, it should not be polled again.
	Poll(waker Waker) (PollResult, error)
}

// A PollResult is either PollResultPending or the final value of a Future.
type PollResult interface{}

// pollPendingResult serves as type for PollResultPending.
type pollPendingResult int

// PollResultPending is returned from Poll to indicate that value of the future is not ready yet.
const PollResultPending = pollPendingResult(0)
