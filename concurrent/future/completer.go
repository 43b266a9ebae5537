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

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

type completerState int

const (
	// Indicate that nobody has completed the Completer yet.
	completerPending completerState = iota

	// Indicate that the Completer finished with an error.
	completerErr

	// Indicate that the Completer finished with a value.
	completerValue
)

// String implements fmt.Stringer to pretty-print completerState.
func (state completerState) String() string {
	switch state {
	case completerPending:
		return "an incompleted"
	case completerErr:
		return "an error"
	case completerValue:
		return "a value"
	}
	return "unknown"
}

// A Completer is the write side of a Future: a producer running somewhere else (e.g., a client call
// submitted to an executor) finishes it exactly once with either Complete or SetError. Any number
// of Futures can be created from the same Completer; all of them observe the same result.
type Completer struct {
	// Lock that guards all the fields below
	mutex sync.Mutex

	state completerState
	value interface{}
	err   error

	// Waker for each Future created by this Completer; Indexed by completerFuture.wakerSlot.
	wakers []Waker
}

// NewCompleter creates a Completer which has not been completed.
func NewCompleter() *Completer {
	return &Completer{}
}

// completerFuture implements Future returned by Completer.Future.
type completerFuture struct {
	completer *Completer

	// The slot in completer.wakers that stores waker for the future
	wakerSlot int
}

var _ Future = (*completerFuture)(nil)

// Poll implements Future.
func (f *completerFuture) Poll(waker Waker) (PollResult, error) {
	c := f.completer

	mutex := &c.mutex
	mutex.Lock()
	defer mutex.Unlock()

	switch c.state {
	case completerPending:
		if waker == nil {
			waker = NopWaker
		}
		c.wakers[f.wakerSlot] = waker
		return PollResultPending, nil

	case completerErr:
		return nil, c.err

	default:
		return c.value, nil
	}
}

// Future returns a Future for the result of c.
func (c *Completer) Future() Future {
	mutex := &c.mutex
	mutex.Lock()
	defer mutex.Unlock()

	switch c.state {
	case completerErr:
		return Err(c.err)

	case completerValue:
		return Ready(c.value)
	}

	c.wakers = append(c.wakers, NopWaker)
	return &completerFuture{
		completer: c,
		wakerSlot: len(c.wakers) - 1,
	}
}

func (c *Completer) complete(state completerState, value interface{}, err error) error {
	mutex := &c.mutex
	mutex.Lock()

	if c.state != completerPending {
		oldState := c.state
		mutex.Unlock()
		return fmt.Errorf("completer was already completed with %s but want to accept %s",
			oldState, state)
	}

	c.state = state
	c.value = value
	c.err = err

	wakers := c.wakers
	c.wakers = nil

	mutex.Unlock()

	for _, waker := range wakers {
		if err := waker.Wake(); err != nil {
			glog.Warningf("waker %T failed to wake a future waiting on completer: %s", waker, err)
		}
	}

	return nil
}

// Complete finishes c with the given value.
func (c *Completer) Complete(value interface{}) error {
	return c.complete(completerValue, value, nil)
}

// SetError finishes c with an error value.
func (c *Completer) SetError(err error) error {
	if err == nil {
		err = errNil{}
	}
	return c.complete(completerErr, nil, err)
}

// Completed returns true if c has been completed with either a value or an error.
func (c *Completer) Completed() bool {
	mutex := &c.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return c.state != completerPending
}
