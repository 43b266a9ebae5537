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

package binding_test

import (
	"errors"

	"github.com/botobag/gqlbind/binding"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("State", func() {
	It("flattens into a map with reserved keys", func() {
		var state binding.State
		Expect(state.Map()).Should(Equal(map[string]interface{}{
			"loading": false,
			"loaded":  false,
			"error":   nil,
		}))
	})

	It("merges fields with later values winning", func() {
		var state binding.State
		state.Merge(map[string]interface{}{"a": 1, "b": 2})
		state.Merge(map[string]interface{}{"b": 3})
		Expect(state.Fields).Should(Equal(map[string]interface{}{"a": 1, "b": 3}))
	})

	It("keeps reserved keys over fields with the same name", func() {
		testErr := errors.New("failed")
		state := binding.State{Loaded: true, Error: testErr}
		state.Merge(map[string]interface{}{"loaded": "field", "error": "field", "x": 1})

		m := state.Map()
		Expect(m["loaded"]).Should(BeTrue())
		Expect(m["error"]).Should(Equal(testErr))
		Expect(m["x"]).Should(Equal(1))
	})

	It("replaces a field wholesale with Set", func() {
		var state binding.State
		state.Set("sub", map[string]interface{}{"a": 1, "b": 2})
		state.Set("sub", map[string]interface{}{"a": 3})
		value, ok := state.Get("sub")
		Expect(ok).Should(BeTrue())
		Expect(value).Should(Equal(map[string]interface{}{"a": 3}))
	})

	It("clones the field map", func() {
		var state binding.State
		state.Set("a", 1)
		clone := state.Clone()
		clone.Set("a", 2)
		value, _ := state.Get("a")
		Expect(value).Should(Equal(1))
	})
})

var _ = Describe("UnwrapResponse", func() {
	It("flattens data and surfaces errors", func() {
		errs := []*binding.ResponseError{{Message: "partial failure"}}
		Expect(binding.UnwrapResponse(&binding.Response{
			Data:   map[string]interface{}{"user": "u1"},
			Errors: errs,
		})).Should(Equal(binding.Result{
			"user":   "u1",
			"errors": errs,
		}))
	})

	It("leaves out errors when there are none", func() {
		Expect(binding.UnwrapResponse(&binding.Response{
			Data: map[string]interface{}{"user": "u1"},
		})).Should(Equal(binding.Result{"user": "u1"}))
		Expect(binding.UnwrapResponse(nil)).Should(BeEmpty())
	})
})
