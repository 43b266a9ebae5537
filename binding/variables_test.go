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
	"github.com/botobag/gqlbind/binding"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("HasChanged", func() {
	propsVerbatim := func(props binding.Props) binding.Variables {
		return binding.Variables(props)
	}

	It("treats a missing builder as unchanged", func() {
		Expect(binding.HasChanged(nil, binding.Props{"a": 1}, binding.Props{"a": 2})).Should(BeFalse())
	})

	It("treats nil and empty variables as equal", func() {
		builder := func(props binding.Props) binding.Variables {
			if props["empty"] == true {
				return binding.Variables{}
			}
			return nil
		}
		Expect(binding.HasChanged(builder, binding.Props{}, binding.Props{"empty": true})).Should(BeFalse())
	})

	It("ignores rebuilt variables with the same values", func() {
		builder := func(binding.Props) binding.Variables {
			return binding.Variables{"foo": "bar"}
		}
		Expect(binding.HasChanged(builder, binding.Props{"x": 1}, binding.Props{"x": 2})).Should(BeFalse())
	})

	It("detects a changed value", func() {
		Expect(binding.HasChanged(propsVerbatim,
			binding.Props{"data": "foo"},
			binding.Props{"data": "bar"})).Should(BeTrue())
	})

	It("detects added and removed keys", func() {
		Expect(binding.HasChanged(propsVerbatim,
			binding.Props{"a": 1},
			binding.Props{"a": 1, "b": 2})).Should(BeTrue())
		Expect(binding.HasChanged(propsVerbatim,
			binding.Props{"a": 1, "b": 2},
			binding.Props{"a": 1, "c": 2})).Should(BeTrue())
	})
})

var _ = Describe("ShallowEqual", func() {
	It("compares primitives by value", func() {
		Expect(binding.ShallowEqual(
			binding.Variables{"s": "x", "i": 1, "f": 1.5, "b": true, "n": nil},
			binding.Variables{"s": "x", "i": 1, "f": 1.5, "b": true, "n": nil})).Should(BeTrue())
		Expect(binding.ShallowEqual(
			binding.Variables{"i": 1},
			binding.Variables{"i": int64(1)})).Should(BeFalse())
	})

	It("compares maps and slices by identity", func() {
		nested := map[string]interface{}{"id": 1}
		list := []interface{}{1, 2}

		Expect(binding.ShallowEqual(
			binding.Variables{"m": nested, "l": list},
			binding.Variables{"m": nested, "l": list})).Should(BeTrue())

		Expect(binding.ShallowEqual(
			binding.Variables{"m": nested},
			binding.Variables{"m": map[string]interface{}{"id": 1}})).Should(BeFalse())

		Expect(binding.ShallowEqual(
			binding.Variables{"l": list},
			binding.Variables{"l": []interface{}{1, 2}})).Should(BeFalse())

		Expect(binding.ShallowEqual(
			binding.Variables{"l": list},
			binding.Variables{"l": list[:1]})).Should(BeFalse())
	})

	It("compares pointers by identity", func() {
		type input struct{ ID int }
		a, b := &input{1}, &input{1}
		Expect(binding.ShallowEqual(binding.Variables{"p": a}, binding.Variables{"p": a})).Should(BeTrue())
		Expect(binding.ShallowEqual(binding.Variables{"p": a}, binding.Variables{"p": b})).Should(BeFalse())
	})

	It("never treats uncomparable struct values as identical", func() {
		type holder struct{ Values []int }
		h := holder{Values: []int{1}}
		Expect(binding.ShallowEqual(binding.Variables{"h": h}, binding.Variables{"h": h})).Should(BeFalse())

		type dynamic struct{ Value interface{} }
		d := dynamic{Value: []int{1}}
		Expect(binding.ShallowEqual(binding.Variables{"d": d}, binding.Variables{"d": d})).Should(BeFalse())
	})
})

var _ = Describe("SelectVariables", func() {
	It("copies properties under variable names", func() {
		builder := binding.SelectVariables(map[string]string{
			"id":   "userId",
			"room": "roomId",
		})
		Expect(builder(binding.Props{"userId": "u1", "other": 1})).Should(Equal(binding.Variables{
			"id": "u1",
		}))
	})
})
