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
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseAssignments", func() {
	It("decodes JSON values and keeps other values as strings", func() {
		values, err := parseAssignments("prop", []string{
			"id=u1",
			"n=3",
			"ok=true",
			`tags=["a","b"]`,
			`quoted="3"`,
			"empty=",
			"expr=a=b",
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(values).Should(Equal(map[string]interface{}{
			"id":     "u1",
			"n":      float64(3),
			"ok":     true,
			"tags":   []interface{}{"a", "b"},
			"quoted": "3",
			"empty":  "",
			"expr":   "a=b",
		}))
	})

	It("rejects assignments without name", func() {
		_, err := parseAssignments("prop", []string{"=value"})
		Expect(err).Should(HaveOccurred())
	})
})
