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

package util

import (
	"math"
	"sort"
	"strings"
)

// SuggestionList given an invalid input string and a list of valid options, returns the options
// close enough to the input, most similar first.
func SuggestionList(input string, options []string) []string {
	type candidate struct {
		option   string
		distance int
	}

	var (
		candidates     []candidate
		inputThreshold = float64(len(input)) / 2.0
	)
	for _, option := range options {
		distance := lexicalDistance(input, option)
		threshold := math.Max(math.Max(inputThreshold, float64(len(option))/2.0), 1)
		if float64(distance) <= threshold {
			candidates = append(candidates, candidate{option, distance})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	result := make([]string, len(candidates))
	for i := range candidates {
		result[i] = candidates[i].option
	}
	return result
}

// lexicalDistance counts the edits turning a into b: insertions, deletions, substitutions and
// swaps of two adjacent characters (Damerau-Levenshtein). A change of case only is one edit.
func lexicalDistance(a string, b string) int {
	if a == b {
		return 0
	}

	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}

	// d[i][j] is the distance between a[:i] and b[:j].
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := 1; j <= len(b); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			best := minInt(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				best = minInt(best, d[i-2][j-2]+cost)
			}
			d[i][j] = best
		}
	}

	return d[len(a)][len(b)]
}

func minInt(first int, rest ...int) int {
	result := first
	for _, value := range rest {
		if value < result {
			result = value
		}
	}
	return result
}

// OrList joins items like `A, B, or C` (`"A", "B", or "C"` if quoted). A positive limit keeps only
// the first limit items.
func OrList(items []string, limit int, quoted bool) string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	var out strings.Builder
	for i, item := range items {
		if i > 0 {
			if len(items) > 2 {
				out.WriteString(", ")
			} else {
				out.WriteString(" ")
			}
			if i == len(items)-1 {
				out.WriteString("or ")
			}
		}

		if quoted {
			out.WriteString(`"`)
			out.WriteString(item)
			out.WriteString(`"`)
		} else {
			out.WriteString(item)
		}
	}
	return out.String()
}

// Maximum number of names in a DidYouMean hint
const maxSuggestions = 5

// DidYouMean returns a hint like `Did you mean "a" or "b"?` naming the options similar to input,
// or an empty string if there is none.
func DidYouMean(input string, options []string) string {
	suggestions := SuggestionList(input, options)
	if len(suggestions) == 0 {
		return ""
	}
	return "Did you mean " + OrList(suggestions, maxSuggestions, true) + "?"
}
