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

package binding

import (
	"reflect"
)

// VariablesBuilder derives the variables of an operation from the properties of a component.
type VariablesBuilder func(props Props) Variables

// buildVariables calls builder with props. A nil builder yields nil variables.
func buildVariables(builder VariablesBuilder, props Props) Variables {
	if builder == nil {
		return nil
	}
	return builder(props)
}

// HasChanged reports whether the variables built from prevProps differ from the ones built from
// nextProps. Nil variables are treated as empty ones, so two nil builds (or a nil builder) never
// count as a change. The comparison is shallow, see ShallowEqual.
func HasChanged(builder VariablesBuilder, prevProps Props, nextProps Props) bool {
	prevVars := buildVariables(builder, prevProps)
	nextVars := buildVariables(builder, nextProps)
	return !ShallowEqual(prevVars, nextVars)
}

// ShallowEqual returns true if a and b have the same set of keys and the values under each key are
// identical. Values are not compared recursively: maps, slices, pointers, channels and funcs are
// identical only when they refer to the same underlying object; struct and array values that cannot
// be compared with == are never identical.
func ShallowEqual(a, b Variables) bool {
	if len(a) != len(b) {
		return false
	}

	for key, aValue := range a {
		bValue, ok := b[key]
		if !ok || !identical(aValue, bValue) {
			return false
		}
	}

	return true
}

func identical(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aValue, bValue := reflect.ValueOf(a), reflect.ValueOf(b)
	if aValue.Type() != bValue.Type() {
		return false
	}

	switch aValue.Kind() {
	case reflect.Map, reflect.Ptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return aValue.Pointer() == bValue.Pointer()

	case reflect.Slice:
		return aValue.Pointer() == bValue.Pointer() &&
			aValue.Len() == bValue.Len() &&
			aValue.Cap() == bValue.Cap()
	}

	if !aValue.Type().Comparable() {
		return false
	}
	return equalComparable(a, b)
}

// equalComparable compares a and b with ==. A struct whose interface fields hold uncomparable
// values panics on ==; such values are not identical.
func equalComparable(a, b interface{}) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// SelectVariables returns a VariablesBuilder that copies properties into variables. mapping maps a
// variable name to the name of the property holding its value. Properties that are absent are left
// out of the variables.
func SelectVariables(mapping map[string]string) VariablesBuilder {
	selection := make(map[string]string, len(mapping))
	for variable, prop := range mapping {
		selection[variable] = prop
	}

	return func(props Props) Variables {
		variables := make(Variables, len(selection))
		for variable, prop := range selection {
			if value, ok := props[prop]; ok {
				variables[variable] = value
			}
		}
		return variables
	}
}
