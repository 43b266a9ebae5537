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

// Keys of the reserved fields in the map returned by State.Map.
const (
	LoadingKey = "loading"
	LoadedKey  = "loaded"
	ErrorKey   = "error"
)

// State is the result state of a Controller.
type State struct {
	// Loading is true only while the latest dispatched query is in flight.
	Loading bool

	// Loaded is true after the latest query succeeded.
	Loaded bool

	// Error is the error of the latest failed query.
	Error error

	// Fields merged from query data, mutation transforms and subscription pushes
	Fields map[string]interface{}
}

// Clone returns a copy of s which doesn't share its field map with s.
func (s State) Clone() State {
	fields := make(map[string]interface{}, len(s.Fields))
	for key, value := range s.Fields {
		fields[key] = value
	}
	s.Fields = fields
	return s
}

// Merge copies every entry in fields into s. An entry replaces the existing field with the same key.
func (s *State) Merge(fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}

	if s.Fields == nil {
		s.Fields = make(map[string]interface{}, len(fields))
	}
	for key, value := range fields {
		s.Fields[key] = value
	}
}

// Set replaces the field under name with value.
func (s *State) Set(name string, value interface{}) {
	if s.Fields == nil {
		s.Fields = map[string]interface{}{}
	}
	s.Fields[name] = value
}

// Get returns the field under name.
func (s State) Get(name string) (interface{}, bool) {
	value, ok := s.Fields[name]
	return value, ok
}

// Map flattens s into a map. Fields come first; the reserved keys "loading", "loaded" and "error"
// are written last and win over fields with the same names.
func (s State) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s.Fields)+3)
	for key, value := range s.Fields {
		m[key] = value
	}

	m[LoadingKey] = s.Loading
	m[LoadedKey] = s.Loaded
	if s.Error != nil {
		m[ErrorKey] = s.Error
	} else {
		m[ErrorKey] = nil
	}

	return m
}
