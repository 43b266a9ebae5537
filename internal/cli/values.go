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
	"fmt"
	"strings"
)

// parseAssignments parses "name=value" pairs. A value that is valid JSON (number, boolean, null,
// object, array or quoted string) is decoded; Anything else is taken as a plain string.
func parseAssignments(flagName string, assignments []string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(assignments))
	for _, assignment := range assignments {
		name, raw, found := strings.Cut(assignment, "=")
		if !found || len(name) == 0 {
			return nil, fmt.Errorf(`--%s expects name=value but got "%s"`, flagName, assignment)
		}

		var value interface{}
		if err := json.UnmarshalFromString(raw, &value); err != nil {
			value = raw
		}
		result[name] = value
	}
	return result, nil
}
