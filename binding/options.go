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
	"context"
	"sort"

	"github.com/botobag/gqlbind/concurrent/future"

	"golang.org/x/exp/maps"
)

// Props is the property set of a component.
type Props map[string]interface{}

// DataProp is the name of the rendered property that holds the result state (see State.Map).
const DataProp = "data"

// Action is the callable rendered for a mutation or a query action. The returned Future resolves to
// a Result.
type Action func(ctx context.Context, variables Variables) future.Future

// MutationTransform maps the response of a mutation to a partial state which is merged into the
// result state. props is a copy of the component's properties with the current result state under
// DataProp.
type MutationTransform func(props Props, response Result) map[string]interface{}

// SubscriptionTransform maps the payload pushed by a subscription to the value stored in the result
// state under the subscription's name. props is the same as for MutationTransform.
type SubscriptionTransform func(props Props, data interface{}) interface{}

// MutationDescriptor configures a mutation.
type MutationDescriptor struct {
	Query string

	// Optional
	Transform MutationTransform
}

// MutationQuery creates a MutationDescriptor without transform.
func MutationQuery(query string) MutationDescriptor {
	return MutationDescriptor{Query: query}
}

// QueryDescriptor configures a query action: a query run on demand rather than on attach.
type QueryDescriptor struct {
	Query string
}

// SubscriptionDescriptor configures a subscription.
type SubscriptionDescriptor struct {
	Query string

	// Optional; without it the subscription is established once on attach and never renewed.
	Variables VariablesBuilder

	// Optional; without it the raw payload is stored.
	Transform SubscriptionTransform
}

// Options is the descriptor set of a Controller. Every field is optional.
type Options struct {
	// Query to be run on attach and whenever the variables built by Variables change
	Query string

	// Variables builds the variables for Query.
	Variables VariablesBuilder

	// Mutations by the name of the rendered Action
	Mutations map[string]MutationDescriptor

	// Query actions by the name of the rendered Action
	Queries map[string]QueryDescriptor

	// Subscriptions by the name of the field in result state
	Subscriptions map[string]SubscriptionDescriptor
}

// clone copies the descriptor maps so that later changes made by the caller are not observed.
func (options *Options) clone() *Options {
	return &Options{
		Query:         options.Query,
		Variables:     options.Variables,
		Mutations:     maps.Clone(options.Mutations),
		Queries:       maps.Clone(options.Queries),
		Subscriptions: maps.Clone(options.Subscriptions),
	}
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
