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
)

// Variables carries the variable values of one GraphQL operation.
type Variables map[string]interface{}

// Client is the transport that performs GraphQL operations for a Controller. It can be any value
// implementing one or more of the capability interfaces Querier, Mutator and Subscriber. A
// Controller checks at construction that the capabilities required by its Options are present.
type Client interface{}

// Querier performs queries. It is required when Options.Query or Options.Queries is configured.
type Querier interface {
	Query(ctx context.Context, query string, variables Variables) (*Response, error)
}

// Mutator performs mutations. It is required when Options.Mutations is configured.
type Mutator interface {
	Mutation(ctx context.Context, mutation string, variables Variables) (*Response, error)
}

// SubscriptionHandle is an opaque value returned by Subscriber.Subscribe which identifies a live
// subscription.
type SubscriptionHandle interface{}

// SubscriptionEvent is delivered by a Subscriber every time a subscribed stream emits. Data holds
// the raw payload as received from the server.
type SubscriptionEvent struct {
	Data interface{}
	Err  error
}

// Subscriber manages subscriptions. It is optional: without it, subscription descriptors are
// ignored.
type Subscriber interface {
	// Subscribe starts a subscription and sends its events to the given channel until Unsubscribe is
	// called with the returned handle. Events may be sent before Subscribe returns.
	Subscribe(
		ctx context.Context,
		query string,
		variables Variables,
		events chan<- SubscriptionEvent) (SubscriptionHandle, error)

	// Unsubscribe stops the subscription. Once it returns, nothing may be sent to the events channel
	// given to the corresponding Subscribe.
	Unsubscribe(handle SubscriptionHandle) error
}

// ErrorLocation contains a line number and a column number to point out the beginning of an
// associated syntax element.
type ErrorLocation struct {
	Line   uint `json:"line"`
	Column uint `json:"column"`
}

// ResponseError is an entry in the "errors" list of a GraphQL response.
type ResponseError struct {
	Message    string                 `json:"message"`
	Locations  []ErrorLocation        `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Error implements Go's error interface.
func (err *ResponseError) Error() string {
	return err.Message
}

// Response is the result of a query or a mutation.
type Response struct {
	Data   map[string]interface{} `json:"data"`
	Errors []*ResponseError       `json:"errors,omitempty"`
}

// Result is the flat object an Action resolves to: the fields of Response.Data plus an "errors"
// entry when the response carries errors.
type Result map[string]interface{}

// ErrorsKey is the key in Result under which Response.Errors are surfaced.
const ErrorsKey = "errors"

// UnwrapResponse flattens response into a Result. A nil response gives an empty Result.
func UnwrapResponse(response *Response) Result {
	if response == nil {
		return Result{}
	}

	result := make(Result, len(response.Data)+1)
	for key, value := range response.Data {
		result[key] = value
	}
	if len(response.Errors) > 0 {
		result[ErrorsKey] = response.Errors
	}
	return result
}
