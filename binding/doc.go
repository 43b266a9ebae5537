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

/*
Package binding wires declarative GraphQL descriptors (a query, mutations, query actions and
subscriptions) to the properties of a rendered component.

A Controller owns a result State for one component. It dispatches the configured query when the
component attaches, re-dispatches it whenever the variables derived from the component's properties
change, keeps one live subscription per subscription descriptor (re-subscribing when that
descriptor's variables change) and tears every subscription down on detach. Results arrive
asynchronously; a result that was superseded by a newer dispatch, or that arrives after detach, is
dropped.

Every time the state or the properties change, the Controller hands a flat property bag to its
Renderer: the incoming properties, one Action per mutation and query action, and the result state
under "data".

Change detection is intentionally shallow (see HasChanged): nested maps or slices that are equal
but not identical count as a change.
*/
package binding
