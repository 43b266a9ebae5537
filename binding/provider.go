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

// Provider supplies one Client to every Controller it binds.
type Provider struct {
	client Client
	opts   []Option
}

// NewProvider creates a Provider. opts are applied to every Controller created by Bind before the
// options given to Bind.
func NewProvider(client Client, opts ...Option) *Provider {
	return &Provider{
		client: client,
		opts:   opts,
	}
}

// Client returns the client supplied by p.
func (p *Provider) Client() Client {
	return p.client
}

// Bind creates a Controller with the client of p. It fails with a configuration error when p has
// no client.
func (p *Provider) Bind(options Options, renderer Renderer, opts ...Option) (*Controller, error) {
	allOpts := make([]Option, 0, len(p.opts)+len(opts))
	allOpts = append(allOpts, p.opts...)
	allOpts = append(allOpts, opts...)
	return New(p.client, options, renderer, allOpts...)
}
