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

// Renderer receives the rendered properties of a component every time they change. Render is
// called synchronously and must not call Attach, Update or Detach on the Controller that renders.
type Renderer interface {
	Render(props Props)
}

// The RendererFunc type is an adapter to allow the use of ordinary functions as Renderer.
type RendererFunc func(props Props)

// Render implements Renderer. It calls f(props).
func (f RendererFunc) Render(props Props) {
	f(props)
}

type nopRenderer struct{}

func (nopRenderer) Render(Props) {}
