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
	"context"
	"fmt"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/config"
	"github.com/botobag/gqlbind/transport/httptransport"
	"github.com/botobag/gqlbind/transport/natstransport"
	"github.com/botobag/gqlbind/transport/wstransport"

	"github.com/golang/glog"
	"github.com/nats-io/nats.go"
)

// connect creates the client described by transport. The returned function releases it.
func connect(ctx context.Context, transport *config.Transport) (binding.Client, func(), error) {
	switch transport.Kind {
	case config.TransportHTTP:
		client, err := httptransport.New(httptransport.Config{
			Endpoint: transport.Endpoint,
			Headers:  transport.Headers,
			Timeout:  transport.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	case config.TransportWebSocket:
		client, err := wstransport.Dial(ctx, wstransport.Config{
			Endpoint:    transport.Endpoint,
			Headers:     transport.Headers,
			InitPayload: transport.InitPayload,
			AckTimeout:  transport.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				glog.Warningf("cannot close connection to %s: %s", transport.Endpoint, err)
			}
		}, nil

	case config.TransportNATS:
		conn, err := nats.Connect(transport.Endpoint, nats.Name("gqlbind"))
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to %s: %w", transport.Endpoint, err)
		}
		client, err := natstransport.New(conn, natstransport.Config{
			QuerySubject:     transport.Subjects.Query,
			MutationSubject:  transport.Subjects.Mutation,
			SubscribeSubject: transport.Subjects.Subscribe,
			Timeout:          transport.Timeout,
		})
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return client, func() {
			if err := conn.Drain(); err != nil {
				conn.Close()
			}
		}, nil
	}

	return nil, nil, fmt.Errorf(`unknown transport kind "%s"`, transport.Kind)
}
