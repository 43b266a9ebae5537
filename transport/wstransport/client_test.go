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

package wstransport_test

import (
	"context"
	"errors"
	"time"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/internal/testutil"
	"github.com/botobag/gqlbind/transport/wstransport"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var (
		server *scriptedServer
		client *wstransport.Client
	)

	dial := func(config wstransport.Config) (*wstransport.Client, error) {
		config.Endpoint = server.Endpoint()
		return wstransport.Dial(context.Background(), config)
	}

	connect := func() *serverConn {
		var err error
		client, err = dial(wstransport.Config{})
		Expect(err).ShouldNot(HaveOccurred())
		return server.Accept()
	}

	AfterEach(func() {
		if client != nil {
			client.Close()
			client = nil
		}
		if server != nil {
			server.Close()
			server = nil
		}
	})

	Describe("Dial", func() {
		It("validates config", func() {
			_, err := wstransport.Dial(context.Background(), wstransport.Config{})
			Expect(err).Should(MatchError(ContainSubstring("endpoint must be specified")))

			_, err = wstransport.Dial(context.Background(), wstransport.Config{Endpoint: "http://localhost"})
			Expect(err).Should(MatchError(ContainSubstring(`unsupported scheme "http"`)))
		})

		It("sends headers and init payload", func() {
			server = newScriptedServer(serverOptions{})

			var err error
			client, err = dial(wstransport.Config{
				Headers:     map[string]string{"Authorization": "Bearer token"},
				InitPayload: map[string]interface{}{"token": "secret"},
			})
			Expect(err).ShouldNot(HaveOccurred())

			sc := server.Accept()
			Expect(sc.header.Get("Authorization")).Should(Equal("Bearer token"))
			Expect(sc.init.Type).Should(Equal(wstransport.MessageConnectionInit))
			Expect(string(sc.init.Payload)).Should(MatchJSON(`{"token": "secret"}`))
		})

		It("fails without the subprotocol", func() {
			server = newScriptedServer(serverOptions{subprotocols: []string{"graphql-ws"}})

			_, err := dial(wstransport.Config{})
			var protocolErr *wstransport.ProtocolError
			Expect(errors.As(err, &protocolErr)).Should(BeTrue())
			Expect(err.Error()).Should(ContainSubstring("did not accept subprotocol"))
		})

		It("fails when the server replies something else than connection_ack", func() {
			reply := wstransport.MessageNext
			server = newScriptedServer(serverOptions{initReply: &reply})

			_, err := dial(wstransport.Config{})
			Expect(err).Should(MatchError(ContainSubstring(`expected "connection_ack" but received "next"`)))
		})

		It("fails when connection_ack does not arrive in time", func() {
			reply := wstransport.MessageType("")
			server = newScriptedServer(serverOptions{initReply: &reply})

			_, err := dial(wstransport.Config{AckTimeout: 100 * time.Millisecond})
			var protocolErr *wstransport.ProtocolError
			Expect(errors.As(err, &protocolErr)).Should(BeTrue())
			Expect(protocolErr.Message).Should(Equal("connection_ack not received"))
		})
	})

	Describe("single-result operations", func() {
		BeforeEach(func() {
			server = newScriptedServer(serverOptions{})
		})

		It("returns the first result", func() {
			sc := connect()

			type outcome struct {
				response *binding.Response
				err      error
			}
			done := make(chan outcome, 1)
			go func() {
				response, err := client.Query(context.Background(), "query($id: ID!) { user(id: $id) { name } }",
					binding.Variables{"id": "u1"})
				done <- outcome{response, err}
			}()

			id, payload := sc.subscribePayload()
			Expect(payload.Query).Should(Equal("query($id: ID!) { user(id: $id) { name } }"))
			Expect(payload.Variables).Should(Equal(binding.Variables{"id": "u1"}))

			sc.write(id, wstransport.MessageNext, map[string]interface{}{
				"data": map[string]interface{}{"user": map[string]interface{}{"name": "Ada"}},
			})
			sc.write(id, wstransport.MessageComplete, nil)

			var result outcome
			Eventually(done).Should(Receive(&result))
			Expect(result.err).ShouldNot(HaveOccurred())
			Expect(result.response.Data).Should(Equal(map[string]interface{}{
				"user": map[string]interface{}{"name": "Ada"},
			}))
		})

		It("returns the errors of a rejected operation", func() {
			sc := connect()

			done := make(chan *binding.Response, 1)
			go func() {
				defer GinkgoRecover()
				response, err := client.Mutation(context.Background(), "mutation { nope }", nil)
				Expect(err).ShouldNot(HaveOccurred())
				done <- response
			}()

			id, _ := sc.subscribePayload()
			sc.write(id, wstransport.MessageError, []interface{}{
				map[string]interface{}{
					"message":   `Cannot query field "nope" on type "Mutation".`,
					"locations": []interface{}{map[string]interface{}{"line": 1, "column": 12}},
				},
			})

			var response *binding.Response
			Eventually(done).Should(Receive(&response))
			Expect(response.Errors).Should(ConsistOf(testutil.MatchResponseError(
				testutil.MessageContainSubstring(`Cannot query field "nope"`),
				testutil.LocationEqual(binding.ErrorLocation{Line: 1, Column: 12}),
			)))
		})

		It("completes the operation when the context is canceled", func() {
			sc := connect()

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				_, err := client.Query(ctx, "{ slow }", nil)
				done <- err
			}()

			id, _ := sc.subscribePayload()
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))

			complete := sc.expect(wstransport.MessageComplete)
			Expect(complete.ID).Should(Equal(id))
		})

		It("fails pending operations when the server closes the connection", func() {
			sc := connect()

			done := make(chan error, 1)
			go func() {
				_, err := client.Query(context.Background(), "{ a }", nil)
				done <- err
			}()

			sc.subscribePayload()
			sc.closeWith(wstransport.CloseForbidden, "Forbidden")

			var err error
			Eventually(done).Should(Receive(&err))
			var protocolErr *wstransport.ProtocolError
			Expect(errors.As(err, &protocolErr)).Should(BeTrue())
			Expect(protocolErr.CloseCode).Should(Equal(wstransport.CloseForbidden))
			Eventually(client.Done()).Should(BeClosed())

			_, err = client.Query(context.Background(), "{ a }", nil)
			Expect(errors.As(err, &protocolErr)).Should(BeTrue())
		})

		It("rejects operations after Close", func() {
			connect()
			Expect(client.Close()).Should(Succeed())

			_, err := client.Query(context.Background(), "{ a }", nil)
			Expect(err).Should(Equal(wstransport.ErrClosed))
		})
	})

	Describe("subscriptions", func() {
		BeforeEach(func() {
			server = newScriptedServer(serverOptions{})
		})

		It("forwards results until unsubscribed", func() {
			sc := connect()

			events := make(chan binding.SubscriptionEvent, 4)
			handle, err := client.Subscribe(context.Background(), "subscription { ticks }", nil, events)
			Expect(err).ShouldNot(HaveOccurred())

			id, payload := sc.subscribePayload()
			Expect(handle).Should(Equal(id))
			Expect(payload.Query).Should(Equal("subscription { ticks }"))

			sc.write(id, wstransport.MessageNext, map[string]interface{}{
				"data": map[string]interface{}{"ticks": 1},
			})
			var event binding.SubscriptionEvent
			Eventually(events).Should(Receive(&event))
			Expect(event.Err).ShouldNot(HaveOccurred())
			Expect(event.Data).Should(testutil.SerializeToJSONAs(map[string]interface{}{"ticks": 1}))

			Expect(client.Unsubscribe(handle)).Should(Succeed())
			Expect(sc.expect(wstransport.MessageComplete).ID).Should(Equal(id))

			// Results racing with the complete message are dropped.
			sc.write(id, wstransport.MessageNext, map[string]interface{}{
				"data": map[string]interface{}{"ticks": 2},
			})
			Consistently(events).ShouldNot(Receive())
		})

		It("forwards errors as events", func() {
			sc := connect()

			events := make(chan binding.SubscriptionEvent, 4)
			_, err := client.Subscribe(context.Background(), "subscription { nope }", nil, events)
			Expect(err).ShouldNot(HaveOccurred())

			id, _ := sc.subscribePayload()
			sc.write(id, wstransport.MessageError, []interface{}{
				map[string]interface{}{"message": "unknown field"},
			})

			var event binding.SubscriptionEvent
			Eventually(events).Should(Receive(&event))
			var operationErr *wstransport.OperationError
			Expect(errors.As(event.Err, &operationErr)).Should(BeTrue())
			Expect(operationErr.ID).Should(Equal(id))
			Expect(event.Err.Error()).Should(ContainSubstring("unknown field"))
		})

		It("does not send complete for a subscription completed by the server", func() {
			sc := connect()

			events := make(chan binding.SubscriptionEvent, 4)
			handle, err := client.Subscribe(context.Background(), "subscription { ticks }", nil, events)
			Expect(err).ShouldNot(HaveOccurred())

			id, _ := sc.subscribePayload()
			sc.write(id, wstransport.MessageComplete, nil)

			// A ping/pong round trip makes sure the complete message has been processed.
			sc.write("", wstransport.MessagePing, nil)
			sc.expect(wstransport.MessagePong)

			Expect(client.Unsubscribe(handle)).Should(Succeed())

			sc.write("", wstransport.MessagePing, map[string]interface{}{"n": 2})
			pong := sc.expect(wstransport.MessagePong)
			Expect(string(pong.Payload)).Should(MatchJSON(`{"n": 2}`))
		})

		It("rejects foreign handles", func() {
			connect()
			Expect(client.Unsubscribe(42)).Should(Equal(wstransport.ErrUnknownHandle))
		})

		It("feeds a binding controller", func() {
			sc := connect()

			renders := make(chan binding.Props, 8)
			controller, err := binding.New(client, binding.Options{
				Subscriptions: map[string]binding.SubscriptionDescriptor{
					"frames": {
						Query: "subscription { frame }",
						Transform: func(props binding.Props, data interface{}) interface{} {
							return data.(map[string]interface{})["frame"]
						},
					},
				},
			}, binding.RendererFunc(func(props binding.Props) {
				renders <- props
			}))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(controller.Attach(context.Background(), nil)).Should(Succeed())

			id, _ := sc.subscribePayload()
			sc.write(id, wstransport.MessageNext, map[string]interface{}{
				"data": map[string]interface{}{"frame": map[string]interface{}{"data": "Frame 1"}},
			})

			Eventually(func() interface{} {
				state := controller.State()
				value, _ := state.Get("frames")
				return value
			}).Should(Equal(map[string]interface{}{"data": "Frame 1"}))

			Expect(controller.Detach()).Should(Succeed())
			Expect(sc.expect(wstransport.MessageComplete).ID).Should(Equal(id))
		})
	})
})
