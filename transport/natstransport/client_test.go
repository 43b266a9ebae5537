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

package natstransport_test

import (
	"context"
	"errors"
	"time"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/internal/testutil"
	"github.com/botobag/gqlbind/transport/natstransport"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var _ = Describe("Client", func() {
	var (
		clientConn  *nats.Conn
		serviceConn *nats.Conn
		client      *natstransport.Client
	)

	config := natstransport.Config{
		QuerySubject:     "graphql.query",
		MutationSubject:  "graphql.mutation",
		SubscribeSubject: "graphql.subscribe",
		Timeout:          2 * time.Second,
	}

	// serve answers requests on subject with reply.
	serve := func(subject string, reply func(req *natstransport.Request) interface{}) {
		_, err := serviceConn.Subscribe(subject, func(msg *nats.Msg) {
			defer GinkgoRecover()

			var req natstransport.Request
			Expect(json.Unmarshal(msg.Data, &req)).Should(Succeed())

			data, err := json.Marshal(reply(&req))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(msg.Respond(data)).Should(Succeed())
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(serviceConn.Flush()).Should(Succeed())
	}

	BeforeEach(func() {
		var err error
		clientConn, err = nats.Connect(natsServer.ClientURL())
		Expect(err).ShouldNot(HaveOccurred())
		serviceConn, err = nats.Connect(natsServer.ClientURL())
		Expect(err).ShouldNot(HaveOccurred())

		client, err = natstransport.New(clientConn, config)
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		clientConn.Close()
		serviceConn.Close()
	})

	It("validates config", func() {
		_, err := natstransport.New(clientConn, natstransport.Config{})
		Expect(err).Should(MatchError(ContainSubstring("query subject must be specified")))

		_, err = natstransport.New(nil, config)
		Expect(err).Should(HaveOccurred())
	})

	It("sends queries and mutations to their subjects", func() {
		serve("graphql.query", func(req *natstransport.Request) interface{} {
			return map[string]interface{}{
				"data": map[string]interface{}{"echo": req.Variables["value"]},
			}
		})
		serve("graphql.mutation", func(req *natstransport.Request) interface{} {
			return map[string]interface{}{
				"data": map[string]interface{}{"mutated": req.Query},
			}
		})

		response, err := client.Query(context.Background(), "query($value: String) { echo(value: $value) }",
			binding.Variables{"value": "hi"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(response.Data).Should(Equal(map[string]interface{}{"echo": "hi"}))

		response, err = client.Mutation(context.Background(), "mutation { save }", nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(response.Data).Should(Equal(map[string]interface{}{"mutated": "mutation { save }"}))
	})

	It("sends mutations to the query subject by default", func() {
		serve("graphql.query", func(req *natstransport.Request) interface{} {
			return map[string]interface{}{"data": map[string]interface{}{"ok": true}}
		})

		c, err := natstransport.New(clientConn, natstransport.Config{QuerySubject: "graphql.query"})
		Expect(err).ShouldNot(HaveOccurred())
		response, err := c.Mutation(context.Background(), "mutation { ok }", nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(response.Data).Should(HaveKeyWithValue("ok", true))
	})

	It("returns GraphQL errors as part of the response", func() {
		serve("graphql.query", func(req *natstransport.Request) interface{} {
			return map[string]interface{}{
				"data": nil,
				"errors": []interface{}{
					map[string]interface{}{"message": "denied", "path": []interface{}{"secret"}},
				},
			}
		})

		response, err := client.Query(context.Background(), "{ secret }", nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(response.Errors).Should(ConsistOf(testutil.MatchResponseError(
			testutil.MessageEqual("denied"),
			testutil.PathEqual("secret"),
		)))
	})

	It("fails without responders", func() {
		_, err := client.Query(context.Background(), "{ a }", nil)
		Expect(errors.Is(err, nats.ErrNoResponders)).Should(BeTrue())
	})

	It("fails on malformed replies", func() {
		_, err := serviceConn.Subscribe("graphql.query", func(msg *nats.Msg) {
			msg.Respond([]byte("not json"))
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(serviceConn.Flush()).Should(Succeed())

		_, err = client.Query(context.Background(), "{ a }", nil)
		Expect(err).Should(MatchError(ContainSubstring("cannot decode reply")))
	})

	Describe("subscriptions", func() {
		var (
			requests chan *nats.Msg
			stops    chan natstransport.StopRequest
		)

		BeforeEach(func() {
			requests = make(chan *nats.Msg, 4)
			stops = make(chan natstransport.StopRequest, 4)

			_, err := serviceConn.ChanSubscribe("graphql.subscribe", requests)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = serviceConn.Subscribe("graphql.subscribe.stop", func(msg *nats.Msg) {
				defer GinkgoRecover()
				var stop natstransport.StopRequest
				Expect(json.Unmarshal(msg.Data, &stop)).Should(Succeed())
				stops <- stop
			})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(serviceConn.Flush()).Should(Succeed())
		})

		publish := func(subject string, value interface{}) {
			data, err := json.Marshal(value)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(serviceConn.Publish(subject, data)).Should(Succeed())
		}

		It("forwards results published to the inbox until unsubscribed", func() {
			events := make(chan binding.SubscriptionEvent, 4)
			handle, err := client.Subscribe(context.Background(), "subscription { ticks }",
				binding.Variables{"room": "a"}, events)
			Expect(err).ShouldNot(HaveOccurred())

			var msg *nats.Msg
			Eventually(requests).Should(Receive(&msg))
			Expect(msg.Reply).Should(Equal(handle))

			var req natstransport.Request
			Expect(json.Unmarshal(msg.Data, &req)).Should(Succeed())
			Expect(req.Query).Should(Equal("subscription { ticks }"))
			Expect(req.Variables).Should(Equal(binding.Variables{"room": "a"}))

			publish(msg.Reply, map[string]interface{}{"data": map[string]interface{}{"ticks": 1}})
			var event binding.SubscriptionEvent
			Eventually(events).Should(Receive(&event))
			Expect(event.Data).Should(testutil.SerializeToJSONAs(map[string]interface{}{"ticks": 1}))

			publish(msg.Reply, map[string]interface{}{"errors": []interface{}{
				map[string]interface{}{"message": "overloaded"},
			}})
			Eventually(events).Should(Receive(&event))
			Expect(event.Err).Should(MatchError(ContainSubstring("overloaded")))

			Expect(client.Unsubscribe(handle)).Should(Succeed())
			Eventually(stops).Should(Receive(Equal(natstransport.StopRequest{Inbox: msg.Reply})))

			publish(msg.Reply, map[string]interface{}{"data": map[string]interface{}{"ticks": 2}})
			Consistently(events).ShouldNot(Receive())

			Expect(client.Unsubscribe(handle)).Should(Equal(natstransport.ErrUnknownHandle))
		})

		It("is disabled without subscribe subject", func() {
			c, err := natstransport.New(clientConn, natstransport.Config{QuerySubject: "graphql.query"})
			Expect(err).ShouldNot(HaveOccurred())
			_, err = c.Subscribe(context.Background(), "subscription { a }", nil,
				make(chan binding.SubscriptionEvent))
			Expect(err).Should(Equal(natstransport.ErrSubscriptionsDisabled))
		})

		It("feeds a binding controller", func() {
			controller, err := binding.New(client, binding.Options{
				Subscriptions: map[string]binding.SubscriptionDescriptor{
					"frames": {
						Query:     "subscription($room: String) { frame(room: $room) }",
						Variables: binding.SelectVariables(map[string]string{"room": "room"}),
					},
				},
			}, nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(controller.Attach(context.Background(), binding.Props{"room": "a"})).Should(Succeed())

			var first *nats.Msg
			Eventually(requests).Should(Receive(&first))
			publish(first.Reply, map[string]interface{}{"data": map[string]interface{}{"data": "Frame 1"}})

			Eventually(func() interface{} {
				value, _ := controller.State().Get("frames")
				return value
			}).Should(Equal(map[string]interface{}{"data": "Frame 1"}))

			// New variables replace the subscription.
			Expect(controller.Update(binding.Props{"room": "b"})).Should(Succeed())
			Eventually(stops).Should(Receive(Equal(natstransport.StopRequest{Inbox: first.Reply})))

			var second *nats.Msg
			Eventually(requests).Should(Receive(&second))
			Expect(second.Reply).ShouldNot(Equal(first.Reply))

			Expect(controller.Detach()).Should(Succeed())
			Eventually(stops).Should(Receive(Equal(natstransport.StopRequest{Inbox: second.Reply})))
		})
	})
})
