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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/config"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const profileConfig = `
name: profile
transport:
  kind: http
  endpoint: https://api.example.com/graphql
  headers:
    Authorization: Bearer token
  timeout: 5s
runner:
  max_pool_size: 4
query: "query($id: ID!) { user(id: $id) { name } }"
variables:
  id: userId
mutations:
  rename:
    query: "mutation($name: String!) { rename(name: $name) }"
queries:
  search:
    query: "query($q: String!) { search(q: $q) { id } }"
subscriptions:
  ticks:
    query: "subscription($room: ID!) { ticks(room: $room) }"
    variables:
      room: roomId
`

var _ = Describe("Parse", func() {
	It("parses every section", func() {
		file, err := config.Parse([]byte(profileConfig))
		Expect(err).ShouldNot(HaveOccurred())

		Expect(file.ControllerName()).Should(Equal("profile"))
		Expect(file.Transport).Should(Equal(config.Transport{
			Kind:     config.TransportHTTP,
			Endpoint: "https://api.example.com/graphql",
			Headers:  map[string]string{"Authorization": "Bearer token"},
			Timeout:  5 * time.Second,
		}))
		Expect(file.PoolExecutorConfig().MaxPoolSize).Should(Equal(uint32(4)))
		Expect(file.Variables).Should(Equal(map[string]string{"id": "userId"}))
		Expect(file.Subscriptions["ticks"].Variables).Should(Equal(map[string]string{"room": "roomId"}))
	})

	It("converts descriptors into binding options", func() {
		file, err := config.Parse([]byte(profileConfig))
		Expect(err).ShouldNot(HaveOccurred())

		options := file.BindingOptions()
		Expect(options.Query).Should(Equal("query($id: ID!) { user(id: $id) { name } }"))
		Expect(options.Variables(binding.Props{"userId": "u1", "other": 1})).Should(Equal(
			binding.Variables{"id": "u1"}))

		Expect(options.Mutations).Should(HaveKeyWithValue("rename",
			binding.MutationQuery("mutation($name: String!) { rename(name: $name) }")))
		Expect(options.Queries).Should(HaveKeyWithValue("search",
			binding.QueryDescriptor{Query: "query($q: String!) { search(q: $q) { id } }"}))

		ticks := options.Subscriptions["ticks"]
		Expect(ticks.Query).Should(Equal("subscription($room: ID!) { ticks(room: $room) }"))
		Expect(ticks.Variables(binding.Props{"roomId": "r1"})).Should(Equal(binding.Variables{"room": "r1"}))
		Expect(ticks.Transform).Should(BeNil())
	})

	It("leaves optional sections empty", func() {
		file, err := config.Parse([]byte(`
transport: {kind: ws, endpoint: "ws://localhost:4000/graphql"}
subscriptions:
  ticks: {query: "subscription { ticks }"}
`))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(file.ControllerName()).Should(Equal("default"))
		Expect(file.PoolExecutorConfig()).Should(BeNil())

		options := file.BindingOptions()
		Expect(options.Query).Should(BeEmpty())
		Expect(options.Variables).Should(BeNil())
		Expect(options.Mutations).Should(BeNil())
		Expect(options.Subscriptions["ticks"].Variables).Should(BeNil())
	})

	It("accepts nats transport with subjects", func() {
		file, err := config.Parse([]byte(`
transport:
  kind: nats
  endpoint: nats://localhost:4222
  subjects: {query: graphql.query, subscribe: graphql.subscribe}
query: "{ a }"
`))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(file.Transport.Subjects).Should(Equal(config.Subjects{
			Query:     "graphql.query",
			Subscribe: "graphql.subscribe",
		}))
	})

	Describe("rejects invalid files", func() {
		cases := []struct {
			name    string
			content string
			message string
		}{
			{
				"unknown field",
				"transport: {kind: http, endpoint: 'http://x'}\nquerry: '{ a }'\n",
				"field querry not found",
			},
			{
				"missing transport kind",
				"transport: {endpoint: 'http://x'}\n",
				"kind is required",
			},
			{
				"unknown transport kind",
				"transport: {kind: grpc, endpoint: 'http://x'}\n",
				`unknown kind "grpc"`,
			},
			{
				"missing endpoint",
				"transport: {kind: http}\n",
				"endpoint is required",
			},
			{
				"scheme of another transport",
				"transport: {kind: ws, endpoint: 'http://x'}\n",
				`scheme "http" cannot be used with ws transport`,
			},
			{
				"nats without query subject",
				"transport: {kind: nats, endpoint: 'nats://x:4222'}\n",
				"subjects.query is required",
			},
			{
				"subjects on http",
				"transport: {kind: http, endpoint: 'http://x', subjects: {query: a}}\n",
				"subjects are only used by nats transport",
			},
			{
				"zero pool size",
				"transport: {kind: http, endpoint: 'http://x'}\nrunner: {max_pool_size: 0}\n",
				"MaxPoolSize must be a non-zero value",
			},
			{
				"variables without query",
				"transport: {kind: http, endpoint: 'http://x'}\nvariables: {id: userId}\n",
				"variables are given without query",
			},
			{
				"mutation without query",
				"transport: {kind: http, endpoint: 'http://x'}\nmutations: {save: {}}\n",
				`mutation "save" has an empty query`,
			},
			{
				"bad duration",
				"transport: {kind: http, endpoint: 'http://x', timeout: soon}\n",
				"failed to parse YAML",
			},
		}

		for _, c := range cases {
			c := c
			It("rejects "+c.name, func() {
				_, err := config.Parse([]byte(c.content))
				Expect(err).Should(MatchError(ContainSubstring(c.message)))
			})
		}
	})
})

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "gqlbind-config")
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("reads the file", func() {
		path := filepath.Join(dir, "profile.yaml")
		Expect(os.WriteFile(path, []byte(profileConfig), 0o600)).Should(Succeed())

		file, err := config.Load(path)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(file.Name).Should(Equal("profile"))
	})

	It("names the file in errors", func() {
		path := filepath.Join(dir, "broken.yaml")
		Expect(os.WriteFile(path, []byte("transport: {kind: http}\n"), 0o600)).Should(Succeed())

		_, err := config.Load(path)
		Expect(err).Should(MatchError(ContainSubstring(path)))
	})

	It("fails on missing files", func() {
		_, err := config.Load(filepath.Join(dir, "missing.yaml"))
		Expect(err).Should(MatchError(ContainSubstring("failed to read config file")))
	})
})
