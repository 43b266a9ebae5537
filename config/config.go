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

// Package config loads the YAML description of a binding: the transport to reach the GraphQL
// service, the runner for client calls and the descriptors of binding.Options.
//
//	name: profile
//	transport:
//	  kind: http
//	  endpoint: https://api.example.com/graphql
//	  headers: {Authorization: "Bearer ..."}
//	  timeout: 10s
//	runner: {max_pool_size: 8}
//	query: "query($id: ID!) { user(id: $id) { name } }"
//	variables: {id: userId}
//	mutations:
//	  rename: {query: "mutation($name: String!) { rename(name: $name) }"}
//	queries:
//	  search: {query: "query($q: String!) { search(q: $q) { id } }"}
//	subscriptions:
//	  ticks: {query: "subscription($room: ID!) { ticks(room: $room) }", variables: {room: roomId}}
//
// Variables map a GraphQL variable name to the name of the property supplying its value.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/concurrent"

	"gopkg.in/yaml.v3"
)

// TransportKind selects the transport package.
type TransportKind string

// Enumeration of TransportKind
const (
	TransportHTTP      TransportKind = "http"
	TransportWebSocket TransportKind = "ws"
	TransportNATS      TransportKind = "nats"
)

// Subjects are the NATS subjects of the GraphQL service.
type Subjects struct {
	Query     string `yaml:"query"`
	Mutation  string `yaml:"mutation,omitempty"`
	Subscribe string `yaml:"subscribe,omitempty"`
}

// Transport describes how to reach the GraphQL service.
type Transport struct {
	Kind TransportKind `yaml:"kind"`

	// URL of the service (http(s)://, ws(s):// or nats://)
	Endpoint string `yaml:"endpoint"`

	// Extra HTTP headers (http and ws)
	Headers map[string]string `yaml:"headers,omitempty"`

	// Payload of connection_init (ws)
	InitPayload map[string]interface{} `yaml:"init_payload,omitempty"`

	// Subjects of the service (nats)
	Subjects Subjects `yaml:"subjects,omitempty"`

	// Timeout of a request
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Runner configures the executor that runs client calls.
type Runner struct {
	MaxPoolSize uint32 `yaml:"max_pool_size"`
}

// Operation is a mutation or a query action.
type Operation struct {
	Query string `yaml:"query"`
}

// Subscription is a subscription descriptor.
type Subscription struct {
	Query     string            `yaml:"query"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

// File is the content of a binding description.
type File struct {
	Name          string                  `yaml:"name,omitempty"`
	Transport     Transport               `yaml:"transport"`
	Runner        *Runner                 `yaml:"runner,omitempty"`
	Query         string                  `yaml:"query,omitempty"`
	Variables     map[string]string       `yaml:"variables,omitempty"`
	Mutations     map[string]Operation    `yaml:"mutations,omitempty"`
	Queries       map[string]Operation    `yaml:"queries,omitempty"`
	Subscriptions map[string]Subscription `yaml:"subscriptions,omitempty"`
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse parses data and validates the result. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &file, nil
}

// Validate checks that required fields are present and valid.
func (file *File) Validate() error {
	if err := file.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}

	if file.Runner != nil {
		config := concurrent.PoolExecutorConfig{MaxPoolSize: file.Runner.MaxPoolSize}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("runner: %w", err)
		}
	}

	if len(file.Query) == 0 && len(file.Variables) > 0 {
		return fmt.Errorf("variables are given without query")
	}

	for name, mutation := range file.Mutations {
		if len(mutation.Query) == 0 {
			return fmt.Errorf(`mutation "%s" has an empty query`, name)
		}
	}
	for name, query := range file.Queries {
		if len(query.Query) == 0 {
			return fmt.Errorf(`query action "%s" has an empty query`, name)
		}
	}
	for name, subscription := range file.Subscriptions {
		if len(subscription.Query) == 0 {
			return fmt.Errorf(`subscription "%s" has an empty query`, name)
		}
	}

	for name, subscription := range file.Subscriptions {
		for variable, prop := range subscription.Variables {
			if len(prop) == 0 {
				return fmt.Errorf(`subscription "%s" maps variable "%s" to an empty property name`,
					name, variable)
			}
		}
	}
	for variable, prop := range file.Variables {
		if len(prop) == 0 {
			return fmt.Errorf(`variable "%s" is mapped to an empty property name`, variable)
		}
	}

	return nil
}

// Validate checks the transport settings for its kind.
func (transport *Transport) Validate() error {
	if len(transport.Endpoint) == 0 {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(transport.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	var schemes []string
	switch transport.Kind {
	case TransportHTTP:
		schemes = []string{"http", "https"}
	case TransportWebSocket:
		schemes = []string{"ws", "wss"}
	case TransportNATS:
		schemes = []string{"nats", "tls"}
		if len(transport.Subjects.Query) == 0 {
			return fmt.Errorf("subjects.query is required for nats transport")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf(`unknown kind "%s" (want http, ws or nats)`, transport.Kind)
	}

	found := false
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf(`scheme "%s" cannot be used with %s transport`, u.Scheme, transport.Kind)
	}

	if transport.Kind != TransportNATS && (len(transport.Subjects.Query) > 0 ||
		len(transport.Subjects.Mutation) > 0 || len(transport.Subjects.Subscribe) > 0) {
		return fmt.Errorf("subjects are only used by nats transport")
	}
	if transport.Kind != TransportWebSocket && len(transport.InitPayload) > 0 {
		return fmt.Errorf("init_payload is only used by ws transport")
	}

	if transport.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}

// ControllerName returns Name or "default".
func (file *File) ControllerName() string {
	if len(file.Name) == 0 {
		return "default"
	}
	return file.Name
}

// PoolExecutorConfig returns the configuration of the runner or nil if none is configured.
func (file *File) PoolExecutorConfig() *concurrent.PoolExecutorConfig {
	if file.Runner == nil {
		return nil
	}
	return &concurrent.PoolExecutorConfig{
		MaxPoolSize: file.Runner.MaxPoolSize,
	}
}

// BindingOptions converts the descriptors into binding.Options. Variable mappings become
// binding.SelectVariables builders.
func (file *File) BindingOptions() binding.Options {
	options := binding.Options{
		Query: file.Query,
	}
	if len(file.Variables) > 0 {
		options.Variables = binding.SelectVariables(file.Variables)
	}

	if len(file.Mutations) > 0 {
		options.Mutations = make(map[string]binding.MutationDescriptor, len(file.Mutations))
		for name, mutation := range file.Mutations {
			options.Mutations[name] = binding.MutationQuery(mutation.Query)
		}
	}

	if len(file.Queries) > 0 {
		options.Queries = make(map[string]binding.QueryDescriptor, len(file.Queries))
		for name, query := range file.Queries {
			options.Queries[name] = binding.QueryDescriptor{Query: query.Query}
		}
	}

	if len(file.Subscriptions) > 0 {
		options.Subscriptions = make(map[string]binding.SubscriptionDescriptor, len(file.Subscriptions))
		for name, subscription := range file.Subscriptions {
			descriptor := binding.SubscriptionDescriptor{
				Query: subscription.Query,
			}
			if len(subscription.Variables) > 0 {
				descriptor.Variables = binding.SelectVariables(subscription.Variables)
			}
			options.Subscriptions[name] = descriptor
		}
	}

	return options
}
