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

package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/botobag/gqlbind/binding"

	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config specifies the endpoint of a Client.
type Config struct {
	// URL of the GraphQL endpoint
	Endpoint string

	// Extra headers sent with every request (e.g., Authorization)
	Headers map[string]string

	// Timeout of a request including reading the reply; Zero means no timeout. It is ignored when a
	// custom http.Client is given with WithHTTPClient.
	Timeout time.Duration
}

// Validate returns an error if config is unusable.
func (config *Config) Validate() error {
	if len(config.Endpoint) == 0 {
		return fmt.Errorf("httptransport: endpoint must be specified")
	}

	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("httptransport: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf(`httptransport: unsupported scheme "%s" in endpoint`, u.Scheme)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("httptransport: timeout must not be negative")
	}

	return nil
}

// Option configures a Client.
type Option func(client *Client)

// WithHTTPClient makes the Client send requests with httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// MaxResponseSize sets the maximum number of bytes read from a reply. Defaults to 10MB.
func MaxResponseSize(size uint) Option {
	return func(client *Client) {
		client.maxResponseSize = size
	}
}

// Request is the body of a GraphQL request.
type Request struct {
	Query         string            `json:"query"`
	Variables     binding.Variables `json:"variables,omitempty"`
	OperationName string            `json:"operationName,omitempty"`
}

// StatusError is returned when the server replies with a non-2xx status and the body is not a
// GraphQL response.
type StatusError struct {
	StatusCode int
	Status     string

	// Beginning of the reply body
	Body []byte
}

// Error implements Go's error interface.
func (err *StatusError) Error() string {
	if len(err.Body) == 0 {
		return fmt.Sprintf("httptransport: server replied %s", err.Status)
	}
	return fmt.Sprintf("httptransport: server replied %s: %s", err.Status, err.Body)
}

// Maximum number of body bytes kept in a StatusError
const statusErrorBodySize = 512

// Client sends GraphQL operations to an HTTP endpoint. It is safe for concurrent use.
type Client struct {
	config          Config
	httpClient      *http.Client
	maxResponseSize uint
}

var (
	_ binding.Querier = (*Client)(nil)
	_ binding.Mutator = (*Client)(nil)
)

// New creates a Client for the endpoint in config.
func New(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(config.Headers))
	for key, value := range config.Headers {
		headers[key] = value
	}
	config.Headers = headers

	client := &Client{
		config:          config,
		maxResponseSize: 10 << 20, // 10MB
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return client, nil
}

// Endpoint returns the URL the Client posts to.
func (client *Client) Endpoint() string {
	return client.config.Endpoint
}

// Query implements binding.Querier.
func (client *Client) Query(
	ctx context.Context,
	query string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Do(ctx, &Request{
		Query:     query,
		Variables: variables,
	})
}

// Mutation implements binding.Mutator.
func (client *Client) Mutation(
	ctx context.Context,
	mutation string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Do(ctx, &Request{
		Query:     mutation,
		Variables: variables,
	})
}

// Do posts req and decodes the reply. A reply carrying GraphQL errors is not an error: they are
// returned in Response.Errors.
func (client *Client) Do(ctx context.Context, req *Request) (*binding.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("httptransport: cannot encode request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, client.config.Endpoint,
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httptransport: cannot create request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")
	for key, value := range client.config.Headers {
		httpRequest.Header.Set(key, value)
	}

	if glog.V(2) {
		glog.Infof("[httptransport] POST %s (%d bytes)", client.config.Endpoint, len(body))
	}

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("httptransport: request failed: %w", err)
	}
	defer httpResponse.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(httpResponse.Body, int64(client.maxResponseSize+1)))
	if err != nil {
		return nil, fmt.Errorf("httptransport: cannot read reply: %w", err)
	}
	if len(reply) > int(client.maxResponseSize) {
		return nil, fmt.Errorf("httptransport: reply exceeds %d bytes", client.maxResponseSize)
	}

	response, decodeErr := decodeResponse(reply)

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		// GraphQL servers may reply errors (e.g., validation failures) with status 4xx.
		if decodeErr == nil && (response.Data != nil || len(response.Errors) > 0) {
			return response, nil
		}
		return nil, newStatusError(httpResponse, reply)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("httptransport: cannot decode reply: %w", decodeErr)
	}
	return response, nil
}

func decodeResponse(data []byte) (*binding.Response, error) {
	var response binding.Response
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func newStatusError(httpResponse *http.Response, body []byte) *StatusError {
	if len(body) > statusErrorBodySize {
		body = body[:statusErrorBodySize]
	}
	return &StatusError{
		StatusCode: httpResponse.StatusCode,
		Status:     httpResponse.Status,
		Body:       body,
	}
}
