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

package natstransport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/botobag/gqlbind/binding"

	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config specifies the subjects served by the GraphQL service.
type Config struct {
	// Subject of queries
	QuerySubject string

	// Subject of mutations; Defaults to QuerySubject.
	MutationSubject string

	// Subject of subscription requests; Stop messages go to SubscribeSubject + ".stop". Leave empty
	// to disable subscriptions.
	SubscribeSubject string

	// Timeout of a request whose context has no deadline; Defaults to 10s.
	Timeout time.Duration
}

// Validate returns an error if config is unusable.
func (config *Config) Validate() error {
	if len(config.QuerySubject) == 0 {
		return fmt.Errorf("natstransport: query subject must be specified")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("natstransport: timeout must not be negative")
	}
	return nil
}

const defaultTimeout = 10 * time.Second

// StopSuffix is appended to Config.SubscribeSubject to form the subject of stop messages.
const StopSuffix = ".stop"

// Request is the payload of a request message.
type Request struct {
	Query         string            `json:"query"`
	Variables     binding.Variables `json:"variables,omitempty"`
	OperationName string            `json:"operationName,omitempty"`
}

// StopRequest ends the subscription publishing to Inbox.
type StopRequest struct {
	Inbox string `json:"stop"`
}

// ErrSubscriptionsDisabled is returned by Subscribe when Config.SubscribeSubject is empty.
var ErrSubscriptionsDisabled = errors.New("natstransport: no subscribe subject is configured")

// ErrUnknownHandle is returned by Unsubscribe for a handle not created by the Client.
var ErrUnknownHandle = errors.New("natstransport: unknown subscription handle")

// subscription is an inbox subscription created by Subscribe.
type subscription struct {
	inbox  string
	sub    *nats.Subscription
	events chan<- binding.SubscriptionEvent

	stop     chan struct{}
	stopOnce sync.Once

	// sendMutex is held while sending to events; stopped is set under it once nothing may be sent.
	sendMutex sync.Mutex
	stopped   bool
}

// Client sends GraphQL operations over a NATS connection. It is safe for concurrent use. The
// connection is owned by the caller.
type Client struct {
	conn   *nats.Conn
	config Config

	mutex         sync.Mutex
	subscriptions map[string]*subscription
}

var (
	_ binding.Querier    = (*Client)(nil)
	_ binding.Mutator    = (*Client)(nil)
	_ binding.Subscriber = (*Client)(nil)
)

// New creates a Client on conn.
func New(conn *nats.Conn, config Config) (*Client, error) {
	if conn == nil {
		return nil, fmt.Errorf("natstransport: nil connection")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(config.MutationSubject) == 0 {
		config.MutationSubject = config.QuerySubject
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		conn:          conn,
		config:        config,
		subscriptions: map[string]*subscription{},
	}, nil
}

// Query implements binding.Querier.
func (client *Client) Query(
	ctx context.Context,
	query string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Do(ctx, client.config.QuerySubject, &Request{
		Query:     query,
		Variables: variables,
	})
}

// Mutation implements binding.Mutator.
func (client *Client) Mutation(
	ctx context.Context,
	mutation string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Do(ctx, client.config.MutationSubject, &Request{
		Query:     mutation,
		Variables: variables,
	})
}

// Do sends req to subject and decodes the reply.
func (client *Client) Do(ctx context.Context, subject string, req *Request) (*binding.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("natstransport: cannot encode request: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.config.Timeout)
		defer cancel()
	}

	glog.V(2).Infof("[natstransport] request %s (%d bytes)", subject, len(data))

	msg, err := client.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("natstransport: request to %s failed: %w", subject, err)
	}

	response, err := decodeResponse(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("natstransport: cannot decode reply from %s: %w", subject, err)
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

// Subscribe implements binding.Subscriber. The returned handle is the inbox subject.
func (client *Client) Subscribe(
	ctx context.Context,
	query string,
	variables binding.Variables,
	events chan<- binding.SubscriptionEvent) (binding.SubscriptionHandle, error) {

	if len(client.config.SubscribeSubject) == 0 {
		return nil, ErrSubscriptionsDisabled
	}

	data, err := json.Marshal(&Request{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("natstransport: cannot encode request: %w", err)
	}

	s := &subscription{
		inbox:  client.conn.NewRespInbox(),
		events: events,
		stop:   make(chan struct{}),
	}

	s.sub, err = client.conn.Subscribe(s.inbox, s.handle)
	if err != nil {
		return nil, fmt.Errorf("natstransport: cannot subscribe to inbox: %w", err)
	}

	client.mutex.Lock()
	client.subscriptions[s.inbox] = s
	client.mutex.Unlock()

	if err := client.conn.PublishRequest(client.config.SubscribeSubject, s.inbox, data); err != nil {
		client.drop(s)
		return nil, fmt.Errorf("natstransport: cannot publish subscription request: %w", err)
	}

	glog.V(2).Infof("[natstransport] subscribed %s", s.inbox)
	return s.inbox, nil
}

// Unsubscribe implements binding.Subscriber. It stops listening on the inbox and asks the server to
// stop publishing.
func (client *Client) Unsubscribe(handle binding.SubscriptionHandle) error {
	inbox, ok := handle.(string)
	if !ok {
		return ErrUnknownHandle
	}

	client.mutex.Lock()
	s := client.subscriptions[inbox]
	client.mutex.Unlock()
	if s == nil {
		return ErrUnknownHandle
	}

	client.drop(s)

	data, err := json.Marshal(&StopRequest{Inbox: inbox})
	if err != nil {
		return err
	}
	if err := client.conn.Publish(client.config.SubscribeSubject+StopSuffix, data); err != nil {
		return fmt.Errorf("natstransport: cannot publish stop request: %w", err)
	}

	glog.V(2).Infof("[natstransport] unsubscribed %s", inbox)
	return nil
}

// drop forgets s and guarantees no further send to its events channel.
func (client *Client) drop(s *subscription) {
	client.mutex.Lock()
	delete(client.subscriptions, s.inbox)
	client.mutex.Unlock()

	if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		glog.Warningf("[natstransport] cannot unsubscribe %s: %s", s.inbox, err)
	}

	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.sendMutex.Lock()
	s.stopped = true
	s.sendMutex.Unlock()
}

// handle forwards an inbox message.
func (s *subscription) handle(msg *nats.Msg) {
	var event binding.SubscriptionEvent

	response, err := decodeResponse(msg.Data)
	switch {
	case err != nil:
		event.Err = fmt.Errorf("natstransport: cannot decode result on %s: %w", s.inbox, err)
	case len(response.Errors) > 0 && response.Data == nil:
		event.Err = &ResponseErrors{Errors: response.Errors}
	default:
		event.Data = response.Data
	}

	s.sendMutex.Lock()
	defer s.sendMutex.Unlock()

	if s.stopped {
		return
	}

	select {
	case s.events <- event:
	case <-s.stop:
	}
}

// ResponseErrors is the error of a subscription result carrying errors without data.
type ResponseErrors struct {
	Errors []*binding.ResponseError
}

// Error implements Go's error interface.
func (err *ResponseErrors) Error() string {
	if len(err.Errors) == 1 {
		return "natstransport: " + err.Errors[0].Message
	}
	return fmt.Sprintf("natstransport: %s (and %d more errors)", err.Errors[0].Message, len(err.Errors)-1)
}
