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

package wstransport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/botobag/gqlbind/binding"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config specifies the endpoint of a Client.
type Config struct {
	// URL of the GraphQL endpoint (ws:// or wss://)
	Endpoint string

	// Extra headers sent with the opening handshake
	Headers map[string]string

	// Payload of the connection_init message (e.g., an auth token); Optional.
	InitPayload map[string]interface{}

	// Time to wait for connection_ack after connection_init; Defaults to 10s.
	AckTimeout time.Duration

	// Deadline of each write; Zero means no deadline.
	WriteTimeout time.Duration
}

// Validate returns an error if config is unusable.
func (config *Config) Validate() error {
	if len(config.Endpoint) == 0 {
		return fmt.Errorf("wstransport: endpoint must be specified")
	}

	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("wstransport: invalid endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf(`wstransport: unsupported scheme "%s" in endpoint`, u.Scheme)
	}

	if config.AckTimeout < 0 || config.WriteTimeout < 0 {
		return fmt.Errorf("wstransport: timeouts must not be negative")
	}

	return nil
}

const defaultAckTimeout = 10 * time.Second

// operation routes the messages of one operation id.
type operation struct {
	id string

	// Destination of a subscription; nil for single-result operations.
	events chan<- binding.SubscriptionEvent

	// Receives the outcome of a single-result operation; Buffered by one.
	result chan operationResult

	// Closed by halt to unblock a pending send to events
	stop     chan struct{}
	stopOnce sync.Once

	// sendMutex is held while sending to events; stopped is set under it once nothing may be sent.
	sendMutex sync.Mutex
	stopped   bool
}

type operationResult struct {
	response *binding.Response
	err      error
}

// Client is a graphql-transport-ws connection. It is safe for concurrent use.
type Client struct {
	config Config
	conn   *websocket.Conn

	// Serializes writes to conn
	writeMutex sync.Mutex

	// Guards the fields below
	mutex      sync.Mutex
	operations map[string]*operation
	closeErr   error

	closeOnce sync.Once
	// Closed when the read loop exits
	done chan struct{}
}

var (
	_ binding.Querier    = (*Client)(nil)
	_ binding.Mutator    = (*Client)(nil)
	_ binding.Subscriber = (*Client)(nil)
)

// Dial connects to the endpoint in config and completes the connection_init/connection_ack
// handshake.
func Dial(ctx context.Context, config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.AckTimeout == 0 {
		config.AckTimeout = defaultAckTimeout
	}

	header := http.Header{}
	for key, value := range config.Headers {
		header.Set(key, value)
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		Subprotocols:     []string{Subprotocol},
	}

	conn, _, err := dialer.DialContext(ctx, config.Endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("wstransport: cannot connect to %s: %w", config.Endpoint, err)
	}

	if conn.Subprotocol() != Subprotocol {
		conn.Close()
		return nil, &ProtocolError{
			Message: fmt.Sprintf(`server did not accept subprotocol "%s"`, Subprotocol),
		}
	}

	client := &Client{
		config:     config,
		conn:       conn,
		operations: map[string]*operation{},
		done:       make(chan struct{}),
	}

	if err := client.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	go client.readLoop()

	glog.V(1).Infof("[wstransport] connected to %s", config.Endpoint)
	return client, nil
}

// init sends connection_init and waits for connection_ack.
func (client *Client) init(ctx context.Context) error {
	var payload interface{}
	if client.config.InitPayload != nil {
		payload = client.config.InitPayload
	}
	if err := client.send("", MessageConnectionInit, payload); err != nil {
		return err
	}

	deadline := time.Now().Add(client.config.AckTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	client.conn.SetReadDeadline(deadline)
	defer client.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return readError("connection_ack not received", err)
		}

		message, err := decodeMessage(data)
		if err != nil {
			return err
		}

		switch message.Type {
		case MessageConnectionAck:
			return nil
		case MessagePing:
			if err := client.send("", MessagePong, nil); err != nil {
				return err
			}
		default:
			return &ProtocolError{
				Message: fmt.Sprintf(`expected "%s" but received "%s"`, MessageConnectionAck, message.Type),
			}
		}
	}
}

// readError converts an error from ReadMessage into a ProtocolError.
func readError(message string, err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return &ProtocolError{
			Message:   message,
			CloseCode: closeErr.Code,
			Err:       err,
		}
	}
	return &ProtocolError{
		Message: message,
		Err:     err,
	}
}

// send writes a message to the connection.
func (client *Client) send(id string, typ MessageType, payload interface{}) error {
	data, err := encodeMessage(id, typ, payload)
	if err != nil {
		return fmt.Errorf("wstransport: cannot encode %s message: %w", typ, err)
	}

	writeMutex := &client.writeMutex
	writeMutex.Lock()
	defer writeMutex.Unlock()

	if client.config.WriteTimeout > 0 {
		client.conn.SetWriteDeadline(time.Now().Add(client.config.WriteTimeout))
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("wstransport: cannot send %s message: %w", typ, err)
	}
	return nil
}

// register adds op to the routing table.
func (client *Client) register(op *operation) error {
	mutex := &client.mutex
	mutex.Lock()
	defer mutex.Unlock()

	if client.closeErr != nil {
		return client.closeErr
	}
	client.operations[op.id] = op
	return nil
}

// unregister removes the operation with id and returns it (nil if it is gone).
func (client *Client) unregister(id string) *operation {
	mutex := &client.mutex
	mutex.Lock()
	defer mutex.Unlock()

	op := client.operations[id]
	delete(client.operations, id)
	return op
}

// Query implements binding.Querier.
func (client *Client) Query(
	ctx context.Context,
	query string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Execute(ctx, &SubscribePayload{
		Query:     query,
		Variables: variables,
	})
}

// Mutation implements binding.Mutator.
func (client *Client) Mutation(
	ctx context.Context,
	mutation string,
	variables binding.Variables) (*binding.Response, error) {
	return client.Execute(ctx, &SubscribePayload{
		Query:     mutation,
		Variables: variables,
	})
}

// Execute runs a single-result operation and returns its first "next" payload. An "error" message
// is returned as a Response with Errors.
func (client *Client) Execute(ctx context.Context, payload *SubscribePayload) (*binding.Response, error) {
	op := &operation{
		id:     uuid.NewString(),
		result: make(chan operationResult, 1),
		stop:   make(chan struct{}),
	}
	if err := client.register(op); err != nil {
		return nil, err
	}

	if err := client.send(op.id, MessageSubscribe, payload); err != nil {
		client.unregister(op.id)
		return nil, err
	}

	select {
	case result := <-op.result:
		return result.response, result.err

	case <-ctx.Done():
		if client.unregister(op.id) != nil {
			// Tell the server we are no longer interested.
			if err := client.send(op.id, MessageComplete, nil); err != nil {
				glog.V(2).Infof("[wstransport] cannot complete operation %s: %s", op.id, err)
			}
		}
		return nil, ctx.Err()
	}
}

// Subscribe implements binding.Subscriber. The returned handle is the operation id.
func (client *Client) Subscribe(
	ctx context.Context,
	query string,
	variables binding.Variables,
	events chan<- binding.SubscriptionEvent) (binding.SubscriptionHandle, error) {

	op := &operation{
		id:     uuid.NewString(),
		events: events,
		stop:   make(chan struct{}),
	}
	if err := client.register(op); err != nil {
		return nil, err
	}

	if err := client.send(op.id, MessageSubscribe, &SubscribePayload{
		Query:     query,
		Variables: variables,
	}); err != nil {
		client.unregister(op.id)
		return nil, err
	}

	glog.V(2).Infof("[wstransport] subscribed %s", op.id)
	return op.id, nil
}

// Unsubscribe implements binding.Subscriber. It sends "complete" unless the server completed the
// subscription already.
func (client *Client) Unsubscribe(handle binding.SubscriptionHandle) error {
	id, ok := handle.(string)
	if !ok {
		return ErrUnknownHandle
	}

	op := client.unregister(id)
	if op == nil {
		// Completed by the server or by Close.
		return nil
	}
	op.halt()

	if err := client.send(id, MessageComplete, nil); err != nil {
		select {
		case <-client.done:
			// The connection is gone and so is the subscription.
			return nil
		default:
		}
		return err
	}

	glog.V(2).Infof("[wstransport] unsubscribed %s", id)
	return nil
}

// halt guarantees no further send to op.events once it returns.
func (op *operation) halt() {
	op.stopOnce.Do(func() {
		close(op.stop)
	})

	op.sendMutex.Lock()
	op.stopped = true
	op.sendMutex.Unlock()
}

// deliver sends event to op.events unless op is halted.
func (op *operation) deliver(event binding.SubscriptionEvent) {
	op.sendMutex.Lock()
	defer op.sendMutex.Unlock()

	if op.stopped {
		return
	}

	select {
	case op.events <- event:
	case <-op.stop:
	}
}

// readLoop dispatches incoming messages until the connection fails or is closed.
func (client *Client) readLoop() {
	var err error
	for {
		var data []byte
		_, data, err = client.conn.ReadMessage()
		if err != nil {
			break
		}

		var message *Message
		message, err = decodeMessage(data)
		if err != nil {
			break
		}

		if err = client.dispatch(message); err != nil {
			break
		}
	}

	client.shutdown(err)
}

func (client *Client) dispatch(message *Message) error {
	switch message.Type {
	case MessagePing:
		var payload interface{}
		if len(message.Payload) > 0 {
			payload = message.Payload
		}
		return client.send("", MessagePong, payload)

	case MessagePong:
		return nil

	case MessageNext:
		var response binding.Response
		if err := json.Unmarshal(message.Payload, &response); err != nil {
			return &ProtocolError{Message: "malformed next payload", Err: err}
		}
		client.next(message.ID, &response)
		return nil

	case MessageError:
		var errs []*binding.ResponseError
		if err := json.Unmarshal(message.Payload, &errs); err != nil {
			return &ProtocolError{Message: "malformed error payload", Err: err}
		}
		client.fail(message.ID, errs)
		return nil

	case MessageComplete:
		client.complete(message.ID)
		return nil
	}

	return &ProtocolError{
		Message: fmt.Sprintf(`unexpected message "%s"`, message.Type),
	}
}

func (client *Client) next(id string, response *binding.Response) {
	mutex := &client.mutex
	mutex.Lock()
	op := client.operations[id]
	if op != nil && op.events == nil {
		// Single-result operation is done with the first result.
		delete(client.operations, id)
	}
	mutex.Unlock()

	switch {
	case op == nil:
		glog.V(2).Infof("[wstransport] drop result of unknown operation %s", id)

	case op.events == nil:
		op.result <- operationResult{response: response}

	case len(response.Errors) > 0 && response.Data == nil:
		op.deliver(binding.SubscriptionEvent{
			Err: &OperationError{ID: id, Errors: response.Errors},
		})

	default:
		op.deliver(binding.SubscriptionEvent{Data: response.Data})
	}
}

func (client *Client) fail(id string, errs []*binding.ResponseError) {
	op := client.unregister(id)
	switch {
	case op == nil:
		glog.V(2).Infof("[wstransport] drop error of unknown operation %s", id)

	case op.events == nil:
		op.result <- operationResult{response: &binding.Response{Errors: errs}}

	default:
		op.deliver(binding.SubscriptionEvent{
			Err: &OperationError{ID: id, Errors: errs},
		})
	}
}

func (client *Client) complete(id string) {
	op := client.unregister(id)
	if op != nil && op.events == nil {
		op.result <- operationResult{
			err: &ProtocolError{Message: fmt.Sprintf("operation %s completed without result", id)},
		}
	}
	glog.V(2).Infof("[wstransport] operation %s completed by server", id)
}

// shutdown fails every pending operation with the error that ended the read loop.
func (client *Client) shutdown(err error) {
	mutex := &client.mutex
	mutex.Lock()
	if client.closeErr == nil {
		client.closeErr = ErrClosed
		if err != nil {
			var protocolErr *ProtocolError
			if !errors.As(err, &protocolErr) {
				err = readError("connection lost", err)
			}
			client.closeErr = err
		}
	}
	closeErr := client.closeErr
	operations := client.operations
	client.operations = map[string]*operation{}
	mutex.Unlock()

	for _, op := range operations {
		if op.events == nil {
			op.result <- operationResult{err: closeErr}
		} else {
			go op.deliver(binding.SubscriptionEvent{Err: closeErr})
		}
	}

	close(client.done)

	if closeErr != ErrClosed {
		glog.Warningf("[wstransport] connection to %s closed: %s", client.config.Endpoint, closeErr)
	}
}

// Done returns a channel that is closed once the connection is gone.
func (client *Client) Done() <-chan struct{} {
	return client.done
}

// Close closes the connection. Pending operations fail with ErrClosed.
func (client *Client) Close() error {
	var err error
	client.closeOnce.Do(func() {
		client.mutex.Lock()
		if client.closeErr == nil {
			client.closeErr = ErrClosed
		}
		client.mutex.Unlock()

		client.writeMutex.Lock()
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		client.writeMutex.Unlock()

		err = client.conn.Close()
		<-client.done
	})
	return err
}
