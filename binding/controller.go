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

import (
	"context"
	"sync"

	"github.com/botobag/gqlbind/concurrent"
	"github.com/botobag/gqlbind/concurrent/future"

	"github.com/golang/glog"
)

// Option configures a Controller.
type Option func(config *controllerConfig)

type controllerConfig struct {
	name    string
	runner  concurrent.Executor
	metrics *Metrics
}

// WithName names the Controller in log lines and metric labels.
func WithName(name string) Option {
	return func(config *controllerConfig) {
		config.name = name
	}
}

// WithRunner sets the executor that runs client calls. By default every call runs on its own
// goroutine.
func WithRunner(runner concurrent.Executor) Option {
	return func(config *controllerConfig) {
		config.runner = runner
	}
}

// WithMetrics makes the Controller report to m.
func WithMetrics(m *Metrics) Option {
	return func(config *controllerConfig) {
		config.metrics = m
	}
}

// lifecycleState is the position of a Controller in its attach/detach lifecycle.
type lifecycleState int

// Enumeration of lifecycleState
const (
	lifecycleCreated lifecycleState = iota
	lifecycleAttached
	lifecycleDetached
)

// Controller binds the descriptors in Options to one component. See package documentation.
type Controller struct {
	config   controllerConfig
	options  *Options
	renderer Renderer

	// Capabilities of the client; querier and mutator are non-nil when options need them.
	querier    Querier
	mutator    Mutator
	subscriber Subscriber

	// Actions rendered for mutations and query actions; Built once in New.
	actions map[string]Action

	// Lock that serializes Attach, Update and Detach
	lifecycleMutex sync.Mutex

	// Lock that guards the fields below
	mutex     sync.Mutex
	lifecycle lifecycleState
	ctx       context.Context
	cancel    context.CancelFunc
	props     Props
	state     State

	// Incremented every time props or state changes
	version uint64

	// Sequence number of the latest query dispatch; Only its completion may update state.
	querySeq uint64

	// Handle of the latest query dispatch submitted to the runner. It is canceled when a newer
	// dispatch supersedes it or on Detach, which only has effect while it is still queued.
	queryTask concurrent.TaskHandle

	// Live subscriptions by name
	subscriptions map[string]*subscription

	// Lock that serializes calls to renderer; It guards renderedVersion.
	renderMutex     sync.Mutex
	renderedVersion uint64
}

// New creates a Controller that performs the operations in options with client and renders to
// renderer (which may be nil). It fails with a configuration error if client is nil or if client
// lacks a capability required by options. Query strings are passed to client as they are.
func New(client Client, options Options, renderer Renderer, opts ...Option) (*Controller, error) {
	const op Op = "binding.New"

	if client == nil {
		return nil, newError(op, ErrKindConfiguration, "no GraphQL client is available")
	}

	config := controllerConfig{
		name: "default",
	}
	for _, opt := range opts {
		opt(&config)
	}

	querier, _ := client.(Querier)
	if querier == nil && (len(options.Query) > 0 || len(options.Queries) > 0) {
		return nil, newError(op, ErrKindConfiguration,
			"client %T cannot perform queries (missing Query method)", client)
	}

	mutator, _ := client.(Mutator)
	if mutator == nil && len(options.Mutations) > 0 {
		return nil, newError(op, ErrKindConfiguration,
			"client %T cannot perform mutations (missing Mutation method)", client)
	}

	subscriber, _ := client.(Subscriber)
	if subscriber == nil && len(options.Subscriptions) > 0 {
		glog.Warningf("[binding][%s] client %T does not support subscriptions; %d subscription(s) will "+
			"not be established", config.name, client, len(options.Subscriptions))
	}

	if renderer == nil {
		renderer = nopRenderer{}
	}

	c := &Controller{
		config:        config,
		options:       options.clone(),
		renderer:      renderer,
		querier:       querier,
		mutator:       mutator,
		subscriber:    subscriber,
		ctx:           context.Background(),
		subscriptions: map[string]*subscription{},
	}

	c.actions = make(map[string]Action, len(options.Mutations)+len(options.Queries))
	for name := range c.options.Mutations {
		c.actions[name] = c.mutationAction(name)
	}
	// Query actions win over mutations with the same name.
	for name := range c.options.Queries {
		c.actions[name] = c.queryAction(name)
	}

	return c, nil
}

// Name returns the name given with WithName.
func (c *Controller) Name() string {
	return c.config.name
}

// Attach starts the lifecycle with the initial properties: it dispatches the query (if any),
// establishes every subscription and renders. ctx bounds the client calls made on behalf of the
// lifecycle hooks; it is canceled by Detach.
func (c *Controller) Attach(ctx context.Context, props Props) error {
	lifecycleMutex := &c.lifecycleMutex
	lifecycleMutex.Lock()
	defer lifecycleMutex.Unlock()

	mutex := &c.mutex
	mutex.Lock()
	switch c.lifecycle {
	case lifecycleAttached:
		mutex.Unlock()
		return newError("binding.Controller.Attach", ErrKindLifecycle, "controller is already attached")
	case lifecycleDetached:
		mutex.Unlock()
		return newError("binding.Controller.Attach", ErrKindLifecycle, "controller has been detached")
	}
	c.lifecycle = lifecycleAttached
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.props = copyProps(props)
	c.version++
	props = c.props
	mutex.Unlock()

	if len(c.options.Query) > 0 {
		c.dispatchQuery(buildVariables(c.options.Variables, props))
	}

	for _, name := range sortedKeys(c.options.Subscriptions) {
		c.subscribe(name, props)
	}

	c.render()
	return nil
}

// Update moves the component to new properties. The query is dispatched again if its variables
// changed, and every subscription whose variables changed is replaced.
func (c *Controller) Update(props Props) error {
	lifecycleMutex := &c.lifecycleMutex
	lifecycleMutex.Lock()
	defer lifecycleMutex.Unlock()

	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		return newError("binding.Controller.Update", ErrKindLifecycle, "controller is not attached")
	}
	prevProps := c.props
	c.props = copyProps(props)
	c.version++
	nextProps := c.props
	mutex.Unlock()

	if len(c.options.Query) > 0 && HasChanged(c.options.Variables, prevProps, nextProps) {
		c.dispatchQuery(buildVariables(c.options.Variables, nextProps))
	}

	for _, name := range sortedKeys(c.options.Subscriptions) {
		descriptor := c.options.Subscriptions[name]
		if !HasChanged(descriptor.Variables, prevProps, nextProps) {
			continue
		}
		c.retire(name)
		c.subscribe(name, nextProps)
	}

	c.render()
	return nil
}

// Detach ends the lifecycle: every live subscription is unsubscribed and results arriving later are
// dropped. Calling Detach more than once is a no-op.
func (c *Controller) Detach() error {
	lifecycleMutex := &c.lifecycleMutex
	lifecycleMutex.Lock()
	defer lifecycleMutex.Unlock()

	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle == lifecycleDetached {
		mutex.Unlock()
		return nil
	}
	c.lifecycle = lifecycleDetached

	subscriptions := c.subscriptions
	c.subscriptions = map[string]*subscription{}
	for _, sub := range subscriptions {
		sub.retired = true
	}

	cancel := c.cancel
	queryTask := c.queryTask
	c.queryTask = nil
	mutex.Unlock()

	c.cancelQueuedQuery(queryTask)

	for _, name := range sortedKeys(subscriptions) {
		c.release(subscriptions[name])
	}

	if cancel != nil {
		cancel()
	}

	glog.V(2).Infof("[binding][%s] detached", c.config.name)
	return nil
}

// State returns a snapshot of the result state.
func (c *Controller) State() State {
	mutex := &c.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return c.state.Clone()
}

// Props returns the rendered properties: the incoming properties, then one Action per mutation and
// query action, then the result state under DataProp. Later entries replace earlier ones with the
// same name.
func (c *Controller) Props() Props {
	mutex := &c.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return c.renderedPropsLocked()
}

// Mutate runs the named mutation with variables. It returns a Future resolving to the unwrapped
// response. If the mutation has a transform, its output is merged into the result state before the
// Future resolves. An unknown name resolves to an empty Result without calling the client.
func (c *Controller) Mutate(ctx context.Context, name string, variables Variables) future.Future {
	descriptor, exists := c.options.Mutations[name]
	if !exists {
		return future.Ready(Result{})
	}

	return c.invoke("mutation", descriptor.Transform, func() (*Response, error) {
		return c.mutator.Mutation(ctx, descriptor.Query, variables)
	})
}

// RunQuery runs the named query action with variables. It returns a Future resolving to the
// unwrapped response. An unknown name resolves to an empty Result without calling the client.
func (c *Controller) RunQuery(ctx context.Context, name string, variables Variables) future.Future {
	descriptor, exists := c.options.Queries[name]
	if !exists {
		return future.Ready(Result{})
	}

	return c.invoke("query_action", nil, func() (*Response, error) {
		return c.querier.Query(ctx, descriptor.Query, variables)
	})
}

func (c *Controller) mutationAction(name string) Action {
	return func(ctx context.Context, variables Variables) future.Future {
		return c.Mutate(ctx, name, variables)
	}
}

func (c *Controller) queryAction(name string) Action {
	return func(ctx context.Context, variables Variables) future.Future {
		return c.RunQuery(ctx, name, variables)
	}
}

// invoke runs call on the runner and returns a Future for its unwrapped response.
func (c *Controller) invoke(kind string, transform MutationTransform, call func() (*Response, error)) future.Future {
	completer := future.NewCompleter()
	f := completer.Future()

	c.config.metrics.dispatched(c.config.name, kind)
	_, err := c.submit(func() {
		response, err := call()
		if err != nil {
			completer.SetError(err)
			return
		}

		result := UnwrapResponse(response)
		if transform != nil {
			c.applyTransform(transform, result)
		}
		completer.Complete(result)
	})
	if err != nil {
		return future.Err(err)
	}

	return f
}

// applyTransform merges the output of transform into the result state.
func (c *Controller) applyTransform(transform MutationTransform, result Result) {
	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		return
	}
	props := c.propsAndStateLocked()
	mutex.Unlock()

	update := transform(props, result)

	mutex.Lock()
	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		return
	}
	c.state.Merge(update)
	c.version++
	mutex.Unlock()

	c.render()
}

// dispatchQuery issues the query with variables. Its completion is applied only if no other
// dispatch happens in the meantime.
func (c *Controller) dispatchQuery(variables Variables) {
	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		return
	}
	c.querySeq++
	seq := c.querySeq
	c.state.Loading = true
	c.version++
	ctx := c.ctx
	superseded := c.queryTask
	c.queryTask = nil
	mutex.Unlock()

	c.cancelQueuedQuery(superseded)

	glog.V(2).Infof("[binding][%s] dispatch query #%d", c.config.name, seq)
	c.config.metrics.dispatched(c.config.name, "query")

	query := c.options.Query
	handle, err := c.submit(func() {
		response, err := c.querier.Query(ctx, query, variables)
		c.completeQuery(seq, response, err)
	})
	if err != nil {
		c.completeQuery(seq, nil, err)
		return
	}

	if handle == nil {
		return
	}
	mutex.Lock()
	if c.lifecycle == lifecycleAttached && c.querySeq == seq {
		c.queryTask = handle
		mutex.Unlock()
		return
	}
	mutex.Unlock()
	c.cancelQueuedQuery(handle)
}

// cancelQueuedQuery cancels a query dispatch that has not started yet. A dispatch that is already
// running completes normally and its result is discarded by completeQuery.
func (c *Controller) cancelQueuedQuery(handle concurrent.TaskHandle) {
	if handle == nil {
		return
	}
	if err := handle.Cancel(); err == nil {
		glog.V(2).Infof("[binding][%s] cancel queued query", c.config.name)
		c.config.metrics.discard(c.config.name, discardCanceled)
	}
}

// completeQuery applies the outcome of the query dispatched with seq.
func (c *Controller) completeQuery(seq uint64, response *Response, err error) {
	mutex := &c.mutex
	mutex.Lock()

	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		glog.V(2).Infof("[binding][%s] drop query #%d completed after detach", c.config.name, seq)
		c.config.metrics.discard(c.config.name, discardDetached)
		return
	}

	if seq != c.querySeq {
		latest := c.querySeq
		mutex.Unlock()
		glog.V(2).Infof("[binding][%s] drop query #%d superseded by #%d", c.config.name, seq, latest)
		c.config.metrics.discard(c.config.name, discardSuperseded)
		return
	}

	state := &c.state
	state.Loading = false
	if err != nil {
		state.Loaded = false
		state.Error = err
	} else {
		state.Loaded = true
		state.Error = nil
		if response != nil {
			state.Merge(response.Data)
		}
	}
	c.version++
	mutex.Unlock()

	c.render()
}

// submit runs fn on the runner. The returned handle is nil when no runner is configured.
func (c *Controller) submit(fn func()) (concurrent.TaskHandle, error) {
	runner := c.config.runner
	if runner == nil {
		go fn()
		return nil, nil
	}

	return runner.Submit(concurrent.TaskFunc(func() (interface{}, error) {
		fn()
		return nil, nil
	}))
}

// render hands the rendered properties to the renderer unless nothing changed since the last call.
func (c *Controller) render() {
	renderMutex := &c.renderMutex
	renderMutex.Lock()
	defer renderMutex.Unlock()

	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle != lifecycleAttached || c.version == c.renderedVersion {
		mutex.Unlock()
		return
	}
	version := c.version
	props := c.renderedPropsLocked()
	mutex.Unlock()

	c.renderedVersion = version
	c.renderer.Render(props)
}

// renderedPropsLocked must be called with c.mutex held.
func (c *Controller) renderedPropsLocked() Props {
	props := make(Props, len(c.props)+len(c.actions)+1)
	for key, value := range c.props {
		props[key] = value
	}
	for name, action := range c.actions {
		props[name] = action
	}
	props[DataProp] = c.state.Map()
	return props
}

// propsAndStateLocked returns the properties given to transforms. It must be called with c.mutex
// held.
func (c *Controller) propsAndStateLocked() Props {
	props := make(Props, len(c.props)+1)
	for key, value := range c.props {
		props[key] = value
	}
	props[DataProp] = c.state.Map()
	return props
}

func copyProps(props Props) Props {
	result := make(Props, len(props))
	for key, value := range props {
		result[key] = value
	}
	return result
}
