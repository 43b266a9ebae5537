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
	"github.com/golang/glog"
)

// subscription records one subscription installed by a Controller.
type subscription struct {
	name       string
	descriptor SubscriptionDescriptor

	// Channel given to Subscriber.Subscribe
	events chan SubscriptionEvent

	// Handle returned by Subscriber.Subscribe; nil until it returns. Guarded by Controller.mutex.
	handle SubscriptionHandle

	// Set (under Controller.mutex) once the subscription is replaced or the controller detaches;
	// Events received afterwards are dropped.
	retired bool

	// Closed to stop the pump; stopped is closed when the pump exits.
	stop    chan struct{}
	stopped chan struct{}
}

// subscribe installs the named subscription with variables built from props. The pump reading the
// events channel is running before the client is called.
func (c *Controller) subscribe(name string, props Props) {
	if c.subscriber == nil {
		return
	}

	descriptor := c.options.Subscriptions[name]
	variables := buildVariables(descriptor.Variables, props)

	sub := &subscription{
		name:       name,
		descriptor: descriptor,
		events:     make(chan SubscriptionEvent),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	mutex := &c.mutex
	mutex.Lock()
	if c.lifecycle != lifecycleAttached {
		mutex.Unlock()
		return
	}
	c.subscriptions[name] = sub
	ctx := c.ctx
	mutex.Unlock()

	go c.pump(sub)

	handle, err := c.subscriber.Subscribe(ctx, descriptor.Query, variables, sub.events)
	if err != nil {
		glog.Errorf("[binding][%s] failed to subscribe %s: %s", c.config.name, name, err)

		mutex.Lock()
		if c.subscriptions[name] == sub {
			delete(c.subscriptions, name)
		}
		sub.retired = true
		mutex.Unlock()

		close(sub.stop)
		<-sub.stopped
		return
	}

	mutex.Lock()
	sub.handle = handle
	mutex.Unlock()

	c.config.metrics.subscribed(c.config.name)
	glog.V(2).Infof("[binding][%s] subscribed %s", c.config.name, name)
}

// retire removes the named subscription (if any) and tears it down.
func (c *Controller) retire(name string) {
	mutex := &c.mutex
	mutex.Lock()
	sub := c.subscriptions[name]
	if sub == nil {
		mutex.Unlock()
		return
	}
	delete(c.subscriptions, name)
	sub.retired = true
	mutex.Unlock()

	c.release(sub)
}

// release unsubscribes a retired subscription and stops its pump. The pump keeps draining (and
// dropping) events until Unsubscribe returns.
func (c *Controller) release(sub *subscription) {
	mutex := &c.mutex
	mutex.Lock()
	handle := sub.handle
	mutex.Unlock()

	if handle != nil {
		if err := c.subscriber.Unsubscribe(handle); err != nil {
			glog.Warningf("[binding][%s] failed to unsubscribe %s: %s", c.config.name, sub.name, err)
		}
		c.config.metrics.unsubscribed(c.config.name)
		glog.V(2).Infof("[binding][%s] unsubscribed %s", c.config.name, sub.name)
	}

	close(sub.stop)
	<-sub.stopped
}

// pump forwards events of sub to push until sub is stopped.
func (c *Controller) pump(sub *subscription) {
	defer close(sub.stopped)

	for {
		select {
		case event := <-sub.events:
			c.push(sub, event)
		case <-sub.stop:
			return
		}
	}
}

// push stores the payload of event under the subscription's name, replacing the previous value.
func (c *Controller) push(sub *subscription, event SubscriptionEvent) {
	if event.Err != nil {
		glog.Warningf("[binding][%s] subscription %s reported an error: %s", c.config.name, sub.name,
			event.Err)
		return
	}

	mutex := &c.mutex
	mutex.Lock()
	if !c.acceptsLocked(sub) {
		mutex.Unlock()
		return
	}

	value := event.Data
	if transform := sub.descriptor.Transform; transform != nil {
		props := c.propsAndStateLocked()
		mutex.Unlock()

		value = transform(props, value)

		mutex.Lock()
		if !c.acceptsLocked(sub) {
			mutex.Unlock()
			return
		}
	}

	c.state.Set(sub.name, value)
	c.version++
	mutex.Unlock()

	c.config.metrics.pushed(c.config.name, sub.name)
	c.render()
}

// acceptsLocked reports whether an event of sub may touch state. It must be called with c.mutex
// held.
func (c *Controller) acceptsLocked(sub *subscription) bool {
	if c.lifecycle != lifecycleAttached {
		c.config.metrics.discard(c.config.name, discardDetached)
		return false
	}
	if sub.retired {
		c.config.metrics.discard(c.config.name, discardRetired)
		return false
	}
	return true
}
