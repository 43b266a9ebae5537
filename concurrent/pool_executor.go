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

package concurrent

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// PoolExecutorConfig contains options to configure a PoolExecutor.
type PoolExecutorConfig struct {
	// The maximum number of tasks running at the same time (required, must be greater than 0)
	MaxPoolSize uint32
}

// Validate verifies config values.
func (config *PoolExecutorConfig) Validate() error {
	if config.MaxPoolSize == 0 {
		return errors.New(`PoolExecutor: MaxPoolSize must be a non-zero value which specifies ` +
			`the maximum number of tasks to be run concurrently by the executor. If you have no idea, ` +
			`try to set the value to uint32(runtime.GOMAXPROCS(-1)).`)
	}
	return nil
}

// poolTaskState tracks a poolTask from submission to completion.
type poolTaskState int

// Enumeration of poolTaskState
const (
	poolTaskQueued poolTaskState = iota
	poolTaskRunning
	poolTaskDone
)

// poolTask implements TaskHandle for Task executed in a PoolExecutor.
type poolTask struct {
	Task

	// Lock that guards state, result and err
	mutex sync.Mutex
	state poolTaskState

	// Return values from calling the Run method in Task
	result interface{}
	err    error

	// Closed when the task finishes (either runs to completion or is cancelled)
	done chan struct{}
}

var _ TaskHandle = (*poolTask)(nil)

func newPoolTask(task Task) *poolTask {
	return &poolTask{
		Task: task,
		done: make(chan struct{}),
	}
}

// start transitions task to running. It returns false if the task was cancelled.
func (task *poolTask) start() bool {
	mutex := &task.mutex
	mutex.Lock()
	defer mutex.Unlock()

	if task.state != poolTaskQueued {
		return false
	}
	task.state = poolTaskRunning
	return true
}

// finish records the result and unblocks the waiters in AwaitResult.
func (task *poolTask) finish(result interface{}, err error) {
	mutex := &task.mutex
	mutex.Lock()
	task.state = poolTaskDone
	task.result = result
	task.err = err
	mutex.Unlock()

	close(task.done)
}

// Cancel implements TaskHandle.
func (task *poolTask) Cancel() error {
	mutex := &task.mutex
	mutex.Lock()

	if task.state != poolTaskQueued {
		mutex.Unlock()
		return ErrTaskStarted
	}

	task.state = poolTaskDone
	task.err = ErrTaskCancelled
	mutex.Unlock()

	close(task.done)
	return nil
}

// AwaitResult implements TaskHandle.
func (task *poolTask) AwaitResult(timeout time.Duration) (interface{}, error) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-task.done:
		case <-timer.C:
			return nil, ErrAwaitTaskResultTimeout
		}
	} else {
		<-task.done
	}

	mutex := &task.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return task.result, task.err
}

// PoolExecutor runs each submitted task on its own goroutine while bounding the number of tasks
// running at the same time with MaxPoolSize. Submit never blocks: a task waits for a free slot on
// its goroutine.
type PoolExecutor struct {
	config PoolExecutorConfig

	// Buffered channel used as semaphore; Its capacity is config.MaxPoolSize.
	slots chan struct{}

	// Lock that guards shutdown, pending and terminations
	mutex sync.Mutex

	// Set after Shutdown was called
	shutdown bool

	// Number of submitted tasks that have not finished yet
	pending int

	// Channels that are used for waiting termination
	terminations []chan<- bool
}

// PoolExecutor implements Executor.
var _ Executor = (*PoolExecutor)(nil)

// NewPoolExecutor creates a PoolExecutor from given config.
func NewPoolExecutor(config PoolExecutorConfig) (*PoolExecutor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PoolExecutor{
		config: config,
		slots:  make(chan struct{}, config.MaxPoolSize),
	}, nil
}

var errRejectTaskDueToShuttingDown = errors.New("unable to execute task because executor is shutting down")

// Submit implements Executor.
func (executor *PoolExecutor) Submit(task Task) (TaskHandle, error) {
	if task == nil {
		return nil, fmt.Errorf("PoolExecutor: cannot submit a nil task")
	}

	mutex := &executor.mutex
	mutex.Lock()
	if executor.shutdown {
		mutex.Unlock()
		return nil, errRejectTaskDueToShuttingDown
	}
	executor.pending++
	mutex.Unlock()

	handle := newPoolTask(task)
	go executor.run(handle)

	return handle, nil
}

// run waits for a free slot and executes task.
func (executor *PoolExecutor) run(task *poolTask) {
	defer executor.taskDone()

	// Acquire a slot.
	select {
	case executor.slots <- struct{}{}:
	case <-task.done:
		// Cancelled while waiting.
		return
	}
	defer func() { <-executor.slots }()

	if !task.start() {
		return
	}

	result, err := task.Run()
	task.finish(result, err)
}

// taskDone decrements the number of pending tasks and fires termination signals if the executor
// has been shut down and drained.
func (executor *PoolExecutor) taskDone() {
	mutex := &executor.mutex
	mutex.Lock()
	executor.pending--
	executor.tryTerminateLocked()
	mutex.Unlock()
}

// tryTerminateLocked must be called with executor.mutex held.
func (executor *PoolExecutor) tryTerminateLocked() {
	if !executor.shutdown || executor.pending > 0 {
		return
	}

	terminations := executor.terminations
	executor.terminations = nil
	for _, termination := range terminations {
		termination <- true
	}
}

// Shutdown implements Executor.
func (executor *PoolExecutor) Shutdown() (terminated <-chan bool, err error) {
	termination := make(chan bool, 1)

	mutex := &executor.mutex
	mutex.Lock()
	executor.shutdown = true
	executor.terminations = append(executor.terminations, termination)
	executor.tryTerminateLocked()
	mutex.Unlock()

	return termination, nil
}
