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

package cli

import (
	"context"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/concurrent"
	"github.com/botobag/gqlbind/config"

	"github.com/golang/glog"
)

// session is a connected client plus the executor running its calls.
type session struct {
	file   *config.File
	client binding.Client
	runner *concurrent.PoolExecutor

	release func()
}

// openSession loads the binding file at path and connects to its transport.
func openSession(ctx context.Context, path string) (*session, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot load binding file", err)
	}

	s := &session{
		file: file,
	}

	if runnerConfig := file.PoolExecutorConfig(); runnerConfig != nil {
		s.runner, err = concurrent.NewPoolExecutor(*runnerConfig)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot create runner", err)
		}
	}

	s.client, s.release, err = connect(ctx, &file.Transport)
	if err != nil {
		s.shutdownRunner()
		return nil, WrapExitError(ExitFailure, "cannot connect", err)
	}

	return s, nil
}

// bind creates a controller for the binding file.
func (s *session) bind(renderer binding.Renderer, opts ...binding.Option) (*binding.Controller, error) {
	opts = append([]binding.Option{binding.WithName(s.file.ControllerName())}, opts...)
	if s.runner != nil {
		opts = append(opts, binding.WithRunner(s.runner))
	}

	controller, err := binding.New(s.client, s.file.BindingOptions(), renderer, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot bind", err)
	}
	return controller, nil
}

// Close releases the client and waits for in-flight calls.
func (s *session) Close() {
	s.release()
	s.shutdownRunner()
}

func (s *session) shutdownRunner() {
	if s.runner == nil {
		return
	}
	terminated, err := s.runner.Shutdown()
	if err != nil {
		glog.Warningf("cannot shut down runner: %s", err)
		return
	}
	<-terminated
}
