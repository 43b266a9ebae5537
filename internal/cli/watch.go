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
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/botobag/gqlbind/binding"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	ConfigPath  string
	Props       []string
	Renders     int
	MetricsAddr string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Attach a binding and print its data on every change",
		Long: `Attach a binding with the given properties and print the "data" property of every
render until interrupted.

Example:
  gqlbind watch -c profile.yaml --prop userId=u1 --prop roomId=lobby`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "binding file (required)")
	cmd.Flags().StringArrayVar(&opts.Props, "prop", nil, "property as name=value (repeatable)")
	cmd.Flags().IntVar(&opts.Renders, "renders", 0, "exit after this many renders (0 waits for interrupt)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	props, err := parseAssignments("prop", opts.Props)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid properties", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := binding.NewMetrics(registry)
	if err != nil {
		return err
	}
	if len(opts.MetricsAddr) > 0 {
		stop, err := serveMetrics(opts.MetricsAddr, registry)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot serve metrics", err)
		}
		defer stop()
	}

	s, err := openSession(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		printer = &Printer{Format: opts.Format, Writer: cmd.OutOrStdout()}
		done    = make(chan struct{})
		once    sync.Once
		count   int
	)
	renderer := binding.RendererFunc(func(props binding.Props) {
		data, _ := props[binding.DataProp].(map[string]interface{})
		if err := printer.Print(data); err != nil {
			glog.Errorf("cannot print render: %s", err)
		}

		// Renders are serialized by the controller.
		count++
		if opts.Renders > 0 && count >= opts.Renders {
			once.Do(func() {
				close(done)
			})
		}
	})

	controller, err := s.bind(renderer, binding.WithMetrics(metrics))
	if err != nil {
		return err
	}

	if err := controller.Attach(ctx, props); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-done:
	}

	return controller.Detach()
}

// serveMetrics serves the metrics in registry on addr until stop is called.
func serveMetrics(addr string, registry *prometheus.Registry) (stop func(), err error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("metrics server stopped: %s", err)
		}
	}()
	glog.Infof("serving metrics on http://%s/metrics", listener.Addr())

	return func() {
		server.Close()
	}, nil
}
