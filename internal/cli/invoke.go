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
	"fmt"
	"sort"
	"time"

	"github.com/botobag/gqlbind/binding"
	"github.com/botobag/gqlbind/concurrent/future"
	"github.com/botobag/gqlbind/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	ConfigPath string
	Vars       []string
	Timeout    time.Duration
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <name>",
		Short: "Run a mutation or query action of a binding",
		Long: `Run the named mutation or query action with the given variables and print its result.

An unknown name prints an empty result.

Example:
  gqlbind invoke -c profile.yaml rename --var name=Ada`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "binding file (required)")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable as name=value (repeatable)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "time to wait for the result")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runInvoke(ctx context.Context, opts *InvokeOptions, name string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	variables, err := parseAssignments("var", opts.Vars)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid variables", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	s, err := openSession(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer s.Close()

	controller, err := s.bind(nil)
	if err != nil {
		return err
	}

	var f future.Future
	if _, isQuery := s.file.Queries[name]; isQuery {
		f = controller.RunQuery(ctx, name, variables)
	} else {
		if _, isMutation := s.file.Mutations[name]; !isMutation {
			hintUnknownName(cmd, name, s.file.Mutations, s.file.Queries)
		}
		f = controller.Mutate(ctx, name, variables)
	}

	f = future.Map(f, func(value interface{}) (interface{}, error) {
		result, ok := value.(binding.Result)
		if !ok {
			return nil, fmt.Errorf("unexpected result type %T", value)
		}
		return map[string]interface{}(result), nil
	})

	value, err := future.BlockOn(f)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf(`"%s" failed`, name), err)
	}

	printer := &Printer{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return printer.Print(value.(map[string]interface{}))
}

// hintUnknownName writes a "did you mean" hint for an unknown action name to stderr.
func hintUnknownName[M, Q any](cmd *cobra.Command, name string, mutations map[string]M, queries map[string]Q) {
	names := append(maps.Keys(mutations), maps.Keys(queries)...)
	sort.Strings(names)

	message := fmt.Sprintf(`no mutation or query action is named "%s".`, name)
	if hint := util.DidYouMean(name, names); len(hint) > 0 {
		message += " " + hint
	}
	fmt.Fprintln(cmd.ErrOrStderr(), message)
}
