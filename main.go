// Copyright 2024 The rubisco-sub001 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cppp-project/rubisco-sub001/cmd"
	"github.com/cppp-project/rubisco-sub001/cmd/cmdutil"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/tmp"
)

var stackOnError bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:   "rubisco-sub001",
		Short: "Fetch and assemble a project's subpackages",
		Long: `rubisco-sub001 resolves a project's mirror list, fetches its
subpackages recursively, and runs the workflow hooks declared in its
project file.`,
	}
	root.PersistentFlags().BoolVar(&stackOnError, "stack-trace", false,
		"print the full wrapped error chain on failure")
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.E(errors.Op("main"), errors.InvalidParam, err)
	})
	root.InitDefaultHelpCmd()
	root.AddCommand(cmd.GetCommands(ctx)...)

	err := root.Execute()
	if stackOnError && err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}

	// Commands release their own temp resources on the happy path; this
	// sweep is the fallback for anything still registered when an
	// interrupt or failure unwound past the scoped releases. It runs
	// before os.Exit because os.Exit skips deferred calls.
	tmp.Default.Sweep()

	os.Exit(cmdutil.ExitCode(classify(ctx, err)))
}

// classify maps a cancelled context into a user-interrupt error so
// cmdutil.ExitCode reports exit code 130 even for commands that return
// ctx.Err() verbatim instead of a wrapped *errors.Error.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.E(errors.Op("main"), errors.UserInterrupt, err)
	}
	return err
}
