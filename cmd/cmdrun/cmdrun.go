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

// Package cmdrun contains the run command: it executes one of a
// project's named workflow hooks, the CLI's direct entry point into the
// workflow engine outside of `fetch`'s internal "subpackages" step.
package cmdrun

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdutil"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/mirror"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
	"github.com/cppp-project/rubisco-sub001/internal/workflow/steps"
)

// NewCommand returns the run cobra command.
func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// NewRunner builds the Runner and its backing cobra.Command.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{ctx: ctx}
	c := &cobra.Command{
		Use:   "run HOOK [DIRECTORY]",
		Short: "Run one of a project's named workflow hooks",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  r.runE,
	}
	r.Command = c
	return r
}

// Runner holds the run command's parsed arguments.
type Runner struct {
	ctx     context.Context
	Command *cobra.Command
}

func (r *Runner) runE(cmd *cobra.Command, args []string) error {
	const op = errors.Op("cmdrun.runE")

	hookName := args[0]
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}

	ctx := printer.WithContext(r.ctx, printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	store := variable.NewStore(cmdutil.Version, os.Args)

	projectPath, err := project.Find(dir)
	if err != nil {
		return errors.E(op, err)
	}
	pc, err := project.Load(ctx, projectPath, store)
	if err != nil {
		return errors.E(op, err)
	}
	if err := pc.CheckToolVersion(cmdutil.Version); err != nil {
		return errors.E(op, err)
	}

	raw, ok := pc.Hooks[hookName]
	if !ok {
		return errors.E(op, errors.Validation, fmt.Errorf("project has no hook named %q", hookName))
	}

	wf, err := workflow.Parse(hookName, raw)
	if err != nil {
		return errors.E(op, err)
	}

	registry, err := mirror.Load(ctx, store, cmdutil.MirrorRegistryPaths(string(pc.Dir))...)
	var resolver *mirror.Resolver
	if err == nil {
		resolver, _ = mirror.NewResolver(registry, cmdutil.MirrorTimeout)
	}

	ctx = steps.ContextWithProject(ctx, pc)
	ctx = steps.ContextWithStore(ctx, store)
	if resolver != nil {
		ctx = steps.ContextWithResolver(ctx, resolver)
	}

	engine := workflow.NewEngine()
	if err := engine.Run(ctx, wf); err != nil {
		return errors.E(op, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "hook %q completed\n", hookName)
	return nil
}
