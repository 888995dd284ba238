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

// Package cmdfetch contains the fetch command: it resolves and fetches a
// project's subpackages recursively.
package cmdfetch

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdutil"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/mirror"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/scheduler"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// NewCommand returns the fetch cobra command.
func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// NewRunner builds the Runner and its backing cobra.Command: the Runner
// holds the flag-bound fields and wires RunE to its own methods.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{ctx: ctx}
	c := &cobra.Command{
		Use:   "fetch [DIRECTORY]",
		Short: "Resolve and fetch a project's subpackages recursively",
		Long: `Resolve and fetch a project's subpackages recursively.

Reads the project file in DIRECTORY (default: current directory),
resolves each subpackage's mirror (unless -M disables the speedtest),
fetches it with the backend matching its type, and recurses into any
subpackage that itself turns out to be a project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.runE,
	}
	r.Command = c
	r.bindFlags(c.Flags())
	return r
}

func (r *Runner) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&r.protocol, "protocol", "http", "mirror protocol to resolve: http|ssh")
	fs.BoolVar(&r.noShallow, "no-shallow", false, "disable shallow git clones")
	fs.BoolVarP(&r.mirrorOn, "mirror", "m", true, "enable the mirror reachability speedtest")
	fs.BoolVarP(&r.mirrorOff, "no-mirror", "M", false, "disable the mirror reachability speedtest")
	fs.BoolVar(&r.strict, "strict", false, "fail instead of skipping already-populated subpackage destinations")
	fs.IntVar(&r.concurrency, "concurrency", 0, "max concurrent fetches (default: number of CPUs)")
	fs.BoolVarP(&r.verbose, "verbose", "v", false, "print the per-subpackage outcome tree after the summary")
}

// Runner holds the fetch command's parsed flags and run state.
type Runner struct {
	ctx     context.Context
	Command *cobra.Command

	protocol    string
	noShallow   bool
	mirrorOn    bool
	mirrorOff   bool
	strict      bool
	concurrency int
	verbose     bool
}

func (r *Runner) runE(cmd *cobra.Command, args []string) error {
	const op = errors.Op("cmdfetch.runE")

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	protocol := mirror.Protocol(r.protocol)
	if protocol != mirror.ProtocolHTTP && protocol != mirror.ProtocolSSH {
		return errors.E(op, errors.InvalidParam, fmt.Errorf("--protocol must be http or ssh, got %q", r.protocol))
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

	useMirror := r.mirrorOn && !r.mirrorOff
	var resolver *mirror.Resolver
	if useMirror {
		registry, err := mirror.Load(ctx, store, cmdutil.MirrorRegistryPaths(string(pc.Dir))...)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: mirror registry unavailable, fetching from origin URLs: %v\n", err)
			useMirror = false
		} else {
			resolver, err = mirror.NewResolver(registry, cmdutil.MirrorTimeout)
			if err != nil {
				return errors.E(op, err)
			}
		}
	}

	sch := &scheduler.Scheduler{
		Config: scheduler.Config{
			Protocol:    protocol,
			Shallow:     !r.noShallow,
			UseMirror:   useMirror,
			Strict:      r.strict,
			Concurrency: r.concurrency,
		},
		Resolver: resolver,
		Store:    store,
	}

	agg, err := sch.Run(ctx, pc)
	if err != nil {
		return errors.E(op, err)
	}

	renderOutcomeTable(cmd, agg)
	if r.verbose {
		fmt.Fprint(cmd.OutOrStdout(), agg.Tree(pc.Name))
	}

	if agg.Failed > 0 {
		return errors.E(op, errors.Subprocess, fmt.Errorf("%d subpackage(s) failed to fetch", agg.Failed))
	}
	return nil
}

func renderOutcomeTable(cmd *cobra.Command, agg *scheduler.Aggregate) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"NAME", "PATH", "OUTCOME", "ERROR"})
	for _, res := range agg.Results {
		errStr := ""
		if res.Err != nil {
			errStr = res.Err.Error()
		}
		t.AppendRow(table.Row{res.Name, res.Path, res.Outcome, errStr})
	}
	t.AppendSeparator()
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "fetched: %d, already-present: %d, duplicates: %d, failed: %d\n",
		agg.Fetched, agg.AlreadyPresent, agg.Duplicates, agg.Failed)
}
