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

// Package cmdstub builds the domain subcommands registered ahead of
// their backing feature landing (init, info, dist, distpkg, build): the
// command surface documents the full intended tool, and each stub simply
// reports NotImplemented.
package cmdstub

import (
	"github.com/spf13/cobra"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
)

// descriptions pairs each out-of-scope subcommand with its one-line help
// text, so NewCommands stays a flat declarative list.
var descriptions = map[string]string{
	"init":    "Initialize a new project file in a directory",
	"info":    "Show resolved project metadata and subpackage tree",
	"dist":    "Produce a distributable source archive for a project",
	"distpkg": "Produce a distributable package for a project",
	"build":   "Run a project's build workflow hook",
}

// NewCommands returns the thin stub commands in a fixed, documented order.
func NewCommands() []*cobra.Command {
	order := []string{"init", "info", "dist", "distpkg", "build"}
	cmds := make([]*cobra.Command, 0, len(order))
	for _, use := range order {
		use := use
		cmds = append(cmds, &cobra.Command{
			Use:   use,
			Short: descriptions[use],
			RunE: func(cmd *cobra.Command, args []string) error {
				return errors.E(errors.Op("cmdstub."+use), errors.Validation,
					errNotImplemented(use))
			},
		})
	}
	return cmds
}

type notImplementedError string

func (e notImplementedError) Error() string {
	return string(e) + " is not implemented in this build"
}

func errNotImplemented(name string) error {
	return notImplementedError(name)
}
