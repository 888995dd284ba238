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

// Package cmd assembles the CLI's subcommands into the flat command list
// main.go registers on the root command.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdfetch"
	"github.com/cppp-project/rubisco-sub001/cmd/cmdrun"
	"github.com/cppp-project/rubisco-sub001/cmd/cmdstub"
)

// GetCommands returns every subcommand the root command registers.
func GetCommands(ctx context.Context) []*cobra.Command {
	cmds := []*cobra.Command{
		cmdfetch.NewCommand(ctx),
		cmdrun.NewCommand(ctx),
	}
	cmds = append(cmds, cmdstub.NewCommands()...)
	return cmds
}
