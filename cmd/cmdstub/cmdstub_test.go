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

package cmdstub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdstub"
)

func TestNewCommandsCoversEveryOutOfScopeSubcommand(t *testing.T) {
	cmds := cmdstub.NewCommands()
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Use)
	}
	assert.ElementsMatch(t, []string{"init", "info", "dist", "distpkg", "build"}, names)
}

func TestStubCommandReturnsNotImplementedError(t *testing.T) {
	cmds := cmdstub.NewCommands()
	require.NotEmpty(t, cmds)
	for _, c := range cmds {
		err := c.RunE(c, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not implemented")
	}
}
