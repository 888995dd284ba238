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

package cmdutil_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdutil"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
)

func TestExitCodeSuccess(t *testing.T) {
	assert.Equal(t, 0, cmdutil.ExitCode(nil))
}

func TestExitCodeUserInterrupt(t *testing.T) {
	err := errors.E(errors.Op("x"), errors.UserInterrupt, fmt.Errorf("interrupted"))
	assert.Equal(t, 130, cmdutil.ExitCode(err))
}

func TestExitCodeValidationIsOne(t *testing.T) {
	err := errors.E(errors.Op("x"), errors.Validation, fmt.Errorf("bad"))
	assert.Equal(t, 1, cmdutil.ExitCode(err))
}

func TestMirrorRegistryPathsEndsWithWorkspace(t *testing.T) {
	paths := cmdutil.MirrorRegistryPaths("/some/workspace")
	require := assert.New(t)
	require.NotEmpty(paths)
	require.Contains(paths[len(paths)-1], "/some/workspace")
}

func TestExitCodeInvalidParamIsTwo(t *testing.T) {
	err := errors.E(errors.Op("x"), errors.InvalidParam, fmt.Errorf("unknown flag"))
	assert.Equal(t, 2, cmdutil.ExitCode(err))
}
