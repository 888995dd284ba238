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

package steps_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
	"github.com/cppp-project/rubisco-sub001/internal/workflow/steps"
)

func newStep(t *testing.T, kind string, params map[string]any) workflow.Step {
	t.Helper()
	step, ok := workflow.New(kind)
	require.True(t, ok, "kind %q must be registered", kind)
	raw := afm.New(nil)
	for k, v := range params {
		raw.Set(k, v)
	}
	require.NoError(t, step.Init(raw))
	return step
}

func TestCommandStepCapturesOutput(t *testing.T) {
	step := newStep(t, "command", map[string]any{
		"command": "echo hello-from-test",
		"capture": true,
	})
	err := step.Run(context.Background())
	require.NoError(t, err)
	cmdStep, ok := step.(*steps.CommandStep)
	require.True(t, ok)
	assert.Contains(t, cmdStep.Captured, "hello-from-test")
}

func TestCommandStepMissingCommandFailsInit(t *testing.T) {
	_, ok := workflow.New("command")
	require.True(t, ok)
	step, _ := workflow.New("command")
	err := step.Init(afm.New(nil))
	assert.Error(t, err)
}

func TestCommandStepNonStrictSwallowsFailure(t *testing.T) {
	step := newStep(t, "command", map[string]any{
		"command": "false",
		"strict":  false,
	})
	err := step.Run(context.Background())
	assert.NoError(t, err)
}

func TestCommandStepStrictPropagatesFailure(t *testing.T) {
	step := newStep(t, "command", map[string]any{
		"command": "false",
		"strict":  true,
	})
	err := step.Run(context.Background())
	assert.Error(t, err)
}

func TestCommandStepUnknownBinaryIsCommandNotFound(t *testing.T) {
	step := newStep(t, "command", map[string]any{
		"command": "this-binary-should-not-exist-xyz123",
	})
	err := step.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, errors.CommandNotFound, errors.KindOf(err))
}
