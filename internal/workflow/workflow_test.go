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

package workflow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/printer/fake"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
)

type recordingStep struct {
	name    string
	order   *[]string
	failAt  bool
	initErr error
}

func (s *recordingStep) Init(params *afm.AFM) error {
	return s.initErr
}

func (s *recordingStep) Run(ctx context.Context) error {
	*s.order = append(*s.order, s.name)
	if s.failAt {
		return fmt.Errorf("boom in %s", s.name)
	}
	return nil
}

func registerRecording(t *testing.T, kind string, order *[]string, failAt bool) {
	t.Helper()
	workflow.Register(kind, func() workflow.Step {
		return &recordingStep{name: kind, order: order, failAt: failAt}
	})
}

func newRawWorkflow(t *testing.T, steps ...map[string]any) *afm.AFM {
	t.Helper()
	raw := afm.New(nil)
	list := make([]any, len(steps))
	for i, s := range steps {
		list[i] = s
	}
	raw.Set("steps", list)
	return raw
}

func TestParseRunsStepsInOrder(t *testing.T) {
	var order []string
	registerRecording(t, "rec-a", &order, false)
	registerRecording(t, "rec-b", &order, false)

	raw := newRawWorkflow(t,
		map[string]any{"kind": "rec-a"},
		map[string]any{"kind": "rec-b"},
	)
	wf, err := workflow.Parse("wf1", raw)
	require.NoError(t, err)
	require.Len(t, wf.Steps, 2)

	engine := workflow.NewEngine()
	ctx := fake.CtxWithNilPrinter()
	err = engine.Run(ctx, wf)
	assert.NoError(t, err)
	assert.Equal(t, []string{"rec-a", "rec-b"}, order)
}

func TestEngineAbortsOnStepFailure(t *testing.T) {
	var order []string
	registerRecording(t, "rec-fail", &order, true)
	registerRecording(t, "rec-after", &order, false)

	raw := newRawWorkflow(t,
		map[string]any{"kind": "rec-fail"},
		map[string]any{"kind": "rec-after"},
	)
	wf, err := workflow.Parse("wf2", raw)
	require.NoError(t, err)

	engine := workflow.NewEngine()
	ctx := fake.CtxWithNilPrinter()
	err = engine.Run(ctx, wf)
	assert.Error(t, err)
	assert.Equal(t, []string{"rec-fail"}, order, "step after the failing one must not run")
}

func TestParseRejectsUnregisteredKind(t *testing.T) {
	raw := newRawWorkflow(t, map[string]any{"kind": "does-not-exist-xyz"})
	_, err := workflow.Parse("wf3", raw)
	assert.Error(t, err)
}

func TestParseRejectsDuplicateStepIDs(t *testing.T) {
	var order []string
	registerRecording(t, "rec-dup", &order, false)

	raw := newRawWorkflow(t,
		map[string]any{"kind": "rec-dup", "id": "same"},
		map[string]any{"kind": "rec-dup", "id": "same"},
	)
	_, err := workflow.Parse("wf4", raw)
	assert.Error(t, err)
}

func TestParseEmptyStepsIsValidNoop(t *testing.T) {
	raw := afm.New(nil)
	wf, err := workflow.Parse("wf5", raw)
	require.NoError(t, err)
	assert.Empty(t, wf.Steps)
}

func TestEngineCurrentEmptyWhenIdle(t *testing.T) {
	engine := workflow.NewEngine()
	assert.Equal(t, "", engine.Current())
}
