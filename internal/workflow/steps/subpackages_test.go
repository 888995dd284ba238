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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/printer/fake"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/workflow"
	"github.com/cppp-project/rubisco-sub001/internal/workflow/steps"
)

func TestSubpackagesStepRequiresProjectInContext(t *testing.T) {
	step, ok := workflow.New("subpackages")
	require.True(t, ok)
	require.NoError(t, step.Init(afm.New(nil)))

	err := step.Run(fake.CtxWithNilPrinter())
	assert.Error(t, err)
}

func TestSubpackagesStepFetchesVirtualSubpackages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repo.json"), []byte(`{
		"name": "p", "version": "1.0.0",
		"subpackages": [{"type": "virtual", "path": "S1", "name": "S1"}]
	}`), 0o644))

	ctx := fake.CtxWithNilPrinter()
	pc, err := project.Load(ctx, filepath.Join(dir, "repo.json"), nil)
	require.NoError(t, err)
	ctx = steps.ContextWithProject(ctx, pc)

	step, ok := workflow.New("subpackages")
	require.True(t, ok)
	require.NoError(t, step.Init(afm.New(nil)))

	assert.NoError(t, step.Run(ctx))
}
