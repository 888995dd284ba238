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

package variable_test

import (
	"testing"

	"github.com/cppp-project/rubisco-sub001/internal/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopTop(t *testing.T) {
	s := variable.New()
	_, err := s.Top("project.name")
	require.Error(t, err)

	s.Push("project.name", "alpha")
	s.Push("project.name", "beta")

	top, err := s.Top("project.name")
	require.NoError(t, err)
	assert.Equal(t, "beta", top)

	popped, err := s.Pop("project.name")
	require.NoError(t, err)
	assert.Equal(t, "beta", popped)

	top, err = s.Top("project.name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", top)
}

func TestScope(t *testing.T) {
	s := variable.New()
	s.Push("name", "outer")

	func() {
		defer s.Scope("name", "inner")()
		v, err := s.Top("name")
		require.NoError(t, err)
		assert.Equal(t, "inner", v)
	}()

	v, err := s.Top("name")
	require.NoError(t, err)
	assert.Equal(t, "outer", v)
}

func TestFormat(t *testing.T) {
	s := variable.New()
	s.Push("project.name", "widget")

	assert.Equal(t, "widget/src", s.Format("${{project.name}}/src", nil))
	assert.Equal(t, "widget/src", s.Format("{project.name}/src", nil))

	// Undefined token is left verbatim.
	assert.Equal(t, "{missing}/src", s.Format("{missing}/src", nil))

	// Overrides win over the store.
	assert.Equal(t, "override/src", s.Format("{project.name}/src", map[string]string{
		"project.name": "override",
	}))
}

func TestFormatIdempotent(t *testing.T) {
	s := variable.New()
	s.Push("x", "y")
	overrides := map[string]string{"x": "z"}
	once := s.Format("{x}", overrides)
	twice := s.Format(once, overrides)
	assert.Equal(t, once, twice)
}

func TestNewStoreBuiltins(t *testing.T) {
	s := variable.NewStore("1.0.0", []string{"rubisco", "fetch"})
	v, err := s.Top("version")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)

	v, err = s.Top("invocation")
	require.NoError(t, err)
	assert.Equal(t, "rubisco fetch", v)

	_, err = s.Top("nproc")
	require.NoError(t, err)
}

func TestSplit(t *testing.T) {
	args, err := variable.Split(`git clone --depth=1 "https://example.org/a b.git"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "clone", "--depth=1", "https://example.org/a b.git"}, args)
}
