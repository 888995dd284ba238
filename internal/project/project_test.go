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

package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/printer/fake"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "repo.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadValidatesNameAndVersion(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{"name": "widget", "version": "1.2.3"}`)

	ctx := fake.CtxWithNilPrinter()
	pc, err := project.Load(ctx, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "widget", pc.Name)
	assert.Equal(t, "1.2.3", pc.Version)
	assert.Empty(t, pc.Subpackages)
}

func TestLoadRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{"name": "widget", "version": "not-a-version"}`)

	ctx := fake.CtxWithNilPrinter()
	_, err := project.Load(ctx, p, nil)
	require.Error(t, err)
	assert.Equal(t, errors.Validation, errors.KindOf(err))
}

func TestLoadParsesSubpackages(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{
		"name": "widget",
		"version": "1.0.0",
		"subpackages": [
			{"path": "vendor/a", "type": "git", "remote-url": "user/a@github"},
			{"path": "vendor/b", "type": "archive", "remote-url": "https://example.org/b.tar.gz", "archive-type": "tar.gz"},
			{"path": "vendor/c", "type": "virtual"}
		]
	}`)

	ctx := fake.CtxWithNilPrinter()
	pc, err := project.Load(ctx, p, nil)
	require.NoError(t, err)
	require.Len(t, pc.Subpackages, 3)

	assert.Equal(t, project.KindGit, pc.Subpackages[0].Kind)
	assert.Equal(t, "main", pc.Subpackages[0].Branch)
	assert.Equal(t, project.KindArchive, pc.Subpackages[1].Kind)
	assert.Equal(t, "tar.gz", pc.Subpackages[1].ArchiveType)
	assert.Equal(t, project.KindVirtual, pc.Subpackages[2].Kind)
}

func TestLoadAcceptsListPath(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{
		"name": "widget",
		"version": "1.0.0",
		"subpackages": [
			{"path": ["vendor/a", "vendor/a-alt"], "type": "virtual"}
		]
	}`)

	ctx := fake.CtxWithNilPrinter()
	pc, err := project.Load(ctx, p, nil)
	require.NoError(t, err)
	require.Len(t, pc.Subpackages, 1)
	assert.Equal(t, "vendor/a", pc.Subpackages[0].Path)
}

func TestFindNotAProject(t *testing.T) {
	dir := t.TempDir()
	_, err := project.Find(dir)
	require.Error(t, err)
	assert.Equal(t, errors.NotAProject, errors.KindOf(err))
}

func TestLoadRejectsBadMinToolVersion(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{"name": "p", "version": "1.0.0", "repoutils-min-version": "not-a-version"}`)
	_, err := project.Load(fake.CtxWithNilPrinter(), p, nil)
	require.Error(t, err)
	assert.Equal(t, errors.Validation, errors.KindOf(err))
}

func TestCheckToolVersionEnforcesMinimum(t *testing.T) {
	dir := t.TempDir()
	p := writeProject(t, dir, `{"name": "p", "version": "1.0.0", "repoutils-min-version": "2.0.0"}`)
	pc, err := project.Load(fake.CtxWithNilPrinter(), p, nil)
	require.NoError(t, err)

	assert.Error(t, pc.CheckToolVersion("1.5.0"))
	assert.NoError(t, pc.CheckToolVersion("2.0.0"))
	assert.NoError(t, pc.CheckToolVersion("2.1.0"))
	// A dev build with a non-semver stamp skips the check.
	assert.NoError(t, pc.CheckToolVersion("dev"))
}
