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

package cmdfetch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppp-project/rubisco-sub001/cmd/cmdfetch"
)

func TestFetchCommandFetchesVirtualSubpackage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repo.json"), []byte(`{
		"name": "p", "version": "1.0.0",
		"subpackages": [{"type": "virtual", "path": "S1", "name": "S1"}]
	}`), 0o644))

	cmd := cmdfetch.NewCommand(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{dir, "--no-mirror"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "fetched: 1")
}

func TestFetchCommandRejectsBadProtocol(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repo.json"), []byte(`{"name": "p", "version": "1.0.0"}`), 0o644))

	cmd := cmdfetch.NewCommand(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{dir, "--protocol", "carrier-pigeon"})

	assert.Error(t, cmd.Execute())
}

func TestFetchCommandVerbosePrintsOutcomeTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repo.json"), []byte(`{
		"name": "p", "version": "1.0.0",
		"subpackages": [{"type": "virtual", "path": "S1", "name": "S1"}]
	}`), 0o644))

	cmd := cmdfetch.NewCommand(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{dir, "--no-mirror", "-v"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "S1 [fetched]")
}
