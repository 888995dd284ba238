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

// Package cmdutil holds small helpers shared by the cmd/cmd* packages:
// exit-code classification and the layered mirror-registry path
// discovery.
package cmdutil

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
)

// Version is the core's semantic version, stamped into the variable
// store's "version" builtin; overridden at link time via -ldflags in a
// packaged build.
var Version = "0.0.0-dev"

// MirrorTimeout bounds a single mirror reachability probe.
const MirrorTimeout = 3 * time.Second

// MirrorRegistryPaths returns the three layered mirror-list paths
// (global, user, workspace), in the order
// internal/mirror.Load expects: earlier entries first, later entries
// win on conflict. Missing files are skipped by Load, so callers can
// pass all three unconditionally.
func MirrorRegistryPaths(workspaceDir string) []string {
	var paths []string
	paths = append(paths, filepath.Join(string(filepath.Separator), "etc", "rubisco-sub001", "mirrors.json"))
	if cfgDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(cfgDir, "rubisco-sub001", "mirrors.json"))
	}
	paths = append(paths, filepath.Join(workspaceDir, ".rubisco", "mirrors.json"))
	return paths
}

// ExitCode maps an error to the process exit code: 0 success, 1
// usage/validation/logic error, 2 argument parsing error, 130 user
// interrupt.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.KindOf(err) {
	case errors.UserInterrupt:
		return 130
	case errors.InvalidParam:
		return 2
	default:
		return 1
	}
}
