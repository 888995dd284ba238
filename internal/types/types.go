// Copyright 2021 Google LLC
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

// Package types defines the basic path types shared across the codebase.
package types

import (
	"os"
	"path/filepath"
)

// UniquePath represents an absolute, OS-defined path to a project or
// subpackage directory on the filesystem.
type UniquePath string

// String returns the absolute path in string format.
func (u UniquePath) String() string {
	return string(u)
}

// Empty returns true if the UniquePath is empty.
func (u UniquePath) Empty() bool {
	return len(u) == 0
}

// RelativePath returns u relative to the current working directory, for
// display purposes. If it cannot be made relative, u is returned unchanged.
func (u UniquePath) RelativePath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return string(u), err
	}
	rel, err := filepath.Rel(cwd, string(u))
	if err != nil {
		return string(u), err
	}
	return rel, nil
}

// DisplayPath represents a slash-separated path to a project directory on
// the filesystem, relative to the current working directory. It is not
// guaranteed to be unique (e.g. in the presence of symlinks) and should
// only be used for display purposes.
type DisplayPath string

// Empty returns true if the DisplayPath is empty.
func (d DisplayPath) Empty() bool {
	return len(d) == 0
}
