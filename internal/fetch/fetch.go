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

// Package fetch implements the three subpackage fetch backends: git
// clone, archive download+extract, and virtual (no-op). Each backend
// implements the common Backend interface; the scheduler dispatches by
// the SubpackageRef's Kind.
package fetch

import (
	"context"

	"github.com/cppp-project/rubisco-sub001/internal/project"
)

// Outcome is one of the terminal results a Backend's Fetch call reports
// (the scheduler adds DuplicateSkipped, which never reaches a backend).
type Outcome int

const (
	Fetched Outcome = iota
	AlreadyPresent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case AlreadyPresent:
		return "already-present"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Options configures a single Fetch call.
type Options struct {
	// Shallow requests a shallow/depth-limited fetch where the backend
	// supports it (git only).
	Shallow bool
	// Strict makes an already-populated destination an error instead of
	// an update-in-place.
	Strict bool
}

// Backend fetches a single SubpackageRef into destPath. resolvedURL is
// the already mirror-resolved URL to fetch from (equal to ref.URL when no
// resolution applies, e.g. virtual refs). officialURL is the official
// mirror's fully-substituted URL (the resolver's Result.Official);
// it equals resolvedURL when no race ran or the official mirror won, and
// is what the git backend must record as "origin" per section 4.5.1.
type Backend interface {
	Fetch(ctx context.Context, ref *project.SubpackageRef, destPath, resolvedURL, officialURL string, opts Options) (Outcome, error)
}

// ForKind returns the Backend implementing ref.Kind.
func ForKind(kind project.Kind) Backend {
	switch kind {
	case project.KindGit:
		return &GitBackend{}
	case project.KindArchive:
		return &ArchiveBackend{}
	case project.KindVirtual:
		return &VirtualBackend{}
	default:
		return nil
	}
}
