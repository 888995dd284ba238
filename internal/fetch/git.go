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

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	pkgerrors "github.com/pkg/errors"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/types"
)

// GitBackend clones or updates a destination via the local git binary,
// invoked through os/exec. Each runGit call fails distinctly on a
// missing git binary vs. a non-zero git exit.
type GitBackend struct{}

var _ Backend = (*GitBackend)(nil)

// Fetch implements Backend.
func (b *GitBackend) Fetch(ctx context.Context, ref *project.SubpackageRef, destPath, resolvedURL, officialURL string, opts Options) (Outcome, error) {
	const op = errors.Op("fetch.GitBackend.Fetch")
	pr := printer.FromContextOrDie(ctx)

	if isGitWorkTree(destPath) {
		if opts.Strict {
			return Failed, errors.E(op, errors.Exist, types.UniquePath(destPath),
				fmt.Errorf("destination already contains a git working tree"))
		}
		if err := b.pull(ctx, destPath, ref.Branch); err != nil {
			return Failed, errors.E(op, err)
		}
		return AlreadyPresent, nil
	}

	if err := os.MkdirAll(destPath, 0o755); err != nil {
		return Failed, errors.E(op, errors.OS, err)
	}

	args := []string{"clone", "--branch", ref.Branch, "--recurse-submodules"}
	if opts.Shallow {
		args = append(args, "--depth=1")
	}
	args = append(args, resolvedURL, destPath)

	if _, err := runGit(ctx, "", args...); err != nil {
		_ = os.RemoveAll(destPath)
		return Failed, errors.E(op, errors.Repo(resolvedURL), err)
	}

	if resolvedURL != officialURL {
		if err := b.rewireRemotes(ctx, destPath, ref, resolvedURL, officialURL); err != nil {
			return Failed, errors.E(op, err)
		}
	}

	pr.Printf("Fetched %q into %s\n", ref.Name, destPath)
	return Fetched, nil
}

// rewireRemotes sets origin back to the canonical (official) URL and
// records the mirror that was actually used, so the working tree always
// records its canonical origin for future pulls.
// officialURL is the resolver's already-substituted Result.Official, not
// ref.URL: the latter is the raw remote-url/mirror-reference descriptor
// field, which for a `user/repo@host` reference is not a fetchable URL
// at all.
func (b *GitBackend) rewireRemotes(ctx context.Context, destPath string, ref *project.SubpackageRef, resolvedURL, officialURL string) error {
	if _, err := runGit(ctx, destPath, "remote", "set-url", "origin", officialURL); err != nil {
		return err
	}
	if _, err := runGit(ctx, destPath, "remote", "add", "mirror", resolvedURL); err != nil {
		return err
	}
	if _, err := runGit(ctx, destPath, "branch", fmt.Sprintf("--set-upstream-to=origin/%s", ref.Branch), ref.Branch); err != nil {
		return err
	}
	return nil
}

func (b *GitBackend) pull(ctx context.Context, destPath, branch string) error {
	_, err := runGit(ctx, destPath, "pull", "origin", branch)
	return err
}

func isGitWorkTree(destPath string) bool {
	info, err := os.Stat(destPath + "/.git")
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

// runGit runs git with args, in dir if non-empty, capturing stderr for
// error context. A missing git binary surfaces as CommandNotFound; a
// non-zero exit surfaces as Git.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	const op = errors.Op("fetch.runGit")

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if isCommandNotFound(err) {
		return "", errors.E(op, errors.CommandNotFound,
			pkgerrors.Wrap(err, "git binary not found"))
	}
	return "", errors.E(op, errors.Git,
		pkgerrors.Wrapf(err, "git %v: %s", args, stderr.String()))
}

func isCommandNotFound(err error) bool {
	var execErr *exec.Error
	if as, ok := err.(*exec.Error); ok {
		execErr = as
	} else {
		return false
	}
	return execErr.Err == exec.ErrNotFound
}
