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

// Package project defines the on-disk project file model: a
// ProjectConfig decoded from any supported config extension, its
// subpackage descriptors, and its named workflow hooks.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/config"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/types"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// Kind is the fetch backend a SubpackageRef resolves to.
type Kind string

const (
	KindGit     Kind = "git"
	KindArchive Kind = "archive"
	KindVirtual Kind = "virtual"
)

// SubpackageRef describes one external source dependency to acquire.
type SubpackageRef struct {
	Name        string
	Path        string // Project-relative destination.
	Kind        Kind
	URL         string // remote-url; required for git/archive.
	Branch      string // git-branch; git only, default "main".
	ArchiveType string // archive-type; archive only.
	Description string
	// VirtualScheme names the placeholder scheme a virtual subpackage
	// claims to satisfy. Only "none" is recognized by the virtual
	// backend today; an unrecognized scheme is a validation error at
	// load time rather than a NotImplemented at fetch time.
	VirtualScheme string
}

// ProjectConfig is a loaded, decoded project file.
type ProjectConfig struct {
	SourcePath  string
	Dir         types.UniquePath
	Name        string
	Version     string
	Description string
	// MinToolVersion is the project file's "repoutils-min-version"
	// field, empty when absent. Validated as semver at load time;
	// enforced against the running tool via CheckToolVersion.
	MinToolVersion string
	Subpackages    []*SubpackageRef
	Hooks          map[string]*afm.AFM // Raw workflow AFMs, parsed lazily by internal/workflow.
	raw            *afm.AFM
}

// Raw returns the project file's full decoded AFM, for callers (like the
// workflow engine) that need fields this struct doesn't surface directly.
func (p *ProjectConfig) Raw() *afm.AFM {
	return p.raw
}

// CheckToolVersion enforces the project's repoutils-min-version against
// the running tool's version. An unparseable current version (a dev
// build stamped with something other than semver) skips the check rather
// than failing every project that declares a minimum.
func (p *ProjectConfig) CheckToolVersion(current string) error {
	const op = errors.Op("project.CheckToolVersion")

	if p.MinToolVersion == "" {
		return nil
	}
	min, err := semver.NewVersion(p.MinToolVersion)
	if err != nil {
		return errors.E(op, errors.Validation, types.UniquePath(p.SourcePath), err)
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return nil
	}
	if cur.LessThan(min) {
		return errors.E(op, errors.Validation, types.UniquePath(p.SourcePath),
			errors.Hint(fmt.Sprintf("upgrade to version %s or newer", p.MinToolVersion)),
			fmt.Errorf("project %q requires tool version >= %s, running %s", p.Name, p.MinToolVersion, current))
	}
	return nil
}

// recognizedNames lists the on-disk project file's base names, checked in
// order; the first one found in a directory is loaded.
var recognizedNames = []string{
	"repo.json", "repo.json5", "repo.toml", "repo.yaml", "repo.yml", "repo.ini", "repo.cfg",
}

// Find returns the path to the project file in dir, or an NotAProject
// error if none of the recognized names exist there.
func Find(dir string) (string, error) {
	for _, name := range recognizedNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, nil
		}
	}
	return "", errors.E(errors.Op("project.Find"), errors.NotAProject,
		fmt.Errorf("no project file found in %s", dir))
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Load reads and validates the project file at path.
func Load(ctx context.Context, path string, store *variable.Store) (*ProjectConfig, error) {
	const op = errors.Op("project.Load")

	raw, err := config.Load(ctx, path, store)
	if err != nil {
		return nil, errors.E(op, err)
	}

	name, err := afm.GetAs[string](raw, "name")
	if err != nil {
		return nil, errors.E(op, errors.Validation, types.UniquePath(path),
			fmt.Errorf("project file must have a string \"name\": %w", err))
	}
	version, err := afm.GetAs[string](raw, "version")
	if err != nil {
		return nil, errors.E(op, errors.Validation, types.UniquePath(path),
			fmt.Errorf("project file must have a string \"version\": %w", err))
	}
	if _, err := semver.NewVersion(version); err != nil {
		return nil, errors.E(op, errors.Validation, types.UniquePath(path),
			fmt.Errorf("version %q is not a valid semantic version: %w", version, err))
	}

	minVersion := afm.GetAsOr(raw, "repoutils-min-version", "")
	if minVersion != "" {
		if _, err := semver.NewVersion(minVersion); err != nil {
			return nil, errors.E(op, errors.Validation, types.UniquePath(path),
				fmt.Errorf("repoutils-min-version %q is not a valid semantic version: %w", minVersion, err))
		}
	}

	pc := &ProjectConfig{
		SourcePath:     path,
		Dir:            types.UniquePath(filepath.Dir(path)),
		Name:           name,
		Version:        version,
		Description:    afm.GetAsOr(raw, "description", ""),
		MinToolVersion: minVersion,
		Hooks:          make(map[string]*afm.AFM),
		raw:            raw,
	}

	if err := pc.loadSubpackages(raw); err != nil {
		return nil, errors.E(op, err)
	}
	if err := pc.loadHooks(raw); err != nil {
		return nil, errors.E(op, err)
	}

	return pc, nil
}

func (pc *ProjectConfig) loadSubpackages(raw *afm.AFM) error {
	const op = errors.Op("project.loadSubpackages")

	list, err := afm.GetAs[[]any](raw, "subpackages")
	if err != nil {
		return nil // Absent subpackages list is valid: an empty project.
	}

	for i, item := range list {
		entry, ok := item.(*afm.AFM)
		if !ok {
			return errors.E(op, errors.Validation, fmt.Errorf("subpackages[%d] must be a mapping", i))
		}
		ref, err := parseSubpackageRef(entry)
		if err != nil {
			return errors.E(op, fmt.Errorf("subpackages[%d]: %w", i, err))
		}
		pc.Subpackages = append(pc.Subpackages, ref)
	}
	return nil
}

func parseSubpackageRef(entry *afm.AFM) (*SubpackageRef, error) {
	const op = errors.Op("project.parseSubpackageRef")

	kindStr, err := afm.GetAs[string](entry, "type")
	if err != nil {
		return nil, errors.E(op, errors.Validation, fmt.Errorf("missing \"type\""))
	}
	kind := Kind(kindStr)
	switch kind {
	case KindGit, KindArchive, KindVirtual:
	default:
		return nil, errors.E(op, errors.Validation, fmt.Errorf("unknown subpackage type %q", kindStr))
	}

	path, err := subpackagePath(entry)
	if err != nil {
		return nil, errors.E(op, err)
	}

	ref := &SubpackageRef{
		Kind:        kind,
		Path:        path,
		Name:        afm.GetAsOr(entry, "name", ""),
		Description: afm.GetAsOr(entry, "description", ""),
	}

	switch kind {
	case KindGit:
		url, err := afm.GetAs[string](entry, "remote-url")
		if err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("git subpackage requires \"remote-url\""))
		}
		ref.URL = url
		ref.Branch = afm.GetAsOr(entry, "git-branch", "main")
	case KindArchive:
		url, err := afm.GetAs[string](entry, "remote-url")
		if err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("archive subpackage requires \"remote-url\""))
		}
		ref.URL = url
		archiveType, err := afm.GetAs[string](entry, "archive-type")
		if err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("archive subpackage requires \"archive-type\""))
		}
		ref.ArchiveType = archiveType
	case KindVirtual:
		scheme := afm.GetAsOr(entry, "virtual-scheme", "none")
		if scheme != "none" {
			return nil, errors.E(op, errors.Validation,
				fmt.Errorf("unknown virtual subpackage scheme %q", scheme))
		}
		ref.VirtualScheme = scheme
	}

	return ref, nil
}

// subpackagePath normalizes the "path" field, which may be either a
// string or a list. We accept both,
// using only the first entry of a list and silently ignoring the rest: a
// subpackage naming more than one path is ambiguous and we don't guess
// beyond the first.
func subpackagePath(entry *afm.AFM) (string, error) {
	if s, err := afm.GetAs[string](entry, "path"); err == nil {
		return s, nil
	}
	if list, err := afm.GetAs[[]any](entry, "path"); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("\"path\" list is empty")
		}
		s, ok := list[0].(string)
		if !ok {
			return "", fmt.Errorf("\"path\" list entries must be strings")
		}
		return s, nil
	}
	return "", fmt.Errorf("missing \"path\"")
}

func (pc *ProjectConfig) loadHooks(raw *afm.AFM) error {
	hooks, err := afm.GetAs[*afm.AFM](raw, "hooks")
	if err != nil {
		return nil // No hooks is valid.
	}
	for _, name := range hooks.Keys() {
		wf, err := afm.GetAs[*afm.AFM](hooks, name)
		if err != nil {
			return errors.E(errors.Op("project.loadHooks"), errors.Validation,
				fmt.Errorf("hooks.%s must be a mapping", name))
		}
		pc.Hooks[name] = wf
	}
	return nil
}
