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

// Package config implements the hierarchical configuration loader:
// decode-by-extension, recursive "includes" resolution, and ".d"
// directory fragment merging, with an explicit visited-set threaded
// through the recursion instead of exception-based cycle detection.
package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// Load reads path, follows its "includes" chain and "<file>.d" directory
// fragments, and returns the merged result as an AFM. store is used to
// back the returned AFM's template expansion; it may be nil.
func Load(ctx context.Context, path string, store *variable.Store) (*afm.AFM, error) {
	return load(ctx, path, store, make(map[string]bool))
}

func load(ctx context.Context, path string, store *variable.Store, visited map[string]bool) (*afm.AFM, error) {
	const op = errors.Op("config.Load")

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.E(op, errors.OS, err)
	}

	if visited[abs] {
		printer.FromContextOrDie(ctx).Printf("warning: circular include detected at %s, skipping\n", abs)
		return afm.New(store), nil
	}
	visited[abs] = true

	decode, err := decoderFor(abs)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.E(op, errors.OS, err)
	}

	plain, err := decode(data)
	if err != nil {
		return nil, errors.E(op, errors.Validation, fmt.Errorf("decoding %s: %w", abs, err))
	}

	result := afm.FromPlain(plain, store)

	if err := mergeIncludes(ctx, result, abs, store, visited); err != nil {
		return nil, err
	}
	if err := mergeFragments(ctx, result, abs, store, visited); err != nil {
		return nil, err
	}

	return result, nil
}

func mergeIncludes(ctx context.Context, result *afm.AFM, abs string, store *variable.Store, visited map[string]bool) error {
	const op = errors.Op("config.mergeIncludes")

	raw, ok := result.Get("includes")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return errors.E(op, errors.Validation, fmt.Errorf("%s: includes must be a list", abs))
	}

	dir := filepath.Dir(abs)
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return errors.E(op, errors.Validation, fmt.Errorf("%s: include entries must be strings", abs))
		}
		incPath := name
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(dir, name)
		}
		included, err := load(ctx, incPath, store, visited)
		if err != nil {
			return err
		}
		result.Merge(included)
	}
	return nil
}

// mergeFragments walks fragDir's whole subtree, not just its immediate
// children — matching original_source's `dirpath.rglob("*")` — so a
// fragment nested under a subdirectory of "<filename>.d" is merged the
// same as one directly inside it.
func mergeFragments(ctx context.Context, result *afm.AFM, abs string, store *variable.Store, visited map[string]bool) error {
	fragDir := abs + ".d"
	info, err := os.Stat(fragDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var paths []string
	walkErr := filepath.WalkDir(fragDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if walkErr != nil {
		return errors.E(errors.Op("config.mergeFragments"), errors.OS, walkErr)
	}
	sort.Strings(paths)

	for _, fragPath := range paths {
		if _, err := decoderFor(fragPath); err != nil {
			continue // Not a recognized config extension; not a fragment.
		}
		frag, err := load(ctx, fragPath, store, visited)
		if err != nil {
			return err
		}
		result.Merge(frag)
	}
	return nil
}
