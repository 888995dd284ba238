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

// Package tmp implements a scoped temporary-resource registry: every
// temp file or directory a backend creates is
// registered here, with an explicit release-on-scope-exit and a fallback
// sweep at process exit, so a cancelled or failed fetch never leaves
// partial downloads lying around in the OS temp directory.
package tmp

import (
	"os"
	"sync"
)

// Registry tracks temporary paths pending cleanup. The zero value is
// ready to use; Default is the process-wide instance callers normally
// want.
type Registry struct {
	mu    sync.Mutex
	paths map[string]bool
}

// Default is the registry main sweeps before process exit, covering
// paths a user interrupt or failure unwound past the scoped releases.
var Default = &Registry{}

// File creates a new empty temp file in dir (OS default temp dir if dir
// is ""), registers it, and returns its path plus a release func. Calling
// release before the path is promoted to a permanent location removes it;
// callers that move the path out of the temp dir must call Forget instead
// of Release.
func (r *Registry) File(dir, pattern string) (path string, release func(), err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	path = f.Name()
	_ = f.Close()
	r.register(path)
	return path, func() { r.Release(path) }, nil
}

// Dir creates a new empty temp directory and registers it the same way
// File does.
func (r *Registry) Dir(dir, pattern string) (path string, release func(), err error) {
	path, err = os.MkdirTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	r.register(path)
	return path, func() { r.Release(path) }, nil
}

func (r *Registry) register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]bool)
	}
	r.paths[path] = true
}

// Forget deregisters path without removing it, for a resource that was
// promoted from temporary to permanent (e.g. an archive extracted
// straight into its final destination).
func (r *Registry) Forget(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// Release removes path immediately and deregisters it. Safe to call more
// than once or on an unregistered path.
func (r *Registry) Release(path string) {
	r.mu.Lock()
	_, ok := r.paths[path]
	delete(r.paths, path)
	r.mu.Unlock()
	if ok {
		_ = os.RemoveAll(path)
	}
}

// Sweep removes every still-registered path. Callers run this at process
// exit and on cooperative user-interrupt cancellation.
func (r *Registry) Sweep() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = make(map[string]bool)
	r.mu.Unlock()

	for _, p := range paths {
		_ = os.RemoveAll(p)
	}
}
