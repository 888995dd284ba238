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

// Package scheduler implements the subpackage fetch scheduler: it walks
// a project's subpackage list, dispatches fetch backends in parallel
// over a bounded worker pool, deduplicates by
// identity key, recurses into freshly-fetched projects, and aggregates
// outcomes. Workers are a fixed-size errgroup pool draining a shared
// FIFO work queue; a worker that fetches a nested project enqueues its
// subpackages back onto the same queue, so the whole recursion tree is
// explored breadth-first under one bounded pool and one dedup set.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/fetch"
	"github.com/cppp-project/rubisco-sub001/internal/mirror"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// Config configures a Scheduler run; it mirrors the `fetch` CLI flags.
type Config struct {
	// Protocol is passed through to the mirror resolver.
	Protocol mirror.Protocol
	// Shallow requests depth=1 git clones.
	Shallow bool
	// UseMirror enables the mirror reachability race; false fetches
	// directly from each ref's URL (the -M flag).
	UseMirror bool
	// Strict makes an already-populated destination a failure instead of
	// an already-present outcome.
	Strict bool
	// Concurrency bounds the worker pool size; <=0 defaults to
	// min(len(refs), runtime.NumCPU()).
	Concurrency int
}

// Scheduler drives one `fetch` invocation's subpackage acquisition.
type Scheduler struct {
	Config
	Resolver *mirror.Resolver
	Store    *variable.Store
}

// RefOutcome is one SubpackageRef's terminal result, for display and
// testing.
type RefOutcome struct {
	Name     string
	Path     string
	DestPath string
	Kind     project.Kind
	// Outcome is one of "fetched", "already-present",
	// "duplicate-skipped", "failed".
	Outcome string
	Err     error
}

// Aggregate collects the per-ref outcomes of one Run, plus the summary
// counts.
type Aggregate struct {
	mu sync.Mutex

	Fetched        int
	AlreadyPresent int
	Duplicates     int
	Failed         int
	Results        []RefOutcome
}

func (a *Aggregate) record(r RefOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch r.Outcome {
	case "fetched":
		a.Fetched++
	case "already-present":
		a.AlreadyPresent++
	case "duplicate-skipped":
		a.Duplicates++
	case "failed":
		a.Failed++
	}
	a.Results = append(a.Results, r)
}

// workItem is one queued SubpackageRef tagged with its subtree root, so
// project-relative destination paths resolve against the right project.
type workItem struct {
	ref     *project.SubpackageRef
	baseDir string
}

// workQueue is the scheduler's shared FIFO. outstanding counts items
// added but not yet fully processed (including any recursion their
// processing enqueues), so Take can tell "momentarily empty" apart from
// "drained": it blocks while the queue is empty but work is still in
// flight, and returns ok=false only once both are zero.
type workQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []workItem
	outstanding int
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) Add(items ...workItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outstanding += len(items)
	q.items = append(q.items, items...)
	q.cond.Broadcast()
}

func (q *workQueue) Take() (workItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.outstanding > 0 {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return workItem{}, false
	}
	it := q.items[0]
	q.items = q.items[1:]
	return it, true
}

// Done marks one taken item fully processed. Workers must call it after
// any recursion-driven Add for that item, or the queue could report
// drained while children are still pending.
func (q *workQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outstanding--
	if q.outstanding == 0 {
		q.cond.Broadcast()
	}
}

// Run walks pc's subpackage tree to completion: every ref is resolved,
// fetched, and (on success) recursed into if its destination contains a
// nested project file. It returns once the whole tree has drained.
func (s *Scheduler) Run(ctx context.Context, pc *project.ProjectConfig) (*Aggregate, error) {
	agg := &Aggregate{}
	if len(pc.Subpackages) == 0 {
		return agg, nil
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
		if limit > len(pc.Subpackages) {
			limit = len(pc.Subpackages)
		}
	}

	queue := newWorkQueue()
	enqueue(queue, pc)

	loaded := &sync.Map{}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < limit; i++ {
		g.Go(func() error {
			for {
				item, ok := queue.Take()
				if !ok {
					return nil
				}
				s.processItem(gctx, queue, item, loaded, agg)
				queue.Done()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return agg, err
	}
	return agg, nil
}

// enqueue adds pc's subpackages in configuration order.
func enqueue(queue *workQueue, pc *project.ProjectConfig) {
	items := make([]workItem, 0, len(pc.Subpackages))
	for _, ref := range pc.Subpackages {
		items = append(items, workItem{ref: ref, baseDir: pc.Dir.String()})
	}
	queue.Add(items...)
}

// processItem fetches one ref and, on success, loads and enqueues its
// nested project's subpackages. Per-ref failures are captured into agg
// rather than propagated: a failed subpackage must not abort its
// siblings.
func (s *Scheduler) processItem(ctx context.Context, queue *workQueue, item workItem, loaded *sync.Map, agg *Aggregate) {
	ref := item.ref
	destPath := ref.Path
	if !filepath.IsAbs(destPath) {
		destPath = filepath.Join(item.baseDir, destPath)
	}

	identity := identityKey(ref, destPath)
	if _, dup := loaded.LoadOrStore(identity, true); dup {
		agg.record(RefOutcome{Name: ref.Name, Path: ref.Path, DestPath: destPath, Kind: ref.Kind, Outcome: "duplicate-skipped"})
		return
	}

	if err := ctx.Err(); err != nil {
		agg.record(RefOutcome{
			Name: ref.Name, Path: ref.Path, DestPath: destPath, Kind: ref.Kind, Outcome: "failed",
			Err: errors.E(errors.Op("scheduler.processItem"), errors.UserInterrupt, err),
		})
		return
	}

	resolvedURL, officialURL := s.resolve(ctx, ref)

	backend := fetch.ForKind(ref.Kind)
	if backend == nil {
		agg.record(RefOutcome{
			Name: ref.Name, Path: ref.Path, DestPath: destPath, Kind: ref.Kind, Outcome: "failed",
			Err: errors.E(errors.Op("scheduler.processItem"), errors.Validation, fmt.Errorf("unknown subpackage kind %q", ref.Kind)),
		})
		return
	}

	outcome, err := backend.Fetch(ctx, ref, destPath, resolvedURL, officialURL, fetch.Options{Shallow: s.Shallow, Strict: s.Strict})
	agg.record(RefOutcome{Name: ref.Name, Path: ref.Path, DestPath: destPath, Kind: ref.Kind, Outcome: outcomeLabel(outcome), Err: err})
	if err != nil || outcome == fetch.Failed {
		return
	}

	s.recurse(ctx, queue, destPath)
}

// resolve runs the mirror race for git/archive refs when UseMirror is
// set, swallowing resolution errors: a failure to resolve falls back to
// the ref's original URL rather than failing the fetch outright. It
// returns both the URL to fetch from and the registry's official URL,
// since a backend (the git backend in particular) needs both to tell a
// winning mirror apart from the canonical origin it must still record.
func (s *Scheduler) resolve(ctx context.Context, ref *project.SubpackageRef) (resolvedURL, officialURL string) {
	if s.Resolver == nil || !s.UseMirror {
		return ref.URL, ref.URL
	}
	if ref.Kind != project.KindGit && ref.Kind != project.KindArchive {
		return ref.URL, ref.URL
	}
	protocol := s.Protocol
	if protocol == "" {
		protocol = mirror.ProtocolHTTP
	}
	result, err := s.Resolver.Resolve(ctx, ref.URL, protocol)
	if err != nil {
		return ref.URL, ref.URL
	}
	return result.URL, result.Official
}

// recurse loads destPath's project file, if any, and enqueues its
// subpackages. A directory with no project file is a leaf; that's not an
// error.
func (s *Scheduler) recurse(ctx context.Context, queue *workQueue, destPath string) {
	childPath, err := project.Find(destPath)
	if err != nil {
		return
	}
	child, err := project.Load(ctx, childPath, s.Store)
	if err != nil {
		printer.FromContextOrDie(ctx).Printf("warning: failed to load nested project at %s: %v\n", destPath, err)
		return
	}
	enqueue(queue, child)
}

// identityKey is the deduplication token for a ref: the
// resolved absolute destination path if it already exists on disk, else
// the ref's raw URL (or, for a virtual ref with no URL, the destination
// path itself).
func identityKey(ref *project.SubpackageRef, destPath string) string {
	if _, err := os.Stat(destPath); err == nil {
		if abs, err := filepath.Abs(destPath); err == nil {
			return abs
		}
	}
	if ref.URL != "" {
		return ref.URL
	}
	abs, _ := filepath.Abs(destPath)
	return abs
}

func outcomeLabel(o fetch.Outcome) string {
	switch o {
	case fetch.Fetched:
		return "fetched"
	case fetch.AlreadyPresent:
		return "already-present"
	default:
		return "failed"
	}
}
