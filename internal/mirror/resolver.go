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

package mirror

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/worldline-go/klient"
)

// DefaultProbeTimeout is the per-mirror reachability probe timeout.
const DefaultProbeTimeout = 15 * time.Second

// Result is the outcome of resolving one reference.
type Result struct {
	// URL is the fully-substituted concrete address to fetch from.
	URL string
	// Official is the official mirror's fully-substituted URL. Equal to
	// URL when no race happened or the official mirror won.
	Official string
	// Name is the winning mirror's name ("official" if no race ran).
	Name string
	// Raced is true if a reachability race actually ran (i.e. the
	// reference matched a registry entry and protocol was http).
	Raced bool
}

// Resolver races a Registry's mirror candidates for a given reference.
type Resolver struct {
	registry *Registry
	client   *klient.Client
	timeout  time.Duration
}

// NewResolver returns a Resolver backed by registry. If timeout is zero,
// DefaultProbeTimeout is used.
func NewResolver(registry *Registry, timeout time.Duration) (*Resolver, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	client, err := klient.New(
		klient.WithDisableBaseURLCheck(true),
		klient.WithDisableEnvValues(true),
		klient.WithDisableRetry(true),
	)
	if err != nil {
		return nil, err
	}
	return &Resolver{registry: registry, client: client, timeout: timeout}, nil
}

// Resolve maps reference to the fastest reachable mirror's URL.
// An opaque URL (one ParseReference can't split into user/repo@host) is
// returned unchanged. ssh-protocol references skip the race entirely and
// return the official entry, since there is no meaningful HTTP probe for
// an ssh remote.
func (r *Resolver) Resolve(ctx context.Context, reference string, protocol Protocol) (Result, error) {
	user, repo, host, ok := ParseReference(reference)
	if !ok {
		return Result{URL: reference, Official: reference, Name: reference}, nil
	}

	entries, ok := r.registry.Lookup(host, protocol)
	if !ok {
		return Result{URL: reference, Official: reference, Name: reference}, nil
	}

	official := Expand(entries[OfficialName], user, repo)

	if protocol == ProtocolSSH {
		return Result{URL: official, Official: official, Name: OfficialName}, nil
	}

	name, url := r.race(ctx, entries, user, repo)
	if name == "" {
		return Result{URL: official, Official: official, Name: OfficialName, Raced: true}, nil
	}
	return Result{URL: url, Official: official, Name: name, Raced: true}, nil
}

type probeResult struct {
	name string
	url  string
}

// race runs one goroutine per mirror entry, each publishing to a shared
// results channel; the first successful send wins and the rest are
// cancelled.
func (r *Resolver) race(ctx context.Context, entries map[string]string, user, repo string) (string, string) {
	pr := printer.FromContextOrDie(ctx)

	raceCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make(chan probeResult, len(entries))
	var wg sync.WaitGroup

	for name, tmpl := range entries {
		url := Expand(tmpl, user, repo)
		wg.Add(1)
		go func(name, url string) {
			defer wg.Done()
			pr.Event(printer.Event{Kind: printer.EventMirrorProbeStart, Name: name})
			start := time.Now()
			err := probe(raceCtx, r.client, url)
			elapsed := time.Since(start)
			pr.Event(printer.Event{Kind: printer.EventMirrorProbeDone, Name: name, Elapsed: elapsed.Microseconds(), Err: err})
			if err != nil {
				return
			}
			select {
			case results <- probeResult{name: name, url: url}:
			case <-raceCtx.Done():
			}
		}(name, url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	winner, ok := <-results
	cancel() // Losers observe raceCtx.Done() and abandon their in-flight requests.
	if !ok {
		return "", ""
	}
	return winner.name, winner.url
}

// probe issues a HEAD request against url and treats any non-error
// response (regardless of status code) as reachable; an unreachable host
// or timeout is the only failure this reports.
func probe(ctx context.Context, client *klient.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
