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

// Package mirror implements the mirror registry and the race-to-first-
// winner resolver: a logical host token maps to a set of named mirrors
// per protocol, and resolution races their reachability probes.
// An ssh-protocol entry has no meaningful HTTP reachability probe, so
// resolution for it returns the official entry directly.
package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
	"github.com/cppp-project/rubisco-sub001/internal/config"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// Protocol is a transport a mirror entry serves.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolSSH  Protocol = "ssh"
)

// OfficialName is the mirror name every host/protocol entry must carry.
const OfficialName = "official"

// Registry maps host -> protocol -> mirror name -> URL template. Templates
// contain "{user}" and "{repo}" placeholders.
type Registry struct {
	hosts map[string]map[Protocol]map[string]string
}

// Load merges the three layered registry files (global, user, workspace,
// in that order so later files win) using the same decode/merge rules as
// internal/config, and validates that every host/protocol entry carries
// an "official" mirror.
func Load(ctx context.Context, store *variable.Store, paths ...string) (*Registry, error) {
	const op = errors.Op("mirror.Load")

	merged := afm.New(store)
	found := false
	for _, p := range paths {
		if p == "" {
			continue
		}
		loaded, err := config.Load(ctx, p, store)
		if err != nil {
			if errors.KindOf(err) == errors.OS {
				continue // Layer file absent is fine; not every layer must exist.
			}
			return nil, errors.E(op, err)
		}
		merged.Merge(loaded)
		found = true
	}
	if !found {
		return &Registry{hosts: map[string]map[Protocol]map[string]string{}}, nil
	}

	return fromAFM(merged)
}

func fromAFM(a *afm.AFM) (*Registry, error) {
	const op = errors.Op("mirror.fromAFM")

	reg := &Registry{hosts: make(map[string]map[Protocol]map[string]string)}
	for _, host := range a.Keys() {
		protocols, err := afm.GetAs[*afm.AFM](a, host)
		if err != nil {
			return nil, errors.E(op, errors.Validation, fmt.Errorf("host %q must be a mapping", host))
		}
		reg.hosts[host] = make(map[Protocol]map[string]string)
		for _, protoName := range protocols.Keys() {
			proto := Protocol(protoName)
			mirrors, err := afm.GetAs[*afm.AFM](protocols, protoName)
			if err != nil {
				return nil, errors.E(op, errors.Validation, fmt.Errorf("%s.%s must be a mapping", host, protoName))
			}
			entries := make(map[string]string)
			for _, name := range mirrors.Keys() {
				url, err := afm.GetAs[string](mirrors, name)
				if err != nil {
					return nil, errors.E(op, errors.Validation, fmt.Errorf("%s.%s.%s must be a string template", host, protoName, name))
				}
				entries[name] = url
			}
			if _, ok := entries[OfficialName]; !ok {
				return nil, errors.E(op, errors.Validation,
					fmt.Errorf("%s.%s has no %q entry", host, protoName, OfficialName))
			}
			reg.hosts[host][proto] = entries
		}
	}
	return reg, nil
}

// Lookup returns the mirror set for host/protocol, or (nil, false) if the
// registry has no entry for it.
func (r *Registry) Lookup(host string, protocol Protocol) (map[string]string, bool) {
	protos, ok := r.hosts[host]
	if !ok {
		return nil, false
	}
	entries, ok := protos[protocol]
	return entries, ok
}

// ParseReference splits a "user/repo@host" mirror reference into its
// parts. ok is false for an opaque URL, which callers should use as-is.
func ParseReference(ref string) (user, repo, host string, ok bool) {
	at := strings.LastIndex(ref, "@")
	if at < 0 {
		return "", "", "", false
	}
	path, host := ref[:at], ref[at+1:]
	slash := strings.Index(path, "/")
	if slash < 0 || host == "" {
		return "", "", "", false
	}
	return path[:slash], path[slash+1:], host, true
}

// Expand substitutes {user} and {repo} into a mirror URL template.
func Expand(template, user, repo string) string {
	s := strings.ReplaceAll(template, "{user}", user)
	return strings.ReplaceAll(s, "{repo}", repo)
}
