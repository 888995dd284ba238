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

// Package afm implements the auto-formatting map: an ordered keyed
// container whose string leaves are template-expanded through a
// variable.Store at Get time, never at write time. Expansion is an
// explicit Get method rather than an overridden generic map accessor;
// typed access is the separate GetAs generic function.
package afm

import (
	"fmt"
	"sort"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/variable"
)

// AFM is an ordered keyed container. Nested mappings are themselves *AFM
// values; nested lists are []any whose map elements are *AFM. Key order
// is preserved in the order first inserted.
type AFM struct {
	store  *variable.Store
	keys   []string
	values map[string]any
}

// New returns an empty AFM backed by store. store may be nil, in which
// case string leaves are returned unexpanded (useful for tests that don't
// care about templating).
func New(store *variable.Store) *AFM {
	return &AFM{store: store, values: make(map[string]any)}
}

// TypeError reports that a Get call's declared type didn't match the
// stored value's actual type.
type TypeError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("afm: key %q: expected %s, got %s", e.Key, e.Expected, e.Actual)
}

// Keys returns the ordered list of top-level keys.
func (a *AFM) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Has reports whether key is present at the top level.
func (a *AFM) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Set stores value under key, appending key to the key order if new.
func (a *AFM) Set(key string, value any) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = wrap(value, a.store)
}

// Get returns the value stored under key, with string leaves passed
// through the template expander and nested containers returned as AFM-
// wrapped views. It returns (nil, false) if key is absent.
func (a *AFM) Get(key string) (any, bool) {
	v, ok := a.values[key]
	if !ok {
		return nil, false
	}
	return a.expand(v), true
}

// GetOr returns Get(key), or def if key is absent.
func (a *AFM) GetOr(key string, def any) any {
	if v, ok := a.Get(key); ok {
		return v
	}
	return def
}

func (a *AFM) expand(v any) any {
	switch t := v.(type) {
	case string:
		if a.store == nil {
			return t
		}
		return a.store.Format(t, nil)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = a.expand(e)
		}
		return out
	default:
		return v
	}
}

func wrap(value any, store *variable.Store) any {
	switch t := value.(type) {
	case map[string]any:
		return FromPlain(t, store)
	case *AFM:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = wrap(e, store)
		}
		return out
	default:
		return t
	}
}

// GetAs performs a typed Get, returning a *TypeError if the stored value
// is not (or cannot be trivially converted to) T.
func GetAs[T any](a *AFM, key string) (T, error) {
	var zero T
	v, ok := a.Get(key)
	if !ok {
		return zero, errors.E(errors.Op("afm.GetAs"), errors.MissingParam,
			fmt.Errorf("key %q not present", key))
	}
	cast, ok := v.(T)
	if !ok {
		return zero, &TypeError{Key: key, Expected: fmt.Sprintf("%T", zero), Actual: fmt.Sprintf("%T", v)}
	}
	return cast, nil
}

// GetAsOr is GetAs with a default for a missing or mistyped key.
func GetAsOr[T any](a *AFM, key string, def T) T {
	v, err := GetAs[T](a, key)
	if err != nil {
		return def
	}
	return v
}

// Update replaces keys at the top level only: every key in other
// overwrites or adds to a, with no recursion into nested maps.
func (a *AFM) Update(other *AFM) {
	for _, k := range other.keys {
		a.Set(k, other.values[k])
	}
}

// Merge recursively combines other into a: nested maps merge recursively,
// lists concatenate, and scalars are overridden by other's value.
func (a *AFM) Merge(other *AFM) {
	for _, k := range other.keys {
		ov := other.values[k]
		av, exists := a.values[k]
		if !exists {
			a.Set(k, ov)
			continue
		}
		a.values[k] = mergeValue(av, ov)
		if _, already := indexOf(a.keys, k); !already {
			a.keys = append(a.keys, k)
		}
	}
}

func indexOf(keys []string, k string) (int, bool) {
	for i, kk := range keys {
		if kk == k {
			return i, true
		}
	}
	return -1, false
}

func mergeValue(a, b any) any {
	aAFM, aOK := a.(*AFM)
	bAFM, bOK := b.(*AFM)
	if aOK && bOK {
		aAFM.Merge(bAFM)
		return aAFM
	}
	aList, aOK := a.([]any)
	bList, bOK := b.([]any)
	if aOK && bOK {
		return append(append([]any{}, aList...), bList...)
	}
	return b
}

// FromPlain converts an unstructured decoded-document tree (as produced
// by any of the format decoders) into an AFM, recursively wrapping nested
// maps and list elements. Keys are inserted in sorted order: the decoders
// hand us an unordered Go map, and sorting keeps merge results and key
// iteration stable across loads.
func FromPlain(data map[string]any, store *variable.Store) *AFM {
	a := New(store)
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.Set(k, data[k])
	}
	return a
}

// ToPlain converts a back into an unstructured document tree, with every
// string leaf template-expanded the same way Get expands it. This is the
// bridge to struct-tag decoding: callers marshal the plain tree and
// unmarshal it into a typed struct.
func (a *AFM) ToPlain() map[string]any {
	out := make(map[string]any, len(a.keys))
	for _, k := range a.keys {
		out[k] = unwrap(a.expand(a.values[k]))
	}
	return out
}

func unwrap(v any) any {
	switch t := v.(type) {
	case *AFM:
		return t.ToPlain()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = unwrap(e)
		}
		return out
	default:
		return v
	}
}
