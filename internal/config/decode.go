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

package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/goccy/go-yaml"
	"gopkg.in/ini.v1"
)

// decodeFunc turns raw file bytes into an untyped document tree, the
// shape afm.FromPlain expects: map[string]any with nested map[string]any
// and []any.
type decodeFunc func(data []byte) (map[string]any, error)

var decodersByExt = map[string]decodeFunc{
	".json":  decodeJSON,
	".json5": decodeJSON, // Strict-JSON subset only; JSON5 comments/trailing commas are rejected.
	".yaml":  decodeYAML,
	".yml":   decodeYAML,
	".toml":  decodeTOML,
	".ini":   decodeINI,
	".cfg":   decodeINI,
}

// decoderFor returns the decoder registered for path's extension.
func decoderFor(path string) (decodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := decodersByExt[ext]
	if !ok {
		return nil, errors.E(errors.Op("config.decoderFor"), errors.Validation,
			fmt.Errorf("unrecognized config extension %q for %s", ext, path))
	}
	return fn, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return normalizeMaps(out).(map[string]any), nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeINI(data []byte) (map[string]any, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for _, sec := range f.Sections() {
		vals := make(map[string]any)
		for _, key := range sec.Keys() {
			vals[key.Name()] = key.Value()
		}
		if sec.Name() == ini.DefaultSection {
			for k, v := range vals {
				out[k] = v
			}
			continue
		}
		out[sec.Name()] = vals
	}
	return out, nil
}

// normalizeMaps recursively converts map[any]any / map[string]interface{}
// variants some YAML decoders produce into the plain map[string]any/[]any
// shape the rest of the pipeline expects.
func normalizeMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeMaps(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeMaps(vv)
		}
		return out
	default:
		return v
	}
}
