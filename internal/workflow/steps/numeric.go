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

package steps

import (
	"strconv"

	"github.com/cppp-project/rubisco-sub001/internal/afm"
)

// getInt reads key as an integer, tolerating the several numeric
// representations the four config decoders produce (JSON/float64,
// YAML/int, TOML/int64, INI/string), since afm.GetAs[int] only accepts an
// exact int match.
func getInt(a *afm.AFM, key string, def int) int {
	v, ok := a.Get(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}
