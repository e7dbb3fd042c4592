// Package cachekey derives cache keys from an operation name and a flat
// parameter set.
package cachekey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Params is a flat parameter set. Values should be primitives
// (string, bool, integer or float kinds).
type Params map[string]any

// Encode returns a key of the form "<operation>_<json object>". Parameters
// are serialized with their names in lexicographic order, so two sets
// holding the same pairs always produce the same key no matter how they
// were built. Nil values are skipped. Callers must drop "no filter" values
// (see Compact) before encoding.
func Encode(operation string, params Params) string {
	clean := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		clean[k] = v
	}
	// encoding/json writes map keys sorted.
	raw, err := json.Marshal(clean)
	if err != nil {
		return operation + "_" + fallback(clean)
	}
	return operation + "_" + string(raw)
}

// Compact returns a copy of params without empty strings and without any
// string equal (case-insensitively) to one of the sentinels.
func Compact(params Params, sentinels ...string) Params {
	out := make(Params, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" || isSentinel(s, sentinels) {
				continue
			}
			out[k] = s
			continue
		}
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func isSentinel(v string, sentinels []string) bool {
	for _, s := range sentinels {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// fallback only runs for values json cannot encode (NaN floats and the
// like); it keeps the ordering contract.
func fallback(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, "&")
}
