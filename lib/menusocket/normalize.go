// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menusocket

import (
	"math"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// NormalizeProperties restores the value types the engine expects
// from a CBOR-decoded property bag:
//
//   - unsigned integers become int64 when they fit;
//   - int and integral float64 values (from YAML and JSON decoding of
//     menu definitions) become int64;
//   - arrays of strings become []string;
//   - arrays of string arrays (the shortcut property) become [][]string;
//   - other arrays and maps are normalized element by element.
//
// Strings, booleans, byte strings, and signed integers pass through.
func NormalizeProperties(properties map[string]any) menu.Properties {
	if properties == nil {
		return nil
	}
	normalized := make(menu.Properties, len(properties))
	for name, value := range properties {
		normalized[name] = NormalizeValue(value)
	}
	return normalized
}

// NormalizeValue normalizes one decoded value. See NormalizeProperties.
func NormalizeValue(value any) any {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case float64:
		if typed == math.Trunc(typed) && typed >= math.MinInt64 && typed < math.MaxInt64 {
			return int64(typed)
		}
		return typed
	case uint64:
		if typed <= math.MaxInt64 {
			return int64(typed)
		}
		return typed
	case []any:
		return normalizeArray(typed)
	case map[string]any:
		normalized := make(map[string]any, len(typed))
		for key, element := range typed {
			normalized[key] = NormalizeValue(element)
		}
		return normalized
	}
	return value
}

func normalizeArray(values []any) any {
	if strings, ok := stringArray(values); ok {
		return strings
	}
	if len(values) > 0 {
		nested := make([][]string, 0, len(values))
		for _, element := range values {
			inner, isArray := element.([]any)
			if !isArray {
				break
			}
			strings, ok := stringArray(inner)
			if !ok {
				break
			}
			nested = append(nested, strings)
		}
		if len(nested) == len(values) {
			return nested
		}
	}
	normalized := make([]any, len(values))
	for i, element := range values {
		normalized[i] = NormalizeValue(element)
	}
	return normalized
}

// stringArray reports whether every element is a string. An empty
// array counts, so an empty list decodes as an empty []string.
func stringArray(values []any) ([]string, bool) {
	strings := make([]string, len(values))
	for i, element := range values {
		text, ok := element.(string)
		if !ok {
			return nil, false
		}
		strings[i] = text
	}
	return strings, true
}
