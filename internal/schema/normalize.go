package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Shape classifies a raw value before it is collapsed by kind.
type Shape int

const (
	ShapeEmpty       Shape = iota // nil, blank string, empty container
	ShapeScalar                   // string, number or bool
	ShapeEncodedJSON              // string holding a JSON object or array
	ShapeStructure                // parsed map or slice
)

func ShapeOf(v any) Shape {
	switch t := v.(type) {
	case nil:
		return ShapeEmpty
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ShapeEmpty
		}
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			return ShapeEncodedJSON
		}
		return ShapeScalar
	case map[string]any:
		if len(t) == 0 {
			return ShapeEmpty
		}
		return ShapeStructure
	case map[any]any:
		if len(t) == 0 {
			return ShapeEmpty
		}
		return ShapeStructure
	case []any:
		if len(t) == 0 {
			return ShapeEmpty
		}
		return ShapeStructure
	case []string:
		if len(t) == 0 {
			return ShapeEmpty
		}
		return ShapeStructure
	case []int:
		if len(t) == 0 {
			return ShapeEmpty
		}
		return ShapeStructure
	}
	return ShapeScalar
}

// Normalize collapses raw into the canonical Go type for the field kind:
// string for text/enum, int for number, bool for boolean, map[string]any for
// json-object and []any for json-array. present is false for empty input.
func Normalize(f Field, raw any) (value any, present bool, err error) {
	if ShapeOf(raw) == ShapeEmpty {
		return nil, false, nil
	}

	switch f.Kind {
	case KindText, KindEnum:
		if ShapeOf(raw) == ShapeStructure {
			return nil, false, fmt.Errorf("field %s: expected a scalar, got %T", f.ID, raw)
		}
		return String(raw), true, nil
	case KindNumber:
		n, ok := Int(raw)
		if !ok {
			return nil, false, fmt.Errorf("field %s: %q is not a number", f.ID, String(raw))
		}
		return n, true, nil
	case KindBoolean:
		return Truthy(raw), true, nil
	case KindObject:
		m, err := ObjectValue(raw)
		if err != nil {
			return nil, false, fmt.Errorf("field %s: %w", f.ID, err)
		}
		if len(m) == 0 {
			return nil, false, nil
		}
		return m, true, nil
	case KindArray:
		arr, err := ArrayValue(raw)
		if err != nil {
			return nil, false, fmt.Errorf("field %s: %w", f.ID, err)
		}
		if len(arr) == 0 {
			return nil, false, nil
		}
		return arr, true, nil
	}
	return raw, true, nil
}

// String renders scalars the way they would be typed into a form.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// Int parses integers out of numeric values and decimal strings.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case uint64:
		return int(t), true
	case float32:
		return floatInt(float64(t))
	case float64:
		return floatInt(t)
	case json.Number:
		return Int(t.String())
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatInt(f)
		}
	}
	return 0, false
}

func floatInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Truthy coerces a raw value to bool. Booleans pass through; the usual
// negative spellings of strings are false, anything else non-empty is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no", "off":
			return false
		}
		return true
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	if n, ok := Int(v); ok {
		return n != 0
	}
	return true
}

// ObjectValue accepts a parsed map or a JSON encoded object.
func ObjectValue(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t), nil
	case map[any]any:
		return normalizeMap(stringKeys(t)), nil
	case string:
		s := strings.TrimSpace(t)
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("invalid JSON object: %w", err)
		}
		m, ok := out.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a JSON object, got %T", out)
		}
		return normalizeMap(m), nil
	}
	return nil, fmt.Errorf("expected an object, got %T", v)
}

// ArrayValue accepts a parsed slice, a JSON encoded array or a comma list.
func ArrayValue(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeAny(item))
		}
		return out, nil
	case []string:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, item)
		}
		return out, nil
	case []int:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, item)
		}
		return out, nil
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var out []any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, fmt.Errorf("invalid JSON array: %w", err)
			}
			return ArrayValue(out)
		}
		if strings.HasPrefix(s, "{") {
			return nil, fmt.Errorf("expected an array, got an object")
		}
		var out []any
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
	if ShapeOf(v) == ShapeScalar {
		return []any{v}, nil
	}
	return nil, fmt.Errorf("expected an array, got %T", v)
}

// Map returns v as a string keyed map when it is one.
func Map(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		return stringKeys(t), true
	}
	return nil, false
}

// Strings flattens an array value into strings, dropping blanks.
func Strings(v any) []string {
	arr, err := ArrayValue(v)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := String(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SortedKeys returns map keys in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeAny(v)
	}
	return out
}

// normalizeAny turns JSON floats that hold integers back into ints and
// converts nested yaml maps so structures marshal predictably.
func normalizeAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		return normalizeMap(stringKeys(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeAny(item)
		}
		return out
	case float64:
		if n, ok := floatInt(t); ok {
			return n
		}
	}
	return v
}
