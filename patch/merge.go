package patch

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
)

// Overlay returns base with every non-empty value of top written over it.
// Objects are merged field by field; arrays and scalars are replaced whole.
func Overlay[T any](base, top T) (T, error) {
	ops, err := Diff(base, top, false)
	if err != nil {
		var zero T
		return zero, err
	}
	return applyChecked(base, ops)
}

// FillGaps returns current with its empty values taken from fallback.
// Values already present in current are never changed.
func FillGaps[T any](current, fallback T) (T, error) {
	ops, err := Diff(current, fallback, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return applyChecked(current, ops)
}

// Diff lists the operations that copy the non-empty values of from onto to.
// With onlyGaps set, values that are already non-empty in to are kept.
func Diff[T any](to, from T, onlyGaps bool) ([]Operation, error) {
	toMap, err := toObject(to)
	if err != nil {
		return nil, fmt.Errorf("failed to convert current state: %w", err)
	}
	fromMap, err := toObject(from)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source state: %w", err)
	}
	ops := make([]Operation, 0)
	diffObjects("", toMap, fromMap, onlyGaps, &ops)
	return ops, nil
}

func applyChecked[T any](current T, ops []Operation) (T, error) {
	if err := Validate(ops, AllowedPaths[T]()); err != nil {
		var zero T
		return zero, fmt.Errorf("generated patch failed validation: %w", err)
	}
	return Apply(current, ops)
}

func toObject(v any) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if string(raw) == "null" {
		return out, nil
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func diffObjects(prefix string, to, from map[string]any, onlyGaps bool, ops *[]Operation) {
	for _, key := range sortedKeys(from) {
		value := from[key]
		if isZeroValue(value) {
			continue
		}
		path := prefix + "/" + escapeToken(key)
		current, exists := to[key]

		if fromObj, ok := value.(map[string]any); ok {
			if toObj, ok := current.(map[string]any); ok {
				diffObjects(path, toObj, fromObj, onlyGaps, ops)
				continue
			}
		}
		if exists && onlyGaps && !isZeroValue(current) {
			continue
		}
		if exists && reflect.DeepEqual(current, value) {
			continue
		}
		op := OperationReplace
		if !exists {
			op = OperationAdd
		}
		*ops = append(*ops, Operation{Op: op, Path: path, Value: value})
	}
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		for _, inner := range val {
			if !isZeroValue(inner) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
