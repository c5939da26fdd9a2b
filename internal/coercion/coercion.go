// Package coercion converts the stringly-typed JSON produced by the control
// plane into the typed values a model descriptor expects (spec.md §4.1).
//
// The control plane serializes every primitive as a JSON string; coercion
// walks a decoded value (map[string]any / []any / string / already-typed
// values) guided by a Descriptor and returns the typed equivalent, or an
// InvalidRequest error (internal/handlererror) on the first value that
// can't be reconciled with its descriptor.
package coercion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudforge-run/provider-runtime/internal/handlererror"
)

// Kind names the shape a Descriptor targets.
type Kind int

const (
	KindObject Kind = iota // pass-through, no coercion of the value itself
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindMap  // map-like: string keys, Elem describes each value
	KindList // list-like or set-like: Elem describes each element
)

// Descriptor guides recursive coercion of one field. Elem is consulted for
// KindMap (value type) and KindList (element type); it may be nil, in
// which case nested values are passed through unchanged.
type Descriptor struct {
	Kind Kind
	Elem *Descriptor
}

// Coerce recursively coerces v according to d. It is idempotent: coercing an
// already-typed value returns an equal value (spec.md §8 round-trip law).
func Coerce(v any, d *Descriptor) (any, error) {
	if d == nil {
		return v, nil
	}

	switch d.Kind {
	case KindObject:
		return v, nil

	case KindBoolean:
		return coerceBoolean(v)

	case KindInteger:
		return coerceNumeric(v, true)

	case KindNumber:
		return coerceNumeric(v, false)

	case KindString:
		return coerceString(v)

	case KindMap:
		return coerceMap(v, d.Elem)

	case KindList:
		return coerceList(v, d.Elem)

	default:
		return nil, handlererror.NewInvalidRequest("unsupported type")
	}
}

func coerceBoolean(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(t) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, handlererror.NewInvalidRequest("invalid boolean value %q", t)
		}
	default:
		return nil, handlererror.NewInvalidRequest("invalid boolean value %v", v)
	}
}

func coerceNumeric(v any, integer bool) (any, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		if integer {
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return nil, handlererror.NewInvalidRequest("invalid integer value %q", t)
			}
			return float64(n), nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, handlererror.NewInvalidRequest("invalid numeric value %q", t)
		}
		return f, nil
	default:
		return nil, handlererror.NewInvalidRequest("invalid numeric value %v", v)
	}
}

func coerceString(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		return nil, handlererror.NewInvalidRequest("invalid string value %v", v)
	}
}

func coerceMap(v any, elem *Descriptor) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, handlererror.NewInvalidRequest("expected object, got %T", v)
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		coerced, err := Coerce(val, elem)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = coerced
	}
	return out, nil
}

func coerceList(v any, elem *Descriptor) (any, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, handlererror.NewInvalidRequest("expected array, got %T", v)
	}
	out := make([]any, len(l))
	for i, val := range l {
		coerced, err := Coerce(val, elem)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = coerced
	}
	return out, nil
}
