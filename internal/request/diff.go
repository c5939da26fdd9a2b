package request

import (
	"encoding/json"
	"reflect"
)

// Diff reports whether previous and desired differ. Both are re-marshaled
// to JSON and compared structurally so map key ordering and concrete
// numeric types (int vs float64) never produce a false difference; this
// backs the no-op update short-circuit described in SPEC_FULL.md §11.
func Diff(previous, desired any) bool {
	if previous == nil || desired == nil {
		return !reflect.DeepEqual(previous, desired)
	}

	pb, err := json.Marshal(previous)
	if err != nil {
		return true
	}
	db, err := json.Marshal(desired)
	if err != nil {
		return true
	}

	var pv, dv any
	if err := json.Unmarshal(pb, &pv); err != nil {
		return true
	}
	if err := json.Unmarshal(db, &dv); err != nil {
		return true
	}
	return !reflect.DeepEqual(pv, dv)
}
