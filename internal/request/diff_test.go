package request

import "testing"

func TestDiffIdenticalObjects(t *testing.T) {
	a := map[string]any{"name": "bucket", "count": 3}
	b := map[string]any{"count": 3, "name": "bucket"}
	if Diff(a, b) {
		t.Error("expected no diff for structurally equal maps with different key order")
	}
}

func TestDiffDifferentValues(t *testing.T) {
	a := map[string]any{"name": "bucket"}
	b := map[string]any{"name": "other-bucket"}
	if !Diff(a, b) {
		t.Error("expected diff for differing values")
	}
}

func TestDiffNumericTypeInsensitive(t *testing.T) {
	a := map[string]any{"count": 3}
	b := map[string]any{"count": float64(3)}
	if Diff(a, b) {
		t.Error("expected no diff between int 3 and float64 3")
	}
}

func TestDiffNilHandling(t *testing.T) {
	if Diff(nil, nil) {
		t.Error("expected no diff for nil, nil")
	}
	if !Diff(nil, map[string]any{"a": 1}) {
		t.Error("expected diff for nil vs non-nil")
	}
}
