package coercion

import (
	"testing"

	"github.com/cloudforge-run/provider-runtime/internal/handlererror"
)

func TestCoerceBoolean(t *testing.T) {
	tests := []struct {
		in      any
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"True", true, false},
		{"FALSE", false, false},
		{"false", false, false},
		{true, true, false},
		{"yes", false, true},
		{"1", false, true},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.in, &Descriptor{Kind: KindBoolean})
		if tt.wantErr {
			if err == nil {
				t.Errorf("Coerce(%v) expected error, got none", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Coerce(%v) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Coerce(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCoerceNumeric(t *testing.T) {
	got, err := Coerce("42", &Descriptor{Kind: KindInteger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(float64) != 42 {
		t.Errorf("got %v, want 42", got)
	}

	if _, err := Coerce("not-a-number", &Descriptor{Kind: KindInteger}); err == nil {
		t.Error("expected error for unparseable integer")
	}

	he, ok := handlererror.As(mustErr(t, "not-a-number", &Descriptor{Kind: KindInteger}))
	if !ok || he.Code != handlererror.InvalidRequest {
		t.Errorf("expected InvalidRequest, got %v", he)
	}
}

func mustErr(t *testing.T, v any, d *Descriptor) error {
	t.Helper()
	_, err := Coerce(v, d)
	if err == nil {
		t.Fatal("expected error")
	}
	return err
}

func TestCoerceIdempotent(t *testing.T) {
	d := &Descriptor{Kind: KindBoolean}
	v1, err := Coerce("true", d)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := Coerce(v1, d)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Errorf("coercion not idempotent: %v != %v", v1, v2)
	}
}

func TestCoerceNestedMapAndList(t *testing.T) {
	d := &Descriptor{
		Kind: KindMap,
		Elem: &Descriptor{
			Kind: KindList,
			Elem: &Descriptor{Kind: KindInteger},
		},
	}
	in := map[string]any{
		"a": []any{"1", "2", "3"},
	}
	got, err := Coerce(in, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(map[string]any)
	list := m["a"].([]any)
	if len(list) != 3 || list[0].(float64) != 1 {
		t.Errorf("got %v", list)
	}
}

func TestCoerceUnsupportedKind(t *testing.T) {
	_, err := Coerce("x", &Descriptor{Kind: Kind(99)})
	he, ok := handlererror.As(err)
	if !ok || he.Code != handlererror.InvalidRequest {
		t.Errorf("expected InvalidRequest for unsupported kind, got %v", err)
	}
}

func TestCoerceNilDescriptorPassthrough(t *testing.T) {
	got, err := Coerce(map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(map[string]any)["x"] != 1 {
		t.Errorf("expected passthrough, got %v", got)
	}
}
