package request

import (
	"encoding/json"
	"testing"
)

func TestDeepFreezeReadAccess(t *testing.T) {
	v := DeepFreeze(map[string]any{
		"name": "bucket",
		"tags": []any{"a", "b"},
		"nested": map[string]any{
			"enabled": true,
		},
	}, nil)

	fm, ok := v.(*FrozenMap)
	if !ok {
		t.Fatalf("expected *FrozenMap, got %T", v)
	}
	if fm.Get("name") != "bucket" {
		t.Errorf("Get(name) = %v", fm.Get("name"))
	}

	list, ok := fm.Get("tags").(*FrozenList)
	if !ok {
		t.Fatalf("expected *FrozenList, got %T", fm.Get("tags"))
	}
	if list.Len() != 2 || list.Index(0) != "a" {
		t.Errorf("unexpected list contents: len=%d first=%v", list.Len(), list.Index(0))
	}

	nested, ok := fm.Get("nested").(*FrozenMap)
	if !ok {
		t.Fatalf("expected nested *FrozenMap, got %T", fm.Get("nested"))
	}
	if nested.Get("enabled") != true {
		t.Errorf("nested.Get(enabled) = %v", nested.Get("enabled"))
	}
}

func TestFrozenMapSetPanics(t *testing.T) {
	fm := &FrozenMap{m: map[string]any{"x": 1}}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on Set")
		}
	}()
	fm.Set("x", 2)
}

func TestFrozenMapDeletePanics(t *testing.T) {
	fm := &FrozenMap{m: map[string]any{"x": 1}}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on Delete")
		}
	}()
	fm.Delete("x")
}

func TestFrozenListSetPanics(t *testing.T) {
	fl := &FrozenList{l: []any{1, 2}}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on Set")
		}
	}()
	fl.Set(0, 99)
}

func TestFrozenListAppendPanics(t *testing.T) {
	fl := &FrozenList{l: []any{1, 2}}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on Append")
		}
	}()
	fl.Append(3)
}

func TestFrozenValuesMarshalLikeThePlainValueTheyWrap(t *testing.T) {
	original := map[string]any{
		"name": "bucket",
		"tags": []any{"a", "b"},
		"nested": map[string]any{
			"enabled": true,
		},
	}

	wantBytes, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal original: %v", err)
	}

	frozen := DeepFreeze(original, nil)
	gotBytes, err := json.Marshal(frozen)
	if err != nil {
		t.Fatalf("marshal frozen: %v", err)
	}

	var want, got any
	if err := json.Unmarshal(wantBytes, &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if err := json.Unmarshal(gotBytes, &got); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}

	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("frozen value marshaled differently: got %s, want %s", gotJSON, wantJSON)
	}
}

func TestDeepFreezeScalarPassthrough(t *testing.T) {
	if v := DeepFreeze("hello", nil); v != "hello" {
		t.Errorf("got %v", v)
	}
	if v := DeepFreeze(42, nil); v != 42 {
		t.Errorf("got %v", v)
	}
	if v := DeepFreeze(nil, nil); v != nil {
		t.Errorf("got %v", v)
	}
}
