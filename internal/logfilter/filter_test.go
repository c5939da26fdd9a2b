package logfilter

import "testing"

func TestLiteralFilterRedacts(t *testing.T) {
	f := NewLiteralFilter("AKIAEXAMPLESECRET")
	got := f.Apply("using key AKIAEXAMPLESECRET for request")
	if got != "using key <REDACTED> for request" {
		t.Errorf("got %q", got)
	}
}

func TestLiteralFilterRedactsShortSecret(t *testing.T) {
	f := NewLiteralFilter("TOK")
	got := f.Apply(`sessionToken:"TOK"`)
	if got != `sessionToken:"<REDACTED>"` {
		t.Errorf("got %q", got)
	}
}

func TestLiteralFilterRefusesEmptySecret(t *testing.T) {
	if f := NewLiteralFilter(""); f != nil {
		t.Errorf("expected nil filter for empty secret, got %v", f)
	}
}

func TestLiteralFilterNilIsNoop(t *testing.T) {
	var f *LiteralFilter
	if got := f.Apply("unchanged"); got != "unchanged" {
		t.Errorf("got %q", got)
	}
}

func TestKeyValueFilterRedactsNamedKeys(t *testing.T) {
	f := NewKeyValueFilter("authorization", "x-nova-signature")
	got := f.Apply("Authorization: Bearer abc123, Content-Type: application/json")
	if got != "Authorization: <REDACTED>, Content-Type: application/json" {
		t.Errorf("got %q", got)
	}
}

func TestKeyValueFilterLeavesUnlistedKeys(t *testing.T) {
	f := NewKeyValueFilter("authorization")
	got := f.Apply("Content-Type: application/json")
	if got != "Content-Type: application/json" {
		t.Errorf("got %q", got)
	}
}

func TestChainAppliesInOrder(t *testing.T) {
	c := NewChain(
		NewKeyValueFilter("authorization"),
		NewLiteralFilter("super-secret-token"),
	)
	got := c.Apply("Authorization: super-secret-token, action: CREATE")
	if got != "Authorization: <REDACTED>, action: CREATE" {
		t.Errorf("got %q", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestChainAddAppendsFilter(t *testing.T) {
	c := NewChain()
	c.Add(NewLiteralFilter("topsecretvalue"))
	got := c.Apply("value is topsecretvalue here")
	if got != "value is <REDACTED> here" {
		t.Errorf("got %q", got)
	}
}
