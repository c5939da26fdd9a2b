// Package logfilter implements the composable redaction chain applied to
// every log line before it reaches a sink (spec.md §4.4, C3). Grounded on
// the teacher's flattenHeaders audit-log redaction in
// internal/eventbus/webhook.go, generalized from a fixed header denylist to
// an ordered chain of arbitrary string replacements.
package logfilter

import "strings"

const redactedPlaceholder = "<REDACTED>"

// Filter scrubs one line of text, returning the (possibly unchanged) result.
type Filter interface {
	Apply(line string) string
}

// Chain applies a sequence of Filters in order. Filters are independent;
// order only matters when two filters could match overlapping substrings.
type Chain struct {
	filters []Filter
}

// NewChain builds a Chain from zero or more filters, applied in the order
// given.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

func (c *Chain) Apply(line string) string {
	for _, f := range c.filters {
		line = f.Apply(line)
	}
	return line
}

// Add appends a filter to the end of the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len reports how many filters are installed.
func (c *Chain) Len() int {
	return len(c.filters)
}

// LiteralFilter replaces every occurrence of a fixed secret value with the
// redaction placeholder. Used for credential values (spec.md's caller and
// provider credential triples) which must never reach a log sink verbatim.
type LiteralFilter struct {
	secret string
}

// NewLiteralFilter builds a filter for one secret value. Every non-empty
// secret is redacted regardless of length: a short credential value is
// still a credential value, and spec.md's invariant that no secret survives
// into a log line makes no exception for short ones.
func NewLiteralFilter(secret string) *LiteralFilter {
	if secret == "" {
		return nil
	}
	return &LiteralFilter{secret: secret}
}

func (f *LiteralFilter) Apply(line string) string {
	if f == nil || f.secret == "" {
		return line
	}
	return strings.ReplaceAll(line, f.secret, redactedPlaceholder)
}

// KeyValueFilter redacts the value side of "key: value"/"key=value" pairs
// for a fixed set of case-insensitive key names, mirroring the teacher's
// header-name denylist (authorization, x-nova-signature) generalized to
// arbitrary separators.
type KeyValueFilter struct {
	keys map[string]bool
}

// NewKeyValueFilter builds a filter over the given key names (matched
// case-insensitively).
func NewKeyValueFilter(keys ...string) *KeyValueFilter {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = true
	}
	return &KeyValueFilter{keys: set}
}

func (f *KeyValueFilter) Apply(line string) string {
	fields := strings.Split(line, ", ")
	for i, field := range fields {
		sepIdx := strings.IndexAny(field, ":=")
		if sepIdx == -1 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(field[:sepIdx]))
		if f.keys[key] {
			pad := ""
			if rest := field[sepIdx+1:]; len(rest) > 0 && rest[0] == ' ' {
				pad = " "
			}
			fields[i] = field[:sepIdx+1] + pad + redactedPlaceholder
		}
	}
	return strings.Join(fields, ", ")
}
