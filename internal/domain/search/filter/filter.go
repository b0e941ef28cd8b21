// Package filter models metadata pre-filters: a conjunction of exact matches
// over flattened document fields.
package filter

import (
	"fmt"
	"maps"
	"slices"
)

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 32

// Expression is an AND of exact-match conditions. The zero value matches everything.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must []Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// Equals builds an AND of exact matches, one per key in key order. Empty values are skipped.
func Equals(pairs map[string]string) (Expression, error) {
	keys := slices.Sorted(maps.Keys(pairs))
	conds := make([]Condition, 0, len(pairs))
	for _, k := range keys {
		v := pairs[k]
		if v == "" {
			continue
		}
		c, err := NewMatch(k, v)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds)
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Matches reports whether every condition holds for fields.
func (e Expression) Matches(fields map[string]string) bool {
	for _, c := range e.must {
		if !c.Matches(fields) {
			return false
		}
	}
	return true
}

// Condition is a single exact tag match.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Matches evaluates the condition against flattened metadata. A missing
// field never matches.
func (c Condition) Matches(fields map[string]string) bool {
	v, ok := fields[c.key]
	return ok && v == c.match
}
