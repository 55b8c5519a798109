package di

import (
	"sort"
	"strings"
)

// Qualifiers is a sorted set of qualifier words without the implicit
// default/any markers.
type Qualifiers []string

// NewQualifiers builds a normalized set from words.
func NewQualifiers(words ...string) Qualifiers {
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	out := make(Qualifiers, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || w == QualifierDefault || w == QualifierAny {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func (q Qualifiers) Has(word string) bool {
	idx := sort.SearchStrings(q, word)
	return idx < len(q) && q[idx] == word
}

// ContainsAll reports whether every word of other is in q.
func (q Qualifiers) ContainsAll(other Qualifiers) bool {
	for _, w := range other {
		if !q.Has(w) {
			return false
		}
	}
	return true
}

// Name returns the value of the name qualifier, if any.
func (q Qualifiers) Name() string {
	name, _ := q.Value(namedKey)
	return name
}

// Value returns the value of the qualifier with key, e.g. "eu" for
// "region=eu".
func (q Qualifiers) Value(key string) (string, bool) {
	for _, w := range q {
		if wordKey(w) == key {
			return strings.TrimPrefix(strings.TrimPrefix(w, key), "="), true
		}
	}
	return "", false
}

func (q Qualifiers) hasKey(key string) bool {
	_, ok := q.Value(key)
	return ok
}

// IsDefault reports whether q carries only the implicit default qualifier
// (a name qualifier does not count).
func (q Qualifiers) IsDefault() bool {
	for _, w := range q {
		if wordKey(w) != namedKey {
			return false
		}
	}
	return true
}

func (q Qualifiers) Equal(other Qualifiers) bool {
	if len(q) != len(other) {
		return false
	}
	for i := range q {
		if q[i] != other[i] {
			return false
		}
	}
	return true
}

func (q Qualifiers) String() string {
	if len(q) == 0 {
		return "@" + QualifierDefault
	}
	return "@[" + strings.Join(q, " ") + "]"
}
