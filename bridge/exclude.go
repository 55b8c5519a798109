package bridge

import (
	"reflect"
	"slices"
)

// ExclusionSet holds the provider types and members skipped by a pass.
type ExclusionSet struct {
	Types   []reflect.Type
	Members map[MemberKey]struct{}
}

// ComputeExclusions collects class-level exclusions from every class of the
// chain and member-level exclude tags.
func ComputeExclusions(chain []*ClassMembers) ExclusionSet {
	set := ExclusionSet{Members: map[MemberKey]struct{}{}}
	for _, cm := range chain {
		for _, t := range cm.Excludes {
			if !slices.Contains(set.Types, t) {
				set.Types = append(set.Types, t)
			}
		}
		for _, f := range cm.Fields {
			if slices.Contains(f.Tags, TagExclude) {
				set.Members[f.Key()] = struct{}{}
			}
		}
		for _, m := range cm.Producers {
			if slices.Contains(m.Tags, TagExclude) {
				set.Members[m.Key()] = struct{}{}
			}
		}
	}
	return set
}

// Excludes reports whether a provider member producing t is skipped.
func (s ExclusionSet) Excludes(key MemberKey, t reflect.Type) bool {
	if _, ok := s.Members[key]; ok {
		return true
	}
	for _, ex := range s.Types {
		if t == ex || t.AssignableTo(ex) {
			return true
		}
	}
	return false
}
