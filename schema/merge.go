// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import "github.com/binddl/binddl/unit"

// Merge combines other into s in place. When overwrite is false (the
// default "base schema wins" policy), an entity already defined in s is
// left untouched; when overwrite is true, other's definition replaces s's.
// Units are merged through unit.Library.Merge, which keeps the units,
// base units and prefixes already in s whatever overwrite says. This is the supplemented "partial-schema merge with conflict policy"
// feature (SPEC_FULL §6), generalizing spec.md's passing mention of
// merging two schemas into an explicit, conflict-aware operation.
func (s *Schema) Merge(other *Schema, overwrite bool) {
	if other == nil {
		return
	}

	for name, p := range other.Primitives {
		if _, exists := s.Primitives[name]; !exists || overwrite {
			cp := *p
			s.Primitives[name] = &cp
		}
	}
	for name, e := range other.Enums {
		if _, exists := s.Enums[name]; !exists || overwrite {
			s.Enums[name] = e.clone()
		}
	}
	for name, st := range other.Structs {
		if _, exists := s.Structs[name]; !exists || overwrite {
			s.Structs[name] = st.clone()
		}
	}
	for name, str := range other.Streams {
		if _, exists := s.Streams[name]; !exists || overwrite {
			s.Streams[name] = str.clone()
		}
	}

	if s.Units == nil {
		s.Units = &unit.Library{}
	}
	s.Units.Merge(other.Units)

	if overwrite {
		if other.Header.LanguageVersion != "" {
			s.Header.LanguageVersion = other.Header.LanguageVersion
		}
		if other.Header.Author != "" {
			s.Header.Author = other.Header.Author
		}
		if other.Header.Description != "" {
			s.Header.Description = other.Header.Description
		}
	}
	for _, d := range other.Header.ExtDeclarations {
		found := false
		for i := range s.Header.ExtDeclarations {
			if s.Header.ExtDeclarations[i].Key == d.Key {
				if overwrite {
					s.Header.ExtDeclarations[i].Value = d.Value
				}
				found = true
				break
			}
		}
		if !found {
			s.Header.ExtDeclarations = append(s.Header.ExtDeclarations, d)
		}
	}
}
