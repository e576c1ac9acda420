// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import (
	"github.com/binddl/binddl/ddlerr"
)

// Validate checks the schema's structural invariants: duplicate names
// (within a struct or enum, and a type name declared as more than one of
// datatype, enum and struct), elements referencing an undefined type,
// recursive type references, constants and defaults outside a declared
// min/max, byte positions overlapping a non-constant sibling, and numbits
// combined with arraysize > 1. An overlap is reported only when two
// non-constant elements with explicit byte positions start at the same
// bit; elements that overlap only partially are not reported. The Has*
// flags of a value are not checked against the value itself. Every
// violation is accumulated rather than stopping at the first (spec §4.2
// "Failure model").
func (s *Schema) Validate() error {
	var errs ddlerr.ParseErrorList

	for name := range s.Enums {
		if _, ok := s.Primitives[name]; ok {
			errs.Addf("type name %q declared as both datatype and enum: %w", name, ddlerr.ErrInvalidArg)
		}
	}
	for name := range s.Structs {
		if _, ok := s.Primitives[name]; ok {
			errs.Addf("type name %q declared as both datatype and struct: %w", name, ddlerr.ErrInvalidArg)
		}
		if _, ok := s.Enums[name]; ok {
			errs.Addf("type name %q declared as both enum and struct: %w", name, ddlerr.ErrInvalidArg)
		}
	}

	for name, st := range s.Structs {
		if st.Name != name {
			errs.Addf("struct keyed as %q has Name %q: %w", name, st.Name, ddlerr.ErrInvalidArg)
		}
		s.validateStruct(st, &errs)
	}

	for name, e := range s.Enums {
		if _, ok := s.Primitives[e.UnderlyingRef]; !ok {
			errs.Addf("enum %q has undefined underlying type %q: %w", name, e.UnderlyingRef, ddlerr.ErrNoClass)
		}
		seen := map[string]bool{}
		for _, c := range e.Constants {
			if seen[c.Name] {
				errs.Addf("enum %q: duplicate constant name %q: %w", name, c.Name, ddlerr.ErrInvalidArg)
			}
			seen[c.Name] = true
		}
	}

	for name, st := range s.Streams {
		if _, err := s.Resolve(st.RootRef); err != nil {
			errs.Addf("stream %q: root type %q: %w", name, st.RootRef, ddlerr.ErrNoClass)
		}
	}

	if err := s.checkRecursion(); err != nil {
		errs.Add(err)
	}

	return errs.AsError()
}

func (s *Schema) validateStruct(st *Struct, errs *ddlerr.ParseErrorList) {
	seenNames := map[string]bool{}
	occupied := map[int]string{} // byte_pos*8+bitpos -> owner element name, for overlap detection

	for i := range st.Elements {
		el := &st.Elements[i]

		if seenNames[el.Name] {
			errs.Addf("struct %q: duplicate element name %q: %w", st.Name, el.Name, ddlerr.ErrInvalidArg)
		}
		seenNames[el.Name] = true

		resolved, err := s.Resolve(el.TypeRef)
		if err != nil {
			errs.Addf("struct %q, element %q: %w", st.Name, el.Name, err)
			continue
		}

		if el.BitPos < 0 || el.BitPos > 7 {
			errs.Addf("struct %q, element %q: bitpos %d out of range [0,7]: %w", st.Name, el.Name, el.BitPos, ddlerr.ErrInvalidArg)
		}
		if el.BytePos < -1 {
			errs.Addf("struct %q, element %q: bytepos %d must be >= 0 or -1: %w", st.Name, el.Name, el.BytePos, ddlerr.ErrInvalidArg)
		}

		if el.Array.IsDynamic() {
			sibling, _, err := st.Element(el.Array.SiblingRef)
			if err != nil {
				errs.Addf("struct %q, element %q: array_size sibling %q: %v", st.Name, el.Name, el.Array.SiblingRef, err)
			} else {
				sibResolved, err := s.Resolve(sibling.TypeRef)
				if err != nil || sibResolved.Kind != RefPrimitive || sibResolved.Primitive.Kind == KindFloat {
					errs.Addf("struct %q, element %q: array_size sibling %q must be an integer primitive: %w", st.Name, el.Name, el.Array.SiblingRef, ddlerr.ErrInvalidType)
				}
			}
		}

		arrayCount := el.Array.Literal
		if arrayCount == 0 && !el.Array.IsDynamic() {
			arrayCount = 1
		}
		if el.NumBits > 0 && arrayCount > 1 {
			errs.Addf("struct %q, element %q: numbits set together with arraysize > 1: %w", st.Name, el.Name, ddlerr.ErrInvalidArg)
		}

		if resolved.Kind == RefPrimitive && el.NumBits > 0 && el.NumBits > resolved.Primitive.BitWidth {
			errs.Addf("struct %q, element %q: numbits %d exceeds type %q width %d: %w", st.Name, el.Name, el.NumBits, el.TypeRef, resolved.Primitive.BitWidth, ddlerr.ErrInvalidArg)
		}
		if resolved.Kind == RefPrimitive && resolved.Primitive.Kind == KindFloat && el.NumBits > 0 && el.NumBits != resolved.Primitive.BitWidth {
			errs.Addf("struct %q, element %q: float element numbits must equal type width %d, got %d: %w", st.Name, el.Name, resolved.Primitive.BitWidth, el.NumBits, ddlerr.ErrInvalidArg)
		}

		validateBound(st.Name, el.Name, el.NumericBound, errs)

		if el.HasConstant && el.HasMin && el.Constant < el.Min {
			errs.Addf("struct %q, element %q: constant %v below declared min %v: %w", st.Name, el.Name, el.Constant, el.Min, ddlerr.ErrInvalidArg)
		}
		if el.HasConstant && el.HasMax && el.Constant > el.Max {
			errs.Addf("struct %q, element %q: constant %v above declared max %v: %w", st.Name, el.Name, el.Constant, el.Max, ddlerr.ErrInvalidArg)
		}

		if el.BytePos >= 0 && !el.Array.IsDynamic() {
			startBit := el.BytePos*8 + el.BitPos
			for b := 0; b < arrayCount; b++ {
				if owner, ok := occupied[startBit]; ok && owner != el.Name && !el.HasConstant {
					errs.Addf("struct %q: element %q overlaps %q at bit %d: %w", st.Name, el.Name, owner, startBit, ddlerr.ErrInvalidArg)
				}
				if !el.HasConstant {
					occupied[startBit] = el.Name
				}
				startBit += el.NumBits
			}
		}
	}
}

func validateBound(structName, elemName string, b NumericBound, errs *ddlerr.ParseErrorList) {
	if b.HasMin && b.HasMax && b.Min > b.Max {
		errs.Addf("struct %q, element %q: min %v greater than max %v: %w", structName, elemName, b.Min, b.Max, ddlerr.ErrInvalidArg)
	}
	if b.HasDefault {
		if b.HasMin && b.Default < b.Min {
			errs.Addf("struct %q, element %q: default %v below min %v: %w", structName, elemName, b.Default, b.Min, ddlerr.ErrInvalidArg)
		}
		if b.HasMax && b.Default > b.Max {
			errs.Addf("struct %q, element %q: default %v above max %v: %w", structName, elemName, b.Default, b.Max, ddlerr.ErrInvalidArg)
		}
	}
}

// checkRecursion fails with ErrNoClass the moment a struct's element graph
// reaches itself, matching spec §4.3 "Recursive type reference: fails with
// NoClass on parsing; never reaches the planner."
func (s *Schema) checkRecursion() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(s.Structs))
	var errs ddlerr.ParseErrorList

	var visit func(name string, path []string) bool
	visit = func(name string, path []string) bool {
		switch color[name] {
		case black:
			return true
		case gray:
			errs.Addf("recursive struct reference: %v -> %s: %w", path, name, ddlerr.ErrNoClass)
			return false
		}
		color[name] = gray
		st, ok := s.Structs[name]
		if !ok {
			color[name] = black
			return true
		}
		ok2 := true
		for _, el := range st.Elements {
			resolved, err := s.Resolve(el.TypeRef)
			if err != nil || resolved.Kind != RefStruct {
				continue
			}
			if !visit(resolved.Struct.Name, append(path, name)) {
				ok2 = false
			}
		}
		color[name] = black
		return ok2
	}

	for name := range s.Structs {
		if color[name] == white {
			visit(name, nil)
		}
	}
	return errs.AsError()
}
