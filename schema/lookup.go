// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import (
	"fmt"

	"github.com/binddl/binddl/ddlerr"
)

// RefKind tags what kind of entity an Element.TypeRef or Enum.UnderlyingRef
// resolves to.
type RefKind uint8

const (
	RefPrimitive RefKind = iota
	RefEnum
	RefStruct
)

// ResolvedType is the result of resolving a type reference: which kind of
// entity it names, plus the concrete entity (exactly one of the three
// pointers is non-nil).
type ResolvedType struct {
	Kind      RefKind
	Primitive *Primitive
	Enum      *Enum
	Struct    *Struct
}

// NaturalBitWidth returns the type's natural width in bits: the primitive's
// declared width, or the underlying primitive's width for an enum.
// For a struct it returns 0 and an ErrInvalidType error: a struct's size is
// only known to the layout planner.
func (r ResolvedType) NaturalBitWidth(s *Schema) (int, error) {
	switch r.Kind {
	case RefPrimitive:
		return r.Primitive.BitWidth, nil
	case RefEnum:
		p, ok := s.Primitives[r.Enum.UnderlyingRef]
		if !ok {
			return 0, fmt.Errorf("schema: enum %q has unknown underlying type %q: %w", r.Enum.Name, r.Enum.UnderlyingRef, ddlerr.ErrNoClass)
		}
		return p.BitWidth, nil
	default:
		return 0, fmt.Errorf("schema: struct natural width must be computed by the layout planner: %w", ddlerr.ErrInvalidType)
	}
}

// Resolve looks up name across primitives, enums and structs, in that
// order, matching the distillation's single flat type-reference namespace
// (a DDL schema never declares a primitive, enum and struct with the same
// name — Validate rejects that as a duplicate).
func (s *Schema) Resolve(name string) (ResolvedType, error) {
	if p, ok := s.Primitives[name]; ok {
		return ResolvedType{Kind: RefPrimitive, Primitive: p}, nil
	}
	if e, ok := s.Enums[name]; ok {
		return ResolvedType{Kind: RefEnum, Enum: e}, nil
	}
	if st, ok := s.Structs[name]; ok {
		return ResolvedType{Kind: RefStruct, Struct: st}, nil
	}
	return ResolvedType{}, fmt.Errorf("schema: unknown type %q: %w", name, ddlerr.ErrNoClass)
}

// Struct looks up a complex type by name.
func (s *Schema) Struct(name string) (*Struct, error) {
	st, ok := s.Structs[name]
	if !ok {
		return nil, fmt.Errorf("schema: struct %q: %w", name, ddlerr.ErrNotFound)
	}
	return st, nil
}

// Element looks up a named field of the struct, used to resolve a dynamic
// array's sibling reference.
func (st *Struct) Element(name string) (*Element, int, error) {
	for i := range st.Elements {
		if st.Elements[i].Name == name {
			return &st.Elements[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("schema: struct %q has no element %q: %w", st.Name, name, ddlerr.ErrNotFound)
}
