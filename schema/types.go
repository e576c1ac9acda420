// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package schema is the in-memory representation of a DDL document:
// primitive types, complex (struct) types, enumerations, units, streams and
// header metadata, together with validation, merge, clone and comparison
// operations (spec §4.2 "Schema Model").
package schema

import "github.com/binddl/binddl/unit"

// ByteOrder is the wire byte order of a struct element (spec §6.2).
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// PrimitiveKind distinguishes the three families of primitive type.
type PrimitiveKind uint8

const (
	KindUnsignedInt PrimitiveKind = iota
	KindSignedInt
	KindFloat
)

// Primitive is a leaf type: an integer or floating-point value of a fixed
// bit width, with optional unit reference and value bounds (spec §3
// "Primitive type").
type Primitive struct {
	Name     string
	Kind     PrimitiveKind
	BitWidth int // integers: 8/16/32/64; floats: 32/64

	Unit string // name of a unit.Unit, empty if none

	HasMin, HasMax, HasDefault bool
	Min, Max, Default          float64
}

// NumericBound exposes the optional min/max/default triple shared by
// primitives, struct elements and enum-typed fields, used by the validator
// and by schema/expr.go's symbol resolution.
type NumericBound struct {
	HasMin, HasMax, HasDefault bool
	Min, Max, Default          float64
}

// EnumConstant is one symbolic name/value pair of an Enum.
type EnumConstant struct {
	Name  string
	Value int64
}

// Enum is a named set of integer constants over an underlying integer
// primitive (spec §3 "Enumeration").
type Enum struct {
	Name          string
	UnderlyingRef string // name of the underlying Primitive
	Constants     []EnumConstant
}

// ValueOf returns the integer value of the named constant.
func (e *Enum) ValueOf(name string) (int64, bool) {
	for _, c := range e.Constants {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// ArraySize is either a literal element count or the name of a sibling
// element whose runtime value supplies the count (spec §3 "Struct element").
type ArraySize struct {
	Literal    int
	SiblingRef string // non-empty when the array size is dynamic
}

// IsDynamic reports whether the array's length is resolved at decode time
// from a sibling element rather than being a compile-time literal.
func (a ArraySize) IsDynamic() bool {
	return a.SiblingRef != ""
}

// Element is one field of a Struct (spec §3 "Struct element").
type Element struct {
	Name    string
	TypeRef string // name of a Primitive, Enum or Struct

	BytePos int // >= 0, or -1 meaning "immediately after the previous element"
	BitPos  int // [0,7]
	NumBits int // 0 means "use the referenced type's natural width"

	Array ArraySize

	ByteOrder ByteOrder
	Alignment int

	HasConstant bool
	Constant    float64

	NumericBound
	HasScale, HasOffset bool
	Scale, Offset       float64
}

// EffectiveNumBits returns NumBits if set, or falls back to the natural
// width of the referenced primitive (resolved by the caller), matching
// spec §4.3 point 1's "declared bit width" rule for primitives.
func (e *Element) EffectiveNumBits(naturalWidth int) int {
	if e.NumBits > 0 {
		return e.NumBits
	}
	return naturalWidth
}

// Struct is a complex (composite) type: an ordered, named list of elements
// (spec §3 "Complex type").
type Struct struct {
	Name      string
	Version   string
	Alignment int
	Elements  []Element

	// LanguageVersion gates struct-end alignment padding (spec §4.3 point 6,
	// §6.1 "Language version tags"): no padding below 3.0.
	LanguageVersion string
}

// StreamStruct is one embedded struct reference inside a Stream.
type StreamStruct struct {
	BytePos  int
	TypeRef  string
}

// Stream is a top-level data channel rooted at a struct (spec §3 "Stream").
type Stream struct {
	Name        string
	RootRef     string
	Description string
	Structs     []StreamStruct
}

// ExtDeclaration is one free-form key/value pair of a Header
// (spec §6.1 "ext_declaration").
type ExtDeclaration struct {
	Key   string
	Value string
}

// Header carries schema-wide metadata (spec §3 "Header").
type Header struct {
	LanguageVersion string
	Author          string
	DateCreation    string
	DateChange      string
	Description     string
	ExtDeclarations []ExtDeclaration
}

// Value looks up an ext_declaration by key; used as one of expr.go's two
// symbol-table sources.
func (h *Header) Value(key string) (string, bool) {
	for _, d := range h.ExtDeclarations {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// Schema is a fully or partially loaded DDL document: the header, unit
// library, primitives, enums, structs and streams it declares.
//
// A Schema produced by Load is immutable for the lifetime of any codec
// built from it (spec §3 "Lifecycle"); mutating helpers (Merge, editing
// entry points) always operate on or return a distinct Schema value.
type Schema struct {
	Header Header
	Units  *unit.Library

	Primitives map[string]*Primitive
	Enums      map[string]*Enum
	Structs    map[string]*Struct
	Streams    map[string]*Stream

	// Valid is false for a schema that parsed but could not fully resolve
	// against its base (spec §4.2 "Failure model": "partial schemas ... are
	// marked invalid but retained").
	Valid bool
}

// New returns an empty, valid Schema with no base units loaded.
func New() *Schema {
	return &Schema{
		Units:      &unit.Library{},
		Primitives: map[string]*Primitive{},
		Enums:      map[string]*Enum{},
		Structs:    map[string]*Struct{},
		Streams:    map[string]*Stream{},
		Valid:      true,
	}
}
