// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import "github.com/binddl/binddl/unit"

// CompareFlags selects which aspects of two schemas Equal considers.
// Primitive kinds and widths, struct element counts and element type
// references are always compared. CompareUnits covers units, base units and
// prefixes together; there are no separate flags for base units, prefixes,
// visualization attributes or recursion control. CompareDescriptions is
// accepted but not consulted: the header's author and description are
// compared under CompareHeaderMeta unless CompareSubset is set.
type CompareFlags uint32

const (
	CompareLayout CompareFlags = 1 << iota // byte/bit positions, widths, byte order — "binary layout only"
	CompareNames
	CompareVersions
	CompareDescriptions
	CompareHeaderMeta
	CompareEnumValues
	CompareUnits

	// CompareSubset relaxes every comparison below to "every entity present
	// in b also exists in a and agrees there", instead of requiring a and b
	// to declare exactly the same set of entities.
	CompareSubset

	// CompareAll is every structural flag except CompareSubset.
	CompareAll = CompareLayout | CompareNames | CompareVersions | CompareDescriptions | CompareHeaderMeta | CompareEnumValues | CompareUnits
)

// Equal compares a and b at the granularity selected by flags.
func Equal(a, b *Schema, flags CompareFlags) bool {
	subset := flags&CompareSubset != 0

	if flags&CompareHeaderMeta != 0 && !equalHeader(a.Header, b.Header, subset) {
		return false
	}
	if flags&CompareUnits != 0 && !equalUnits(a.Units, b.Units, subset) {
		return false
	}
	if !compareMaps(a.Primitives, b.Primitives, subset, func(x, y *Primitive) bool {
		return equalPrimitive(x, y, flags)
	}) {
		return false
	}
	if flags&CompareEnumValues != 0 && !compareMaps(a.Enums, b.Enums, subset, equalEnum) {
		return false
	}
	if !compareMaps(a.Structs, b.Structs, subset, func(x, y *Struct) bool {
		return equalStruct(x, y, flags)
	}) {
		return false
	}
	return true
}

// compareMaps checks that every entity of b exists in a and is eq to it.
// When subset is false it additionally requires a and b to have the same
// number of entries, making the comparison exact in both directions.
func compareMaps[T any](a, b map[string]T, subset bool, eq func(T, T) bool) bool {
	if !subset && len(a) != len(b) {
		return false
	}
	for name, bv := range b {
		av, ok := a[name]
		if !ok || !eq(av, bv) {
			return false
		}
	}
	return true
}

func equalHeader(a, b Header, subset bool) bool {
	if a.LanguageVersion != b.LanguageVersion {
		return false
	}
	if !subset && (a.Author != b.Author || a.Description != b.Description) {
		return false
	}
	aDecls := make(map[string]string, len(a.ExtDeclarations))
	for _, d := range a.ExtDeclarations {
		aDecls[d.Key] = d.Value
	}
	for _, d := range b.ExtDeclarations {
		if v, ok := aDecls[d.Key]; !ok || v != d.Value {
			return false
		}
	}
	if !subset && len(a.ExtDeclarations) != len(b.ExtDeclarations) {
		return false
	}
	return true
}

func equalUnits(a, b *unit.Library, subset bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !compareUnitSlice(a.BaseUnits, b.BaseUnits, subset, func(x, y unit.BaseUnit) bool { return x == y }, func(u unit.BaseUnit) string { return u.Name }) {
		return false
	}
	if !compareUnitSlice(a.Prefixes, b.Prefixes, subset, func(x, y unit.Prefix) bool { return x == y }, func(p unit.Prefix) string { return p.Name }) {
		return false
	}
	if !compareUnitSlice(a.Units, b.Units, subset, equalUnitDef, func(u unit.Unit) string { return u.Name }) {
		return false
	}
	return true
}

func compareUnitSlice[T any](a, b []T, subset bool, eq func(T, T) bool, key func(T) string) bool {
	am := make(map[string]T, len(a))
	for _, v := range a {
		am[key(v)] = v
	}
	if !subset && len(a) != len(b) {
		return false
	}
	for _, bv := range b {
		av, ok := am[key(bv)]
		if !ok || !eq(av, bv) {
			return false
		}
	}
	return true
}

func equalUnitDef(a, b unit.Unit) bool {
	if a.Numerator != b.Numerator || a.Denominator != b.Denominator || a.Offset != b.Offset {
		return false
	}
	if len(a.RefUnits) != len(b.RefUnits) {
		return false
	}
	for i := range a.RefUnits {
		if a.RefUnits[i] != b.RefUnits[i] {
			return false
		}
	}
	return true
}

func equalPrimitive(a, b *Primitive, flags CompareFlags) bool {
	if a.Kind != b.Kind || a.BitWidth != b.BitWidth {
		return false
	}
	if flags&CompareNames != 0 && a.Name != b.Name {
		return false
	}
	if flags&CompareLayout == 0 {
		return true
	}
	if a.HasMin != b.HasMin || a.HasMax != b.HasMax || a.HasDefault != b.HasDefault {
		return false
	}
	if a.HasMin && a.Min != b.Min {
		return false
	}
	if a.HasMax && a.Max != b.Max {
		return false
	}
	if a.HasDefault && a.Default != b.Default {
		return false
	}
	return true
}

func equalEnum(a, b *Enum) bool {
	if a.UnderlyingRef != b.UnderlyingRef {
		return false
	}
	if len(a.Constants) != len(b.Constants) {
		return false
	}
	bv := make(map[string]int64, len(b.Constants))
	for _, c := range b.Constants {
		bv[c.Name] = c.Value
	}
	for _, c := range a.Constants {
		v, ok := bv[c.Name]
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

func equalStruct(a, b *Struct, flags CompareFlags) bool {
	if flags&CompareVersions != 0 && (a.Version != b.Version || a.LanguageVersion != b.LanguageVersion) {
		return false
	}
	if flags&CompareLayout != 0 && a.Alignment != b.Alignment {
		return false
	}
	if len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Elements {
		if !equalElement(&a.Elements[i], &b.Elements[i], flags) {
			return false
		}
	}
	return true
}

func equalElement(a, b *Element, flags CompareFlags) bool {
	if flags&CompareNames != 0 && a.Name != b.Name {
		return false
	}
	if a.TypeRef != b.TypeRef {
		return false
	}
	if flags&CompareLayout != 0 {
		if a.BytePos != b.BytePos || a.BitPos != b.BitPos || a.NumBits != b.NumBits {
			return false
		}
		if a.ByteOrder != b.ByteOrder || a.Alignment != b.Alignment {
			return false
		}
		if a.Array != b.Array {
			return false
		}
	}
	return true
}
