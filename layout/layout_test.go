// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package layout

import (
	"testing"

	"github.com/binddl/binddl/schema"
)

func newTestSchema() *schema.Schema {
	s := schema.New()
	s.Primitives["tUInt8"] = &schema.Primitive{Name: "tUInt8", Kind: schema.KindUnsignedInt, BitWidth: 8}
	s.Primitives["tUInt16"] = &schema.Primitive{Name: "tUInt16", Kind: schema.KindUnsignedInt, BitWidth: 16}
	s.Primitives["tUInt32"] = &schema.Primitive{Name: "tUInt32", Kind: schema.KindUnsignedInt, BitWidth: 32}
	return s
}

// TestDynamicArrayShrinksToZero grounds spec §8 scenario S5: a struct whose
// trailing array is sized by a sibling that reads back as 0 must produce no
// leaves for that array and a layout whose size reflects only the header.
func TestDynamicArrayShrinksToZero(t *testing.T) {
	s := newTestSchema()
	s.Structs["M"] = &schema.Struct{
		Name:      "M",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "count", TypeRef: "tUInt8", BytePos: 0},
			{Name: "items", TypeRef: "tUInt16", BytePos: -1, Array: schema.ArraySize{SiblingRef: "count"}},
		},
	}

	l, err := Plan(s, "M")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	leaves, serBits, desBits, err := l.Expand(func(path string, placed []LeafElement) (int64, error) {
		if path == "count" {
			return 0, nil
		}
		t.Fatalf("unexpected length lookup for %q", path)
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(leaves) != 1 {
		t.Fatalf("expected exactly the count leaf, got %d leaves: %+v", len(leaves), leaves)
	}
	if serBits != 8 || desBits != 8 {
		t.Fatalf("expected 8/8 bits with a zero-length array, got ser=%d des=%d", serBits, desBits)
	}
}

// TestDynamicArrayExpandsToResolvedLength exercises the same struct with a
// non-zero runtime count and checks the repeated leaves' offsets.
func TestDynamicArrayExpandsToResolvedLength(t *testing.T) {
	s := newTestSchema()
	s.Structs["M"] = &schema.Struct{
		Name:      "M",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "count", TypeRef: "tUInt8", BytePos: 0},
			{Name: "items", TypeRef: "tUInt16", BytePos: -1, Array: schema.ArraySize{SiblingRef: "count"}},
		},
	}

	l, err := Plan(s, "M")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	leaves, _, _, err := l.Expand(func(path string, placed []LeafElement) (int64, error) { return 3, nil })
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(leaves) != 4 {
		t.Fatalf("expected count + 3 items, got %d", len(leaves))
	}
	wantPaths := []string{"count", "items[0]", "items[1]", "items[2]"}
	for i, p := range wantPaths {
		if leaves[i].Path != p {
			t.Fatalf("leaf %d: expected path %q, got %q", i, p, leaves[i].Path)
		}
	}
	if leaves[1].SerBitOffset != 8 || leaves[2].SerBitOffset != 24 || leaves[3].SerBitOffset != 40 {
		t.Fatalf("expected tightly packed 16-bit items, got offsets %d/%d/%d",
			leaves[1].SerBitOffset, leaves[2].SerBitOffset, leaves[3].SerBitOffset)
	}
}

// TestNestedStructOffsetsByParentPosition grounds spec §4.3 point 5: a
// struct-typed element's fields are recursively laid out and then shifted by
// the parent element's starting position.
func TestNestedStructOffsetsByParentPosition(t *testing.T) {
	s := newTestSchema()
	s.Structs["Point"] = &schema.Struct{
		Name:      "Point",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "x", TypeRef: "tUInt16", BytePos: 0},
			{Name: "y", TypeRef: "tUInt16", BytePos: 2},
		},
	}
	s.Structs["Line"] = &schema.Struct{
		Name:      "Line",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "pad", TypeRef: "tUInt8", BytePos: 0},
			{Name: "from", TypeRef: "Point", BytePos: 1},
			{Name: "to", TypeRef: "Point", BytePos: -1},
		},
	}

	l, err := Plan(s, "Line")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	leaves, _, _, err := l.Expand(ZeroLengthResolver)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(leaves) != 5 {
		t.Fatalf("expected pad, from.x, from.y, to.x, to.y; got %d", len(leaves))
	}
	if leaves[1].Path != "from.x" || leaves[1].SerBitOffset != 8 {
		t.Fatalf("expected from.x at bit 8, got %+v", leaves[1])
	}
	if leaves[2].Path != "from.y" || leaves[2].SerBitOffset != 24 {
		t.Fatalf("expected from.y at bit 24, got %+v", leaves[2])
	}
	if leaves[3].Path != "to.x" || leaves[3].SerBitOffset != 40 {
		t.Fatalf("expected to.x immediately after from.y (tight packing), got %+v", leaves[3])
	}
}

// TestStructEndAlignmentGatedByLanguageVersion grounds the version-gated
// struct-end padding rule (spec §4.3 point 6): a struct of alignment 4 whose
// only element is one byte wide is padded up to 4 bytes on version >= 3 and
// left at 1 byte below that.
func TestStructEndAlignmentGatedByLanguageVersion(t *testing.T) {
	s := newTestSchema()
	build := func(version string) *schema.Schema {
		cp := newTestSchema()
		cp.Structs["S"] = &schema.Struct{
			Name:            "S",
			Alignment:       4,
			LanguageVersion: version,
			Elements: []schema.Element{
				{Name: "a", TypeRef: "tUInt8", BytePos: 0},
			},
		}
		return cp
	}
	_ = s

	for _, tc := range []struct {
		version  string
		wantBits int
	}{
		{"2.0", 8},
		{"4.0", 32},
	} {
		doc := build(tc.version)
		l, err := Plan(doc, "S")
		if err != nil {
			t.Fatalf("Plan(%s): %v", tc.version, err)
		}
		_, serBits, desBits, err := l.Expand(ZeroLengthResolver)
		if err != nil {
			t.Fatalf("Expand(%s): %v", tc.version, err)
		}
		if serBits != tc.wantBits || desBits != tc.wantBits {
			t.Fatalf("version %s: expected %d bits, got ser=%d des=%d", tc.version, tc.wantBits, serBits, desBits)
		}
	}
}

// TestDeserializedAlignmentPadsBeforeWiderElement grounds the deserialized
// natural-alignment rule: a wider element following a narrower one is padded
// up to its own alignment even though the serialized form stays packed.
func TestDeserializedAlignmentPadsBeforeWiderElement(t *testing.T) {
	s := newTestSchema()
	s.Structs["S"] = &schema.Struct{
		Name:      "S",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "flag", TypeRef: "tUInt8", BytePos: 0, Alignment: 1},
			{Name: "value", TypeRef: "tUInt32", BytePos: -1, Alignment: 4},
		},
	}
	l, err := Plan(s, "S")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	leaves, serBits, desBits, err := l.Expand(ZeroLengthResolver)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if leaves[1].SerBitOffset != 8 {
		t.Fatalf("expected value tightly packed at bit 8 in serialized form, got %d", leaves[1].SerBitOffset)
	}
	if leaves[1].DesBitOffset != 32 {
		t.Fatalf("expected value padded to bit 32 (byte 4) in deserialized form, got %d", leaves[1].DesBitOffset)
	}
	if serBits != 40 || desBits != 64 {
		t.Fatalf("expected ser=40 des=64, got ser=%d des=%d", serBits, desBits)
	}
}

func TestStaticElementCountIgnoresDynamicArray(t *testing.T) {
	s := newTestSchema()
	s.Structs["M"] = &schema.Struct{
		Name:      "M",
		Alignment: 1,
		Elements: []schema.Element{
			{Name: "count", TypeRef: "tUInt8", BytePos: 0},
			{Name: "items", TypeRef: "tUInt16", BytePos: -1, Array: schema.ArraySize{SiblingRef: "count"}},
		},
	}
	l, err := Plan(s, "M")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	n, err := l.StaticElementCount()
	if err != nil {
		t.Fatalf("StaticElementCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 static element, got %d", n)
	}
	size, err := l.StaticBufferSize(Serialized)
	if err != nil {
		t.Fatalf("StaticBufferSize: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected 1 byte static buffer, got %d", size)
	}
}

func TestPlanRejectsUnknownRootStruct(t *testing.T) {
	s := newTestSchema()
	if _, err := Plan(s, "DoesNotExist"); err == nil {
		t.Fatalf("expected error for unknown root struct")
	}
}
