// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import (
	"errors"
	"testing"

	"github.com/binddl/binddl/ddlerr"
)

const sampleDoc = `<?xml version="1.0"?>
<ddl>
  <header language_version="4.0" author="tester">
    <description>sample</description>
    <ext_declaration key="BASE_OFFSET" value="10"/>
  </header>
  <datatypes>
    <datatype name="tUInt8" size="8"/>
    <datatype name="tUInt16" size="16"/>
    <datatype name="tInt16" size="16"/>
  </datatypes>
  <enums>
    <enum name="Color" type="tUInt8">
      <element name="RED" value="1"/>
      <element name="GREEN" value="2"/>
    </enum>
  </enums>
  <structs>
    <struct name="Point" alignment="1" version="1.0" ddlversion="4.0">
      <element type="tUInt16" name="x" bytepos="0" byteorder="LE"/>
      <element type="tUInt16" name="y" bytepos="2" byteorder="LE"/>
      <element type="tUInt8" name="len" bytepos="4" byteorder="LE" min="0" max="10"/>
      <element type="tUInt8" name="data" bytepos="5" byteorder="LE" arraysize="len"/>
    </struct>
  </structs>
</ddl>`

func TestLoadParsesStructsAndEnums(t *testing.T) {
	s, err := Load(sampleDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Valid {
		t.Fatalf("expected schema to be valid")
	}
	st, err := s.Struct("Point")
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if len(st.Elements) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(st.Elements))
	}
	dataEl, _, err := st.Element("data")
	if err != nil {
		t.Fatalf("Element: %v", err)
	}
	if !dataEl.Array.IsDynamic() || dataEl.Array.SiblingRef != "len" {
		t.Fatalf("expected dynamic array referencing len, got %+v", dataEl.Array)
	}

	lenEl, _, _ := st.Element("len")
	if !lenEl.HasMin || lenEl.Min != 0 || !lenEl.HasMax || lenEl.Max != 10 {
		t.Fatalf("expected len min/max parsed, got %+v", lenEl.NumericBound)
	}

	color := s.Enums["Color"]
	if v, ok := color.ValueOf("GREEN"); !ok || v != 2 {
		t.Fatalf("expected GREEN=2, got %d ok=%v", v, ok)
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadRejectsUnknownTypeReference(t *testing.T) {
	const bad = `<ddl><structs><struct name="S"><element type="NoSuchType" name="a" bytepos="0"/></struct></structs></ddl>`
	s, err := Load(bad)
	if err == nil {
		t.Fatalf("expected error for unknown type reference")
	}
	if !errors.Is(err, ddlerr.ErrNoClass) {
		t.Fatalf("expected ErrNoClass, got %v", err)
	}
	if s.Valid {
		t.Fatalf("expected schema to be marked invalid")
	}
}

func TestValidateDetectsRecursion(t *testing.T) {
	s := New()
	s.Structs["A"] = &Struct{Name: "A", Elements: []Element{{Name: "b", TypeRef: "B"}}}
	s.Structs["B"] = &Struct{Name: "B", Elements: []Element{{Name: "a", TypeRef: "A"}}}
	err := s.Validate()
	if !errors.Is(err, ddlerr.ErrNoClass) {
		t.Fatalf("expected ErrNoClass for recursive structs, got %v", err)
	}
}

func TestValidateRejectsNumbitsWithArrayGreaterThanOne(t *testing.T) {
	s := New()
	s.Primitives["tUInt8"] = &Primitive{Name: "tUInt8", Kind: KindUnsignedInt, BitWidth: 8}
	s.Structs["S"] = &Struct{Name: "S", Elements: []Element{
		{Name: "a", TypeRef: "tUInt8", NumBits: 4, Array: ArraySize{Literal: 3}},
	}}
	err := s.Validate()
	if !errors.Is(err, ddlerr.ErrInvalidArg) {
		t.Fatalf("expected ErrInvalidArg, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s, err := Load(sampleDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	clone := s.Clone()
	clone.Structs["Point"].Elements[0].Name = "mutated"
	if s.Structs["Point"].Elements[0].Name == "mutated" {
		t.Fatalf("expected clone to be independent")
	}
	clone.Enums["Color"].Constants[0].Value = 999
	if s.Enums["Color"].Constants[0].Value == 999 {
		t.Fatalf("expected cloned enum constants to be independent")
	}
}

func TestEqualLayoutGranularity(t *testing.T) {
	s, err := Load(sampleDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	clone := s.Clone()
	if !Equal(s, clone, CompareAll) {
		t.Fatalf("expected identical clone to compare equal under CompareAll")
	}
	clone.Structs["Point"].Elements[0].BytePos = 99
	if Equal(s, clone, CompareLayout) {
		t.Fatalf("expected layout comparison to catch bytepos change")
	}
	if !Equal(s, clone, CompareEnumValues) {
		t.Fatalf("expected enum-only comparison to ignore struct layout change")
	}
}

func TestMergeKeepsBaseOnConflictUnlessOverwrite(t *testing.T) {
	base := New()
	base.Primitives["tUInt8"] = &Primitive{Name: "tUInt8", Kind: KindUnsignedInt, BitWidth: 8}
	other := New()
	other.Primitives["tUInt8"] = &Primitive{Name: "tUInt8", Kind: KindUnsignedInt, BitWidth: 16}
	other.Primitives["tUInt16"] = &Primitive{Name: "tUInt16", Kind: KindUnsignedInt, BitWidth: 16}

	base.Merge(other, false)
	if base.Primitives["tUInt8"].BitWidth != 8 {
		t.Fatalf("expected base to win without overwrite")
	}
	if _, ok := base.Primitives["tUInt16"]; !ok {
		t.Fatalf("expected new entity to be added by merge")
	}

	base.Merge(other, true)
	if base.Primitives["tUInt8"].BitWidth != 16 {
		t.Fatalf("expected overwrite merge to replace conflicting entity")
	}
}

func TestExprEvaluatorResolvesEnumAndHeaderSymbols(t *testing.T) {
	s, err := Load(sampleDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	eval := NewExprEvaluator(s)

	f, err := eval.Eval("GREEN")
	if err != nil {
		t.Fatalf("Eval(GREEN): %v", err)
	}
	if f != 2 {
		t.Fatalf("expected GREEN to resolve to 2, got %v", f)
	}

	f, err = eval.Eval("BASE_OFFSET + 5")
	if err != nil {
		t.Fatalf("Eval(BASE_OFFSET + 5): %v", err)
	}
	if f != 15 {
		t.Fatalf("expected 15, got %v", f)
	}

	f, err = eval.Eval("42")
	if err != nil || f != 42 {
		t.Fatalf("expected literal passthrough, got %v %v", f, err)
	}
}
