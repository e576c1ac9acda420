// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/unit"
)

// No third-party XML library appears in any example repo's go.mod or
// import graph (DESIGN.md "Grounding per part"); the DDL document grammar
// (spec §6.1) is a plain attribute-heavy element tree with no namespaces,
// so stdlib encoding/xml's struct-tag unmarshaling is a direct fit.

type xmlDoc struct {
	XMLName xml.Name     `xml:"ddl"`
	Header  xmlHeader    `xml:"header"`
	Units   xmlUnits     `xml:"units"`
	Types   xmlDatatypes `xml:"datatypes"`
	Enums   xmlEnums     `xml:"enums"`
	Structs xmlStructs   `xml:"structs"`
	Streams xmlStreams   `xml:"streams"`
}

type xmlHeader struct {
	LanguageVersion string        `xml:"language_version,attr"`
	Author          string        `xml:"author"`
	DateCreation    string        `xml:"date_creation"`
	DateChange      string        `xml:"date_change"`
	Description     string        `xml:"description"`
	ExtDeclarations []xmlExtDecl  `xml:"ext_declaration"`
}

type xmlExtDecl struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

type xmlUnits struct {
	BaseUnits []xmlBaseUnit `xml:"baseunit"`
	Prefixes  []xmlPrefix   `xml:"prefixes"`
	Units     []xmlUnit     `xml:"unit"`
}

type xmlBaseUnit struct {
	Name        string `xml:"name,attr"`
	Symbol      string `xml:"symbol,attr"`
	Description string `xml:"description,attr"`
}

type xmlPrefix struct {
	Name   string `xml:"name,attr"`
	Symbol string `xml:"symbol,attr"`
	Power  string `xml:"power,attr"`
}

type xmlUnit struct {
	Name        string       `xml:"name,attr"`
	Numerator   string       `xml:"numerator"`
	Denominator string       `xml:"denominator"`
	Offset      string       `xml:"offset"`
	RefUnits    []xmlRefUnit `xml:"refUnit"`
}

type xmlRefUnit struct {
	Name   string `xml:"name,attr"`
	Power  string `xml:"power,attr"`
	Prefix string `xml:"prefix,attr"`
}

type xmlDatatypes struct {
	Datatypes []xmlDatatype `xml:"datatype"`
}

type xmlDatatype struct {
	Name        string `xml:"name,attr"`
	Size        string `xml:"size,attr"`
	Unit        string `xml:"unit,attr"`
	Min         string `xml:"min,attr"`
	Max         string `xml:"max,attr"`
	Default     string `xml:"default,attr"`
	Description string `xml:"description,attr"`
}

type xmlEnums struct {
	Enums []xmlEnum `xml:"enum"`
}

type xmlEnum struct {
	Name     string             `xml:"name,attr"`
	Type     string             `xml:"type,attr"`
	Elements []xmlEnumConstant  `xml:"element"`
}

type xmlEnumConstant struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlStructs struct {
	Structs []xmlStruct `xml:"struct"`
}

type xmlStruct struct {
	Name       string       `xml:"name,attr"`
	Version    string       `xml:"version,attr"`
	Alignment  string       `xml:"alignment,attr"`
	DdlVersion string       `xml:"ddlversion,attr"`
	Elements   []xmlElement `xml:"element"`
}

type xmlElement struct {
	Type      string `xml:"type,attr"`
	Name      string `xml:"name,attr"`
	BytePos   string `xml:"bytepos,attr"`
	BitPos    string `xml:"bitpos,attr"`
	NumBits   string `xml:"numbits,attr"`
	ByteOrder string `xml:"byteorder,attr"`
	Alignment string `xml:"alignment,attr"`
	ArraySize string `xml:"arraysize,attr"`
	Value     string `xml:"value,attr"`
	Min       string `xml:"min,attr"`
	Max       string `xml:"max,attr"`
	Default   string `xml:"default,attr"`
	Scale     string `xml:"scale,attr"`
	Offset    string `xml:"offset,attr"`
}

type xmlStreams struct {
	Streams []xmlStream `xml:"stream"`
}

type xmlStream struct {
	Name        string            `xml:"name,attr"`
	Type        string            `xml:"type,attr"`
	Description string            `xml:"description,attr"`
	Structs     []xmlStreamStruct `xml:"struct"`
}

type xmlStreamStruct struct {
	BytePos string `xml:"bytepos,attr"`
	Type    string `xml:"type,attr"`
}

// Load parses a complete DDL document. Every error encountered — malformed
// XML, an undefined type reference, a recursive struct, an out-of-range
// value — is accumulated into a ParseErrorList and returned as a single
// failing result (spec §4.2 "Failure model").
func Load(xmlText string) (*Schema, error) {
	return LoadPartial(xmlText, nil)
}

// LoadPartial parses xmlText and merges it onto base (if non-nil), so a
// schema's <structs> can reference a datatype or unit declared only in the
// base document. The supplemented "partial schema" entry point
// (SPEC_FULL §6).
func LoadPartial(xmlText string, base *Schema) (*Schema, error) {
	var doc xmlDoc
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		return nil, fmt.Errorf("schema: parsing XML: %w", ddlerr.ErrUnknownFormat)
	}

	s := New()
	if base != nil {
		s.Merge(base, false)
	}

	var errs ddlerr.ParseErrorList
	convertHeader(doc.Header, s)
	convertUnits(doc.Units, s, &errs)
	convertDatatypes(doc.Types, s, &errs)
	convertEnums(doc.Enums, s, &errs)

	eval := NewExprEvaluator(s)
	convertStructs(doc.Structs, s, eval, &errs)
	convertStreams(doc.Streams, s, &errs)
	errs.Add(s.Validate())

	if errs.HasErrors() {
		s.Valid = false
		return s, fmt.Errorf("schema: %w", &errs)
	}
	s.Valid = true
	return s, nil
}

func convertHeader(h xmlHeader, s *Schema) {
	if h.LanguageVersion != "" {
		s.Header.LanguageVersion = h.LanguageVersion
	}
	if h.Author != "" {
		s.Header.Author = h.Author
	}
	if h.DateCreation != "" {
		s.Header.DateCreation = h.DateCreation
	}
	if h.DateChange != "" {
		s.Header.DateChange = h.DateChange
	}
	if h.Description != "" {
		s.Header.Description = h.Description
	}
	for _, d := range h.ExtDeclarations {
		s.Header.ExtDeclarations = append(s.Header.ExtDeclarations, ExtDeclaration{Key: d.Key, Value: d.Value})
	}
}

func convertUnits(u xmlUnits, s *Schema, errs *ddlerr.ParseErrorList) {
	if s.Units == nil {
		s.Units = &unit.Library{}
	}
	for _, b := range u.BaseUnits {
		s.Units.BaseUnits = append(s.Units.BaseUnits, unit.BaseUnit{Name: b.Name, Symbol: b.Symbol, Description: b.Description})
	}
	for _, p := range u.Prefixes {
		power, err := strconv.Atoi(p.Power)
		if err != nil {
			errs.Addf("prefix %q: invalid power %q: %w", p.Name, p.Power, ddlerr.ErrInvalidArg)
			continue
		}
		s.Units.Prefixes = append(s.Units.Prefixes, unit.Prefix{Name: p.Name, Symbol: p.Symbol, Power: power})
	}
	for _, uu := range u.Units {
		parsed := unit.Unit{Name: uu.Name}
		parsed.Numerator = parseFloatOr(uu.Numerator, 1)
		parsed.Denominator = parseFloatOr(uu.Denominator, 1)
		parsed.Offset = parseFloatOr(uu.Offset, 0)
		for _, r := range uu.RefUnits {
			power, _ := strconv.Atoi(r.Power)
			parsed.RefUnits = append(parsed.RefUnits, unit.RefUnit{BaseUnit: r.Name, Prefix: r.Prefix, Power: power})
		}
		s.Units.Units = append(s.Units.Units, parsed)
	}
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func convertDatatypes(t xmlDatatypes, s *Schema, errs *ddlerr.ParseErrorList) {
	for _, d := range t.Datatypes {
		size, err := strconv.Atoi(d.Size)
		if err != nil {
			errs.Addf("datatype %q: invalid size %q: %w", d.Name, d.Size, ddlerr.ErrInvalidArg)
			continue
		}
		kind := KindUnsignedInt
		if strings.HasPrefix(d.Name, "tFloat") || strings.HasPrefix(d.Name, "f") {
			kind = KindFloat
		} else if strings.HasPrefix(d.Name, "tInt") || strings.HasPrefix(d.Name, "i") {
			kind = KindSignedInt
		}
		p := &Primitive{Name: d.Name, Kind: kind, BitWidth: size, Unit: d.Unit}
		if d.Min != "" {
			p.HasMin, p.Min = true, parseFloatOr(d.Min, 0)
		}
		if d.Max != "" {
			p.HasMax, p.Max = true, parseFloatOr(d.Max, 0)
		}
		if d.Default != "" {
			p.HasDefault, p.Default = true, parseFloatOr(d.Default, 0)
		}
		if _, exists := s.Primitives[p.Name]; exists {
			errs.Addf("duplicate datatype name %q: %w", p.Name, ddlerr.ErrInvalidArg)
			continue
		}
		s.Primitives[p.Name] = p
	}
}

func convertEnums(e xmlEnums, s *Schema, errs *ddlerr.ParseErrorList) {
	for _, en := range e.Enums {
		if _, exists := s.Enums[en.Name]; exists {
			errs.Addf("duplicate enum name %q: %w", en.Name, ddlerr.ErrInvalidArg)
			continue
		}
		out := &Enum{Name: en.Name, UnderlyingRef: en.Type}
		seen := map[string]bool{}
		for _, el := range en.Elements {
			if seen[el.Name] {
				errs.Addf("enum %q: duplicate constant %q: %w", en.Name, el.Name, ddlerr.ErrInvalidArg)
				continue
			}
			seen[el.Name] = true
			v, err := strconv.ParseInt(el.Value, 10, 64)
			if err != nil {
				errs.Addf("enum %q, constant %q: invalid value %q: %w", en.Name, el.Name, el.Value, ddlerr.ErrInvalidArg)
				continue
			}
			out.Constants = append(out.Constants, EnumConstant{Name: el.Name, Value: v})
		}
		s.Enums[en.Name] = out
	}
}

func convertStructs(st xmlStructs, s *Schema, eval *ExprEvaluator, errs *ddlerr.ParseErrorList) {
	for _, xs := range st.Structs {
		if _, exists := s.Structs[xs.Name]; exists {
			errs.Addf("duplicate struct name %q: %w", xs.Name, ddlerr.ErrInvalidArg)
			continue
		}
		out := &Struct{
			Name:            xs.Name,
			Version:         xs.Version,
			LanguageVersion: xs.DdlVersion,
			Alignment:       int(parseFloatOr(xs.Alignment, 1)),
		}
		if out.Alignment == 0 {
			out.Alignment = 1
		}
		for _, xe := range xs.Elements {
			el := Element{
				Name:    xe.Name,
				TypeRef: xe.Type,
			}
			el.BytePos = int(parseFloatOr(xe.BytePos, -1))
			el.BitPos = int(parseFloatOr(xe.BitPos, 0))
			el.NumBits = int(parseFloatOr(xe.NumBits, 0))
			el.Alignment = int(parseFloatOr(xe.Alignment, 1))
			if el.Alignment == 0 {
				el.Alignment = 1
			}
			if strings.EqualFold(xe.ByteOrder, "BE") {
				el.ByteOrder = BigEndian
			} else {
				el.ByteOrder = LittleEndian
			}
			el.Array = parseArraySizeAttr(xe.ArraySize, eval, errs)

			if xe.Value != "" {
				el.HasConstant = true
				el.Constant = evalAttr(xe.Value, eval, xs.Name, xe.Name, "value", errs)
			}
			if xe.Min != "" {
				el.HasMin = true
				el.Min = evalAttr(xe.Min, eval, xs.Name, xe.Name, "min", errs)
			}
			if xe.Max != "" {
				el.HasMax = true
				el.Max = evalAttr(xe.Max, eval, xs.Name, xe.Name, "max", errs)
			}
			if xe.Default != "" {
				el.HasDefault = true
				el.Default = evalAttr(xe.Default, eval, xs.Name, xe.Name, "default", errs)
			}
			if xe.Scale != "" {
				el.HasScale = true
				el.Scale = evalAttr(xe.Scale, eval, xs.Name, xe.Name, "scale", errs)
			}
			if xe.Offset != "" {
				el.HasOffset = true
				el.Offset = evalAttr(xe.Offset, eval, xs.Name, xe.Name, "offset", errs)
			}
			out.Elements = append(out.Elements, el)
		}
		s.Structs[xs.Name] = out
	}
}

// evalAttr resolves a numeric attribute that DDL allows to be either a
// literal or a symbolic expression (schema/expr.go), recording a failure in
// errs and returning 0 rather than aborting the whole parse, so the rest of
// the document is still converted and validated.
func evalAttr(raw string, eval *ExprEvaluator, structName, elemName, attr string, errs *ddlerr.ParseErrorList) float64 {
	f, err := eval.Eval(raw)
	if err != nil {
		errs.Addf("struct %q, element %q: %s %q: %v", structName, elemName, attr, raw, err)
		return 0
	}
	return f
}

// parseArraySizeAttr resolves an arraysize attribute: a literal integer, or
// the name of a sibling element whose runtime value supplies the count
// (resolved later, when the layout is expanded). Anything that is not a
// plain integer is kept as SiblingRef; arraysize is never evaluated as an
// expression, so a name that matches no sibling element is reported by
// Validate and cannot be expanded by the layout planner.
func parseArraySizeAttr(raw string, eval *ExprEvaluator, errs *ddlerr.ParseErrorList) ArraySize {
	if raw == "" {
		return ArraySize{Literal: 1}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return ArraySize{Literal: n}
	}
	return ArraySize{SiblingRef: raw}
}

func convertStreams(st xmlStreams, s *Schema, errs *ddlerr.ParseErrorList) {
	for _, xs := range st.Streams {
		if _, exists := s.Streams[xs.Name]; exists {
			errs.Addf("duplicate stream name %q: %w", xs.Name, ddlerr.ErrInvalidArg)
			continue
		}
		out := &Stream{Name: xs.Name, RootRef: xs.Type, Description: xs.Description}
		for _, s2 := range xs.Structs {
			bp, _ := strconv.Atoi(s2.BytePos)
			out.Structs = append(out.Structs, StreamStruct{BytePos: bp, TypeRef: s2.Type})
		}
		s.Streams[xs.Name] = out
	}
}
