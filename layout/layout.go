// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package layout computes, for a schema's root struct, the ordered list of
// leaf slots a codec needs: each leaf's bit offset and bit size in both the
// serialized and deserialized representations, its logical scalar kind,
// byte order, and optional enum/constant metadata (spec §4.3 "Layout
// Planner").
//
// Dynamic arrays (an element whose size is drawn from a sibling's runtime
// value) are resolved through a caller-supplied LengthResolver rather than
// eagerly, so the same Plan can answer both "how big is the static
// skeleton" (resolver always returns 0) and "expand this specific buffer"
// (resolver reads the sibling's value out of a decoder).
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binddl/binddl/bitio"
	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/schema"
)

// Representation selects which of the two layouts a bit offset belongs to.
type Representation uint8

const (
	Serialized Representation = iota
	Deserialized
)

// LeafElement is one static leaf slot of a planned layout (spec §3 "Layout
// elements").
type LeafElement struct {
	Path string
	Kind bitio.ScalarKind

	SerBitOffset, SerBitSize int
	DesBitOffset, DesBitSize int

	// ByteOrder applies to the serialized representation only; the
	// deserialized representation is always read/written LittleEndian,
	// since it models an internally-consistent in-memory buffer rather
	// than a real host's native order (DESIGN.md "Open Question
	// decisions").
	ByteOrder bitio.ByteOrder

	Enum *schema.Enum

	HasConstant bool
	Constant    float64
}

func (l LeafElement) offset(r Representation) (bitOffset, bitSize int) {
	if r == Serialized {
		return l.SerBitOffset, l.SerBitSize
	}
	return l.DesBitOffset, l.DesBitSize
}

// Offset returns the (bitOffset, bitSize) pair for the given representation.
func (l LeafElement) Offset(r Representation) (int, int) {
	return l.offset(r)
}

// LengthResolver returns the runtime element count for the dynamic array
// whose sibling-length element has the given dotted path (the full path
// from the root struct, e.g. "from.len" inside a nested element). Expand calls this once per dynamic
// array encountered, in layout order, passing every leaf placed so far so
// a resolver backed by a decoder buffer can read the sibling length as
// soon as its own leaf exists — it is never asked to resolve a path that
// hasn't been placed yet.
type LengthResolver func(path string, placedSoFar []LeafElement) (int64, error)

// ZeroLengthResolver always returns 0; used to plan a schema's static
// skeleton size without expanding any dynamic section (spec §4.5
// "static_buffer_size"/"static_element_count").
func ZeroLengthResolver(string, []LeafElement) (int64, error) { return 0, nil }

// Layout is the reusable, schema-derived plan for one root struct. It holds
// no buffer or runtime state; Expand walks it against a LengthResolver to
// produce a concrete leaf list.
type Layout struct {
	schema     *schema.Schema
	rootStruct string
}

// Plan validates that rootStruct exists and is resolvable, and returns a
// reusable Layout for it. The schema must already have passed Validate.
func Plan(s *schema.Schema, rootStruct string) (*Layout, error) {
	if _, err := s.Struct(rootStruct); err != nil {
		return nil, fmt.Errorf("layout: root struct %q: %w", rootStruct, err)
	}
	return &Layout{schema: s, rootStruct: rootStruct}, nil
}

// Expand walks the layout against resolveLen and returns the concrete leaf
// list plus the total size (in bits) of each representation.
func (l *Layout) Expand(resolveLen LengthResolver) (leaves []LeafElement, serBits, desBits int, err error) {
	st, err := l.schema.Struct(l.rootStruct)
	if err != nil {
		return nil, 0, 0, err
	}
	c := &cursor{}
	if err := layoutStruct(l.schema, st, "", c, resolveLen, &leaves); err != nil {
		return nil, 0, 0, err
	}
	return leaves, c.ser, c.des, nil
}

// StaticElementCount returns the number of leaves outside any dynamic
// section (spec §4.5 "static_element_count").
func (l *Layout) StaticElementCount() (int, error) {
	leaves, _, _, err := l.Expand(ZeroLengthResolver)
	if err != nil {
		return 0, err
	}
	return len(leaves), nil
}

// StaticBufferSize returns the byte size of the record's static skeleton
// for the given representation (spec §4.5 "static_buffer_size").
func (l *Layout) StaticBufferSize(r Representation) (int, error) {
	_, serBits, desBits, err := l.Expand(ZeroLengthResolver)
	if err != nil {
		return 0, err
	}
	bits := desBits
	if r == Serialized {
		bits = serBits
	}
	return (bits + 7) / 8, nil
}

type cursor struct {
	ser, des int
}

func roundUp(v, align int) int {
	if align <= 0 {
		return v
	}
	if v%align == 0 {
		return v
	}
	return v + (align - v%align)
}

func languageVersionMajor(v string) int {
	if v == "" {
		return 1
	}
	head := v
	if idx := strings.IndexByte(v, '.'); idx >= 0 {
		head = v[:idx]
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return 1
	}
	return n
}

// layoutStruct lays out st's elements in declaration order, starting at the
// current position of c, appending every leaf it produces to out.
func layoutStruct(s *schema.Schema, st *schema.Struct, pathPrefix string, c *cursor, resolveLen LengthResolver, out *[]LeafElement) error {
	serBase, desBase := c.ser, c.des

	for i := range st.Elements {
		el := &st.Elements[i]
		resolved, err := s.Resolve(el.TypeRef)
		if err != nil {
			return fmt.Errorf("layout: %s%s: %w", pathPrefix, el.Name, err)
		}

		if el.BytePos >= 0 {
			c.ser = serBase + el.BytePos*8 + el.BitPos
		}

		count, dynamic, err := arrayCount(el, resolveLen, pathPrefix, *out)
		if err != nil {
			return err
		}

		for idx := 0; idx < count; idx++ {
			path := pathPrefix + el.Name
			if dynamic || el.Array.Literal > 1 {
				path = fmt.Sprintf("%s%s[%d]", pathPrefix, el.Name, idx)
			}

			if resolved.Kind == schema.RefStruct {
				sub, err := s.Struct(el.TypeRef)
				if err != nil {
					return err
				}
				if err := layoutStruct(s, sub, path+".", c, resolveLen, out); err != nil {
					return err
				}
				continue
			}

			leaf, err := planLeaf(s, el, resolved, path)
			if err != nil {
				return err
			}
			placeLeaf(&leaf, el, c)
			*out = append(*out, leaf)
		}
	}

	if languageVersionMajor(st.LanguageVersion) >= 3 {
		alignBits := st.Alignment * 8
		c.ser = roundUp(c.ser-serBase, alignBits) + serBase
		c.des = roundUp(c.des-desBase, alignBits) + desBase
	}

	return nil
}

func arrayCount(el *schema.Element, resolveLen LengthResolver, pathPrefix string, placedSoFar []LeafElement) (count int, dynamic bool, err error) {
	if el.Array.IsDynamic() {
		n, err := resolveLen(pathPrefix+el.Array.SiblingRef, placedSoFar)
		if err != nil {
			return 0, true, fmt.Errorf("layout: resolving array size for %s%s: %w", pathPrefix, el.Name, err)
		}
		if n < 0 {
			return 0, true, fmt.Errorf("layout: negative array size for %s%s: %w", pathPrefix, el.Name, ddlerr.ErrInvalidArg)
		}
		return int(n), true, nil
	}
	if el.Array.Literal <= 0 {
		return 1, false, nil
	}
	return el.Array.Literal, false, nil
}

func planLeaf(s *schema.Schema, el *schema.Element, resolved schema.ResolvedType, path string) (LeafElement, error) {
	naturalWidth, err := resolved.NaturalBitWidth(s)
	if err != nil {
		return LeafElement{}, err
	}
	var prim *schema.Primitive
	var en *schema.Enum
	if resolved.Kind == schema.RefEnum {
		en = resolved.Enum
		prim = s.Primitives[en.UnderlyingRef]
	} else {
		prim = resolved.Primitive
	}
	kind, err := scalarKind(prim)
	if err != nil {
		return LeafElement{}, fmt.Errorf("layout: %s: %w", path, err)
	}

	order := bitio.LittleEndian
	if el.ByteOrder == schema.BigEndian {
		order = bitio.BigEndian
	}

	leaf := LeafElement{
		Path:        path,
		Kind:        kind,
		DesBitSize:  naturalWidth,
		SerBitSize:  el.EffectiveNumBits(naturalWidth),
		ByteOrder:   order,
		Enum:        en,
		HasConstant: el.HasConstant,
		Constant:    el.Constant,
	}
	return leaf, nil
}

func placeLeaf(leaf *LeafElement, el *schema.Element, c *cursor) {
	alignBits := el.Alignment * 8
	if alignBits <= 0 {
		alignBits = leaf.DesBitSize
	}
	c.des = roundUp(c.des, alignBits)

	leaf.SerBitOffset = c.ser
	leaf.DesBitOffset = c.des

	c.ser += leaf.SerBitSize
	c.des += leaf.DesBitSize
}

func scalarKind(p *schema.Primitive) (bitio.ScalarKind, error) {
	if p == nil {
		return 0, fmt.Errorf("layout: nil primitive: %w", ddlerr.ErrInvalidType)
	}
	switch p.Kind {
	case schema.KindFloat:
		switch p.BitWidth {
		case 32:
			return bitio.KindF32, nil
		case 64:
			return bitio.KindF64, nil
		}
	case schema.KindSignedInt:
		switch p.BitWidth {
		case 8:
			return bitio.KindI8, nil
		case 16:
			return bitio.KindI16, nil
		case 32:
			return bitio.KindI32, nil
		case 64:
			return bitio.KindI64, nil
		}
	case schema.KindUnsignedInt:
		switch p.BitWidth {
		case 8:
			return bitio.KindU8, nil
		case 16:
			return bitio.KindU16, nil
		case 32:
			return bitio.KindU32, nil
		case 64:
			return bitio.KindU64, nil
		}
	}
	return 0, fmt.Errorf("layout: unsupported primitive %q (%v/%d bits): %w", p.Name, p.Kind, p.BitWidth, ddlerr.ErrNotSupported)
}
