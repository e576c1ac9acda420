// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

// Clone produces an independent schema graph with no aliased sub-objects
// (spec §4.2 "Deep-clone"), matching the design note "Cyclic ownership":
// entities live in fresh maps/slices rather than being reached through
// shared pointers, so mutating the clone never affects s.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		Header:     s.Header.clone(),
		Units:      s.Units.Clone(),
		Primitives: make(map[string]*Primitive, len(s.Primitives)),
		Enums:      make(map[string]*Enum, len(s.Enums)),
		Structs:    make(map[string]*Struct, len(s.Structs)),
		Streams:    make(map[string]*Stream, len(s.Streams)),
		Valid:      s.Valid,
	}

	for name, p := range s.Primitives {
		cp := *p
		out.Primitives[name] = &cp
	}
	for name, e := range s.Enums {
		out.Enums[name] = e.clone()
	}
	for name, st := range s.Structs {
		out.Structs[name] = st.clone()
	}
	for name, str := range s.Streams {
		out.Streams[name] = str.clone()
	}

	return out
}

func (h Header) clone() Header {
	out := h
	out.ExtDeclarations = append([]ExtDeclaration(nil), h.ExtDeclarations...)
	return out
}

func (e *Enum) clone() *Enum {
	out := &Enum{
		Name:          e.Name,
		UnderlyingRef: e.UnderlyingRef,
		Constants:     append([]EnumConstant(nil), e.Constants...),
	}
	return out
}

func (st *Struct) clone() *Struct {
	out := &Struct{
		Name:            st.Name,
		Version:         st.Version,
		Alignment:       st.Alignment,
		LanguageVersion: st.LanguageVersion,
		Elements:        append([]Element(nil), st.Elements...),
	}
	return out
}

func (str *Stream) clone() *Stream {
	out := &Stream{
		Name:        str.Name,
		RootRef:     str.RootRef,
		Description: str.Description,
		Structs:     append([]StreamStruct(nil), str.Structs...),
	}
	return out
}
