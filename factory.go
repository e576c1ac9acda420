// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import (
	"fmt"

	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/layout"
	"github.com/binddl/binddl/pathresolve"
	"github.com/binddl/binddl/schema"
)

// Factory owns one root struct's derived Layout and hands out decoders and
// codecs over caller-owned buffers (spec §4.5 "Factory"). A Factory is
// read-only after construction and may be shared across goroutines.
type Factory struct {
	schema     *schema.Schema
	rootStruct string
	layout     *layout.Layout

	staticLeaves   []layout.LeafElement
	staticResolver *pathresolve.Resolver
	staticSerBits  int
	staticDesBits  int
}

func newFactory(s *schema.Schema, rootStruct string) (*Factory, error) {
	l, err := layout.Plan(s, rootStruct)
	if err != nil {
		return nil, err
	}
	leaves, serBits, desBits, err := l.Expand(layout.ZeroLengthResolver)
	if err != nil {
		return nil, fmt.Errorf("binddl: planning static skeleton of %q: %w", rootStruct, err)
	}
	return &Factory{
		schema:         s,
		rootStruct:     rootStruct,
		layout:         l,
		staticLeaves:   leaves,
		staticResolver: pathresolve.New(leaves),
		staticSerBits:  serBits,
		staticDesBits:  desBits,
	}, nil
}

// StaticBufferSize returns the byte size of the record's static skeleton,
// ignoring any dynamic section (spec §4.5 "static_buffer_size").
func (f *Factory) StaticBufferSize(r Representation) int {
	bits := f.staticDesBits
	if r == Serialized {
		bits = f.staticSerBits
	}
	return (bits + 7) / 8
}

// StaticElementCount returns the number of leaves outside any dynamic
// section (spec §4.5 "static_element_count").
func (f *Factory) StaticElementCount() int {
	return len(f.staticLeaves)
}

// StaticElement returns the descriptor of the index-th static leaf.
func (f *Factory) StaticElement(index int) (ElementDescriptor, error) {
	if index < 0 || index >= len(f.staticLeaves) {
		return ElementDescriptor{}, fmt.Errorf("binddl: static element index %d out of range: %w", index, ddlerr.ErrInvalidArg)
	}
	return describe(f.staticLeaves[index]), nil
}

// MakeStaticDecoderFor returns a read-only view over buf for records
// without dynamic sections (spec §4.5 "make_static_decoder_for").
func (f *Factory) MakeStaticDecoderFor(buf []byte, repr Representation) (*StaticDecoder, error) {
	if buf == nil {
		return nil, fmt.Errorf("binddl: nil buffer: %w", ddlerr.ErrPointer)
	}
	needed := f.StaticBufferSize(repr)
	if len(buf) < needed {
		return nil, fmt.Errorf("binddl: buffer too small (need %d, have %d): %w", needed, len(buf), ddlerr.ErrInvalidArg)
	}
	return &StaticDecoder{factory: f, buf: buf, repr: repr}, nil
}

// MakeStaticCodecFor returns a read/write view over buf for records without
// dynamic sections (spec §4.5 "make_static_codec_for").
func (f *Factory) MakeStaticCodecFor(buf []byte, repr Representation) (*StaticCodec, error) {
	d, err := f.MakeStaticDecoderFor(buf, repr)
	if err != nil {
		return nil, err
	}
	return &StaticCodec{StaticDecoder: d}, nil
}

// MakeDecoderFor returns a read-only view over buf, expanding any dynamic
// sections by reading their length elements out of buf (spec §4.5
// "make_decoder_for").
func (f *Factory) MakeDecoderFor(buf []byte, repr Representation) (*Decoder, error) {
	if buf == nil {
		return nil, fmt.Errorf("binddl: nil buffer: %w", ddlerr.ErrPointer)
	}
	leaves, resolver, size, err := f.expandAgainst(buf, repr)
	if err != nil {
		return nil, err
	}
	if len(buf) < size {
		return nil, fmt.Errorf("binddl: buffer too small (need %d, have %d): %w", size, len(buf), ddlerr.ErrInvalidArg)
	}
	return &Decoder{factory: f, buf: buf, repr: repr, leaves: leaves, resolver: resolver, size: size}, nil
}

// MakeCodecFor returns a read/write view over buf, expanding any dynamic
// sections (spec §4.5 "make_codec_for").
func (f *Factory) MakeCodecFor(buf []byte, repr Representation) (*Codec, error) {
	d, err := f.MakeDecoderFor(buf, repr)
	if err != nil {
		return nil, err
	}
	return &Codec{Decoder: d}, nil
}

// expandAgainst walks the layout, resolving each dynamic array's length by
// reading it directly out of buf via the accessor as soon as its own leaf
// has been placed, matching spec §4.5's "walks the dynamic resolvers, reads
// each length element, expands the leaf list" construction order.
func (f *Factory) expandAgainst(buf []byte, repr Representation) ([]layout.LeafElement, *pathresolve.Resolver, int, error) {
	resolveLen := func(path string, placedSoFar []layout.LeafElement) (int64, error) {
		idx, err := pathresolve.New(placedSoFar).FindIndex(path)
		if err != nil {
			return 0, err
		}
		v, err := getLeaf(placedSoFar[idx], buf, repr)
		if err != nil {
			return 0, err
		}
		return v.Int64(), nil
	}

	leaves, serBits, desBits, err := f.layout.Expand(resolveLen)
	if err != nil {
		return nil, nil, 0, err
	}

	bits := desBits
	if repr == Serialized {
		bits = serBits
	}
	return leaves, pathresolve.New(leaves), (bits + 7) / 8, nil
}
