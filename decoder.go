// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import (
	"fmt"
	"strings"

	"github.com/binddl/binddl/accessor"
	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/layout"
	"github.com/binddl/binddl/pathresolve"
)

func getLeaf(leaf layout.LeafElement, buf []byte, repr Representation) (Value, error) {
	return accessor.Get(leaf, buf, repr)
}

func setLeaf(leaf layout.LeafElement, buf []byte, repr Representation, v Value) error {
	return accessor.Set(leaf, buf, repr, v)
}

// StaticDecoder is a read-only view of buf for a record with no dynamic
// sections (spec §4.5 "Decoders and codecs").
type StaticDecoder struct {
	factory *Factory
	buf     []byte
	repr    Representation
}

func (d *StaticDecoder) leaves() []layout.LeafElement    { return d.factory.staticLeaves }
func (d *StaticDecoder) resolver() *pathresolve.Resolver { return d.factory.staticResolver }

// ElementCount returns the number of leaves this decoder addresses.
func (d *StaticDecoder) ElementCount() int { return len(d.leaves()) }

// Element returns the descriptor of the i-th leaf.
func (d *StaticDecoder) Element(i int) (ElementDescriptor, error) {
	leaf, err := leafAt(d.leaves(), i)
	if err != nil {
		return ElementDescriptor{}, err
	}
	return describe(leaf), nil
}

// ElementAddress returns the byte offset of the i-th leaf within buf; valid
// only in the deserialized representation, where every leaf is byte
// aligned (spec §4.5 "element_address(i) → pointer").
func (d *StaticDecoder) ElementAddress(i int) (int, error) {
	leaf, err := leafAt(d.leaves(), i)
	if err != nil {
		return 0, err
	}
	if d.repr != Deserialized {
		return 0, fmt.Errorf("binddl: element_address is only valid for the deserialized representation: %w", ddlerr.ErrInvalidArg)
	}
	if leaf.DesBitOffset%8 != 0 {
		return 0, fmt.Errorf("binddl: element %q is not byte-aligned: %w", leaf.Path, ddlerr.ErrInvalidArg)
	}
	return leaf.DesBitOffset / 8, nil
}

// GetElementValue reads the i-th leaf's value.
func (d *StaticDecoder) GetElementValue(i int) (Value, error) {
	leaf, err := leafAt(d.leaves(), i)
	if err != nil {
		return Value{}, err
	}
	return getLeaf(leaf, d.buf, d.repr)
}

// FindIndex resolves a dotted/indexed path to a leaf index (spec §4.5
// "Path resolver").
func (d *StaticDecoder) FindIndex(path string) (int, error) {
	return d.resolver().FindIndex(path)
}

// GetStructValue copies the contiguous byte block backing the struct or
// struct-array element at path into out. Legal only when the block is
// byte-aligned in the decoder's representation (spec §4.5
// "get_struct_value").
func (d *StaticDecoder) GetStructValue(path string, out []byte) error {
	return d.copyBlockOut(path, false, out)
}

// GetArrayValue copies the contiguous byte block backing the array element
// at path into out (spec §4.5 "get_array_value").
func (d *StaticDecoder) GetArrayValue(path string, out []byte) error {
	return d.copyBlockOut(path, true, out)
}

// GetBufferSize returns the resolved size, in bytes, of this decoder's
// representation (spec §4.5 "get_buffer_size").
func (d *StaticDecoder) GetBufferSize() int {
	return d.factory.StaticBufferSize(d.repr)
}

func (d *StaticDecoder) copyBlockOut(path string, array bool, out []byte) error {
	start, size, err := blockRange(d.leaves(), d.resolver(), path, array, d.repr)
	if err != nil {
		return err
	}
	if len(out) < size {
		return fmt.Errorf("binddl: output block too small (need %d, have %d): %w", size, len(out), ddlerr.ErrInvalidArg)
	}
	copy(out, d.buf[start:start+size])
	return nil
}

// Decoder is a read-only view over a record that may contain dynamic
// sections; its leaf list was expanded at construction time by reading
// every length element out of buf.
type Decoder struct {
	factory  *Factory
	buf      []byte
	repr     Representation
	leaves   []layout.LeafElement
	resolver *pathresolve.Resolver
	size     int
}

func (d *Decoder) ElementCount() int { return len(d.leaves) }

func (d *Decoder) Element(i int) (ElementDescriptor, error) {
	leaf, err := leafAt(d.leaves, i)
	if err != nil {
		return ElementDescriptor{}, err
	}
	return describe(leaf), nil
}

func (d *Decoder) ElementAddress(i int) (int, error) {
	leaf, err := leafAt(d.leaves, i)
	if err != nil {
		return 0, err
	}
	if d.repr != Deserialized {
		return 0, fmt.Errorf("binddl: element_address is only valid for the deserialized representation: %w", ddlerr.ErrInvalidArg)
	}
	if leaf.DesBitOffset%8 != 0 {
		return 0, fmt.Errorf("binddl: element %q is not byte-aligned: %w", leaf.Path, ddlerr.ErrInvalidArg)
	}
	return leaf.DesBitOffset / 8, nil
}

func (d *Decoder) GetElementValue(i int) (Value, error) {
	leaf, err := leafAt(d.leaves, i)
	if err != nil {
		return Value{}, err
	}
	return getLeaf(leaf, d.buf, d.repr)
}

func (d *Decoder) FindIndex(path string) (int, error) {
	return d.resolver.FindIndex(path)
}

func (d *Decoder) GetStructValue(path string, out []byte) error {
	return d.copyBlockOut(path, false, out)
}

func (d *Decoder) GetArrayValue(path string, out []byte) error {
	return d.copyBlockOut(path, true, out)
}

func (d *Decoder) GetBufferSize() int { return d.size }

func (d *Decoder) copyBlockOut(path string, array bool, out []byte) error {
	start, size, err := blockRange(d.leaves, d.resolver, path, array, d.repr)
	if err != nil {
		return err
	}
	if len(out) < size {
		return fmt.Errorf("binddl: output block too small (need %d, have %d): %w", size, len(out), ddlerr.ErrInvalidArg)
	}
	copy(out, d.buf[start:start+size])
	return nil
}

func leafAt(leaves []layout.LeafElement, i int) (layout.LeafElement, error) {
	if i < 0 || i >= len(leaves) {
		return layout.LeafElement{}, fmt.Errorf("binddl: element index %d out of range [0,%d): %w", i, len(leaves), ddlerr.ErrInvalidArg)
	}
	return leaves[i], nil
}

// blockRange finds the byte range [start,start+size) spanning the run of
// leaves, starting at the resolved first index, whose path is path itself or
// begins with path+"." or path+"[" (the array flag only selects how the
// first index is resolved). The range runs from the lowest leaf bit to the
// highest, so any padding between those leaves is part of it; it is
// rejected only if its start or end is not byte-aligned (spec §4.5 "legal
// only when the block is aligned to bytes in the current representation").
func blockRange(leaves []layout.LeafElement, r *pathresolve.Resolver, path string, array bool, repr Representation) (start, size int, err error) {
	var first int
	if array {
		first, err = r.FindArrayIndex(path)
	} else {
		first, err = r.FindStructIndex(path)
	}
	if err != nil {
		return 0, 0, err
	}

	prefix := path + "."
	arrayPrefix := path + "["
	minBit, maxBit := -1, -1
	for i := first; i < len(leaves); i++ {
		l := leaves[i]
		if l.Path != path && !strings.HasPrefix(l.Path, prefix) && !strings.HasPrefix(l.Path, arrayPrefix) {
			break
		}
		bitOffset, bitSize := l.Offset(repr)
		if minBit == -1 || bitOffset < minBit {
			minBit = bitOffset
		}
		if bitOffset+bitSize > maxBit {
			maxBit = bitOffset + bitSize
		}
	}
	if minBit == -1 {
		return 0, 0, fmt.Errorf("binddl: %q: %w", path, ddlerr.ErrNotFound)
	}
	if minBit%8 != 0 || maxBit%8 != 0 {
		return 0, 0, fmt.Errorf("binddl: %q: block is not byte-aligned in this representation: %w", path, ddlerr.ErrInvalidArg)
	}
	return minBit / 8, (maxBit - minBit) / 8, nil
}
