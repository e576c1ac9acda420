// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package accessor implements the element accessor strategy (spec §4.4):
// a deserialized leaf is read or written via a plain byte-aligned copy,
// while a serialized leaf always goes through the bit serializer. Both
// variants expose the same Get/Set surface so the rest of the codec can be
// representation-agnostic, generalized from the teacher's UnsafeAccessor
// dispatch-by-kind shape (accessor.go) to a bitio-backed, safe byte-slice
// implementation.
package accessor

import (
	"fmt"

	"github.com/binddl/binddl/bitio"
	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/layout"
)

// Value is the type-erased variant returned by Get and accepted by Set
// (spec §4.5 "get_element_value(i) → variant"). Exactly one of the typed
// accessors matches the Kind used to produce it.
type Value struct {
	Kind bitio.ScalarKind
	i    int64
	u    uint64
	f    float64
}

func IntValue(kind bitio.ScalarKind, v int64) Value     { return Value{Kind: kind, i: v} }
func UintValue(kind bitio.ScalarKind, v uint64) Value   { return Value{Kind: kind, u: v} }
func FloatValue(kind bitio.ScalarKind, v float64) Value { return Value{Kind: kind, f: v} }

// Float64 returns the value widened to float64 regardless of its native
// Kind; lossy for the high bits of a uint64/int64 near the ends of their
// range, matching the variant-of-convenience role this method plays in
// path/block comparisons and expression evaluation.
func (v Value) Float64() float64 {
	switch {
	case v.Kind.IsFloat():
		return v.f
	case v.Kind.IsSigned():
		return float64(v.i)
	default:
		return float64(v.u)
	}
}

func (v Value) Int64() int64 {
	switch {
	case v.Kind.IsFloat():
		return int64(v.f)
	case v.Kind.IsSigned():
		return v.i
	default:
		return int64(v.u)
	}
}

func (v Value) Uint64() uint64 {
	switch {
	case v.Kind.IsFloat():
		return uint64(v.f)
	case v.Kind.IsSigned():
		return uint64(v.i)
	default:
		return v.u
	}
}

// Get reads the leaf's value out of buf under the given representation.
func Get(leaf layout.LeafElement, buf []byte, repr layout.Representation) (Value, error) {
	bitOffset, bitSize := leaf.Offset(repr)
	order := leaf.ByteOrder
	if repr == layout.Deserialized {
		if bitOffset%8 != 0 || bitSize%8 != 0 {
			return Value{}, fmt.Errorf("accessor: %s: deserialized slot not byte-aligned (offset=%d size=%d): %w", leaf.Path, bitOffset, bitSize, ddlerr.ErrInvalidArg)
		}
		order = bitio.LittleEndian
	}

	switch {
	case leaf.Kind.IsFloat():
		if leaf.Kind == bitio.KindF32 {
			f, err := bitio.ReadFloat32(buf, bitOffset, bitSize, order)
			return FloatValue(leaf.Kind, float64(f)), wrap(leaf.Path, err)
		}
		f, err := bitio.ReadFloat64(buf, bitOffset, bitSize, order)
		return FloatValue(leaf.Kind, f), wrap(leaf.Path, err)
	case leaf.Kind.IsSigned():
		v, err := bitio.ReadInt(buf, bitOffset, bitSize, order)
		return IntValue(leaf.Kind, v), wrap(leaf.Path, err)
	default:
		v, err := bitio.ReadUint(buf, bitOffset, bitSize, order)
		return UintValue(leaf.Kind, v), wrap(leaf.Path, err)
	}
}

// Set writes value into buf at the leaf's slot under the given
// representation.
func Set(leaf layout.LeafElement, buf []byte, repr layout.Representation, value Value) error {
	bitOffset, bitSize := leaf.Offset(repr)
	order := leaf.ByteOrder
	if repr == layout.Deserialized {
		if bitOffset%8 != 0 || bitSize%8 != 0 {
			return fmt.Errorf("accessor: %s: deserialized slot not byte-aligned (offset=%d size=%d): %w", leaf.Path, bitOffset, bitSize, ddlerr.ErrInvalidArg)
		}
		order = bitio.LittleEndian
	}

	switch {
	case leaf.Kind.IsFloat():
		if leaf.Kind == bitio.KindF32 {
			return wrap(leaf.Path, bitio.WriteFloat32(buf, bitOffset, bitSize, float32(value.Float64()), order))
		}
		return wrap(leaf.Path, bitio.WriteFloat64(buf, bitOffset, bitSize, value.Float64(), order))
	case leaf.Kind.IsSigned():
		return wrap(leaf.Path, bitio.WriteInt(buf, bitOffset, bitSize, value.Int64(), order))
	default:
		return wrap(leaf.Path, bitio.WriteUint(buf, bitOffset, bitSize, value.Uint64(), order))
	}
}

func wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("accessor: %s: %w", path, err)
}
