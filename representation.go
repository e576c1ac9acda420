// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import (
	"github.com/binddl/binddl/accessor"
	"github.com/binddl/binddl/bitio"
	"github.com/binddl/binddl/layout"
)

type layoutLeaf = layout.LeafElement

func kindName(k bitio.ScalarKind) string {
	switch k {
	case bitio.KindBool:
		return "bool"
	case bitio.KindI8:
		return "int8"
	case bitio.KindU8:
		return "uint8"
	case bitio.KindI16:
		return "int16"
	case bitio.KindU16:
		return "uint16"
	case bitio.KindI32:
		return "int32"
	case bitio.KindU32:
		return "uint32"
	case bitio.KindI64:
		return "int64"
	case bitio.KindU64:
		return "uint64"
	case bitio.KindF32:
		return "float32"
	case bitio.KindF64:
		return "float64"
	default:
		return "unknown"
	}
}

// Representation selects which of the two physical layouts of a record a
// buffer holds (spec §3 "Two representations").
type Representation = layout.Representation

const (
	Serialized   = layout.Serialized
	Deserialized = layout.Deserialized
)

// Value is the type-erased result of a Get/typed-set operation (spec §4.5
// "get_element_value(i) → variant").
type Value = accessor.Value

// IntValue, UintValue and FloatValue construct typed Values; see
// accessor.Value for the Kind-dependent conversions.
var (
	IntValue   = accessor.IntValue
	UintValue  = accessor.UintValue
	FloatValue = accessor.FloatValue
)

// ElementDescriptor names one leaf slot and both of its offsets (spec §4.5
// "static_element(index) → descriptor").
type ElementDescriptor struct {
	Path string
	Kind string

	SerializedBitOffset, SerializedBitSize     int
	DeserializedBitOffset, DeserializedBitSize int
}

func describe(leaf layoutLeaf) ElementDescriptor {
	return ElementDescriptor{
		Path:                  leaf.Path,
		Kind:                  kindName(leaf.Kind),
		SerializedBitOffset:   leaf.SerBitOffset,
		SerializedBitSize:     leaf.SerBitSize,
		DeserializedBitOffset: leaf.DesBitOffset,
		DeserializedBitSize:   leaf.DesBitSize,
	}
}
