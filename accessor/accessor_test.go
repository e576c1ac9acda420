// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package accessor

import (
	"errors"
	"testing"

	"github.com/binddl/binddl/bitio"
	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/layout"
)

func TestSerializedGetSetRoundTripsSubByteSigned(t *testing.T) {
	leaf := layout.LeafElement{
		Path:       "value",
		Kind:       bitio.KindI16,
		SerBitOffset: 3,
		SerBitSize:   10,
		DesBitOffset: 0,
		DesBitSize:   16,
		ByteOrder:  bitio.LittleEndian,
	}
	buf := make([]byte, 4)

	if err := Set(leaf, buf, layout.Serialized, IntValue(bitio.KindI16, -358)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get(leaf, buf, layout.Serialized)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Int64() != -358 {
		t.Fatalf("expected -358, got %d", got.Int64())
	}
}

func TestDeserializedAccessorRejectsUnalignedSlot(t *testing.T) {
	leaf := layout.LeafElement{
		Path:         "value",
		Kind:         bitio.KindU8,
		DesBitOffset: 3,
		DesBitSize:   8,
	}
	buf := make([]byte, 4)
	_, err := Get(leaf, buf, layout.Deserialized)
	if !errors.Is(err, ddlerr.ErrInvalidArg) {
		t.Fatalf("expected ErrInvalidArg for unaligned deserialized slot, got %v", err)
	}
}

func TestDeserializedAccessorRoundTripsAlignedUint32(t *testing.T) {
	leaf := layout.LeafElement{
		Path:         "value",
		Kind:         bitio.KindU32,
		DesBitOffset: 32,
		DesBitSize:   32,
	}
	buf := make([]byte, 8)
	if err := Set(leaf, buf, layout.Deserialized, UintValue(bitio.KindU32, 0xDEADBEEF)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get(leaf, buf, layout.Deserialized)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Uint64() != 0xDEADBEEF {
		t.Fatalf("expected 0xDEADBEEF, got %#x", got.Uint64())
	}
}

func TestFloatAccessorRoundTrip(t *testing.T) {
	leaf := layout.LeafElement{
		Path:         "f",
		Kind:         bitio.KindF64,
		SerBitOffset: 0,
		SerBitSize:   64,
		ByteOrder:    bitio.BigEndian,
	}
	buf := make([]byte, 8)
	if err := Set(leaf, buf, layout.Serialized, FloatValue(bitio.KindF64, 3.5)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get(leaf, buf, layout.Serialized)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Float64() != 3.5 {
		t.Fatalf("expected 3.5, got %v", got.Float64())
	}
}
