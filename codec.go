// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import (
	"fmt"

	"github.com/binddl/binddl/accessor"
	"github.com/binddl/binddl/ddlerr"
)

// StaticCodec is a read/write view of buf for a record with no dynamic
// sections.
type StaticCodec struct {
	*StaticDecoder
}

// SetElementValue writes value into the i-th leaf.
func (c *StaticCodec) SetElementValue(i int, value Value) error {
	leaf, err := leafAt(c.leaves(), i)
	if err != nil {
		return err
	}
	return setLeaf(leaf, c.buf, c.repr, value)
}

// SetConstants assigns every element carrying a constant overlay its
// constant value (spec §4.5 "set_constants").
func (c *StaticCodec) SetConstants() error {
	for _, leaf := range c.leaves() {
		if !leaf.HasConstant {
			continue
		}
		if err := setLeaf(leaf, c.buf, c.repr, constantValue(leaf)); err != nil {
			return err
		}
	}
	return nil
}

// SetStructValue writes a contiguous byte block into the struct or
// struct-array element at path.
func (c *StaticCodec) SetStructValue(path string, in []byte) error {
	return c.copyBlockIn(path, false, in)
}

// SetArrayValue writes a contiguous byte block into the array element at
// path.
func (c *StaticCodec) SetArrayValue(path string, in []byte) error {
	return c.copyBlockIn(path, true, in)
}

func (c *StaticCodec) copyBlockIn(path string, array bool, in []byte) error {
	start, size, err := blockRange(c.leaves(), c.resolver(), path, array, c.repr)
	if err != nil {
		return err
	}
	if len(in) < size {
		return fmt.Errorf("binddl: input block too small (need %d, have %d): %w", size, len(in), ddlerr.ErrInvalidArg)
	}
	copy(c.buf[start:start+size], in[:size])
	return nil
}

// Codec is a read/write view over a record that may contain dynamic
// sections.
type Codec struct {
	*Decoder
}

func (c *Codec) SetElementValue(i int, value Value) error {
	leaf, err := leafAt(c.leaves, i)
	if err != nil {
		return err
	}
	return setLeaf(leaf, c.buf, c.repr, value)
}

func (c *Codec) SetConstants() error {
	for _, leaf := range c.leaves {
		if !leaf.HasConstant {
			continue
		}
		if err := setLeaf(leaf, c.buf, c.repr, constantValue(leaf)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) SetStructValue(path string, in []byte) error {
	return c.copyBlockIn(path, false, in)
}

func (c *Codec) SetArrayValue(path string, in []byte) error {
	return c.copyBlockIn(path, true, in)
}

func (c *Codec) copyBlockIn(path string, array bool, in []byte) error {
	start, size, err := blockRange(c.leaves, c.resolver, path, array, c.repr)
	if err != nil {
		return err
	}
	if len(in) < size {
		return fmt.Errorf("binddl: input block too small (need %d, have %d): %w", size, len(in), ddlerr.ErrInvalidArg)
	}
	copy(c.buf[start:start+size], in[:size])
	return nil
}

func constantValue(leaf layoutLeaf) Value {
	if leaf.Kind.IsFloat() {
		return accessor.FloatValue(leaf.Kind, leaf.Constant)
	}
	if leaf.Kind.IsSigned() {
		return accessor.IntValue(leaf.Kind, int64(leaf.Constant))
	}
	return accessor.UintValue(leaf.Kind, uint64(leaf.Constant))
}
