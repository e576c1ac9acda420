// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import (
	"fmt"

	"github.com/binddl/binddl/ddlerr"
)

// ValueSource is the read half of the representation transformer's
// contract: anything exposing an indexed, ordered leaf list (spec §4.6).
type ValueSource interface {
	ElementCount() int
	GetElementValue(i int) (Value, error)
}

// ValueSink is the write half.
type ValueSink interface {
	ElementCount() int
	SetElementValue(i int, value Value) error
}

// Transform copies every leaf from source to dest, in layout (declaration)
// order (spec §4.6 "transform"). Both sides must share the same schema
// root; the representations are normally opposite but may be the same, in
// which case Transform acts as a deep copy. Declaration order guarantees
// the element naming a dynamic array's length is written before the array
// elements that depend on it.
func Transform(source ValueSource, dest ValueSink) error {
	if source.ElementCount() != dest.ElementCount() {
		return fmt.Errorf("binddl: transform: source has %d elements, dest has %d: %w", source.ElementCount(), dest.ElementCount(), ddlerr.ErrInvalidArg)
	}
	for i := 0; i < source.ElementCount(); i++ {
		v, err := source.GetElementValue(i)
		if err != nil {
			return fmt.Errorf("binddl: transform: reading element %d: %w", i, err)
		}
		if err := dest.SetElementValue(i, v); err != nil {
			return fmt.Errorf("binddl: transform: writing element %d: %w", i, err)
		}
	}
	return nil
}

// TransformToBuffer resizes outBuffer (by returning a new, correctly-sized
// slice when needed) and runs Transform from source into a freshly built
// codec over it, targeting the opposite representation by default (spec
// §4.6 "transform_to_buffer").
func TransformToBuffer(factory *Factory, source ValueSource, sourceRepr Representation, outBuffer []byte, oppositeRepresentation bool) ([]byte, error) {
	destRepr := sourceRepr
	if oppositeRepresentation {
		destRepr = opposite(sourceRepr)
	}

	needed := factory.StaticBufferSize(destRepr)
	if len(outBuffer) < needed {
		outBuffer = make([]byte, needed)
	} else {
		outBuffer = outBuffer[:needed]
	}

	dest, err := factory.MakeStaticCodecFor(outBuffer, destRepr)
	if err != nil {
		return nil, err
	}
	if err := Transform(source, dest); err != nil {
		return nil, err
	}
	return outBuffer, nil
}

func opposite(r Representation) Representation {
	if r == Serialized {
		return Deserialized
	}
	return Serialized
}
