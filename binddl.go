// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package binddl is the top-level façade (spec §4.5 "Codec Façade"): load a
// DDL schema document, build a Factory for one of its root structs, and use
// that Factory to construct decoders and codecs over a user-owned byte
// buffer. Generalized from the teacher's top-level DynSsz type (dynssz.go):
// one construct-once instance that owns derived, cacheable state (there, a
// reflected type cache; here, a schema and its unit library) and hands out
// lightweight per-buffer views.
package binddl

import (
	"fmt"

	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/schema"
	"github.com/binddl/binddl/unit"
)

func fallbackLog(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Toolkit loads DDL schema documents and builds Factory instances from
// them. A Toolkit is safe to share immutably across goroutines once
// constructed (spec §5 "A factory is constructed once and may be shared
// immutably across threads").
type Toolkit struct {
	opts  toolkitOptions
	units *unit.Library
}

// NewToolkit constructs a Toolkit seeded with the standard unit catalogue,
// applying any options in order.
func NewToolkit(options ...ToolkitOption) *Toolkit {
	opts := toolkitOptions{}
	for _, o := range options {
		o(&opts)
	}

	std, err := unit.Standard()
	if err != nil {
		std = &unit.Library{}
	}
	if opts.units != nil {
		std = std.Clone()
		std.Merge(opts.units)
	}

	return &Toolkit{opts: opts, units: std}
}

// LoadSchema parses a complete DDL XML document.
func (t *Toolkit) LoadSchema(xmlText string) (*schema.Schema, error) {
	t.opts.log("binddl: loading schema (%d bytes)", len(xmlText))
	s, err := schema.Load(xmlText)
	if err != nil {
		return s, err
	}
	return t.finishLoad(s)
}

// LoadPartialSchema parses a DDL XML document that references entities
// defined in base, merging the two (spec §6 supplemented feature
// "Partial-schema merge").
func (t *Toolkit) LoadPartialSchema(xmlText string, base *schema.Schema) (*schema.Schema, error) {
	t.opts.log("binddl: loading partial schema against base with %d structs", len(base.Structs))
	s, err := schema.LoadPartial(xmlText, base)
	if err != nil {
		return s, err
	}
	return t.finishLoad(s)
}

func (t *Toolkit) finishLoad(s *schema.Schema) (*schema.Schema, error) {
	if s.Units == nil {
		s.Units = &unit.Library{}
	}
	s.Units.Merge(t.units)

	if t.opts.strictValidation {
		if err := s.Validate(); err != nil {
			return s, fmt.Errorf("binddl: strict validation: %w", err)
		}
	}
	if !s.Valid && t.opts.strictValidation {
		return s, fmt.Errorf("binddl: schema marked invalid: %w", ddlerr.ErrNotInitialized)
	}
	return s, nil
}

// NewFactory builds a Factory for rootStruct out of s (spec §4.5 "Factory").
func (t *Toolkit) NewFactory(s *schema.Schema, rootStruct string) (*Factory, error) {
	if !s.Valid {
		return nil, fmt.Errorf("binddl: schema is not valid: %w", ddlerr.ErrNotInitialized)
	}
	return newFactory(s, rootStruct)
}
