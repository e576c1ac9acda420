// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package unit models the measurement metadata a DDL schema can carry:
// prefixes, base units and derived units built from them. A Library bundles
// a set of these together; the package embeds a standard SI catalogue so a
// schema always has a usable default to merge against.
package unit

import (
	"fmt"

	"github.com/binddl/binddl/ddlerr"
)

// Prefix is a power-of-ten multiplier, e.g. "kilo" = 10^3.
type Prefix struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	Power  int    `yaml:"power"`
}

// BaseUnit is an independent measurement dimension, e.g. "metre".
type BaseUnit struct {
	Name        string `yaml:"name"`
	Symbol      string `yaml:"symbol"`
	Description string `yaml:"description"`
}

// RefUnit is one (baseunit, prefix, power) term in a Unit's definition, e.g.
// "metre" with prefix "kilo" at power 1 contributes a "km" factor.
type RefUnit struct {
	BaseUnit string `yaml:"baseunit"`
	Prefix   string `yaml:"prefix"`
	Power    int    `yaml:"power"`
}

// Unit is a derived measurement unit: a scale/offset pair plus the list of
// base-unit terms it is built from.
type Unit struct {
	Name        string    `yaml:"name"`
	Numerator   float64   `yaml:"numerator"`
	Denominator float64   `yaml:"denominator"`
	Offset      float64   `yaml:"offset"`
	RefUnits    []RefUnit `yaml:"refUnits"`
}

// Library is a named collection of prefixes, base units and units, the
// in-memory form of a DDL document's <units> section.
type Library struct {
	Prefixes  []Prefix   `yaml:"prefixes"`
	BaseUnits []BaseUnit `yaml:"baseunits"`
	Units     []Unit     `yaml:"units"`
}

// FindPrefix looks up a prefix by name.
func (l *Library) FindPrefix(name string) (*Prefix, error) {
	for i := range l.Prefixes {
		if l.Prefixes[i].Name == name {
			return &l.Prefixes[i], nil
		}
	}
	return nil, fmt.Errorf("unit: prefix %q: %w", name, ddlerr.ErrNotFound)
}

// FindBaseUnit looks up a base unit by name.
func (l *Library) FindBaseUnit(name string) (*BaseUnit, error) {
	for i := range l.BaseUnits {
		if l.BaseUnits[i].Name == name {
			return &l.BaseUnits[i], nil
		}
	}
	return nil, fmt.Errorf("unit: base unit %q: %w", name, ddlerr.ErrNotFound)
}

// FindUnit looks up a derived unit by name.
func (l *Library) FindUnit(name string) (*Unit, error) {
	for i := range l.Units {
		if l.Units[i].Name == name {
			return &l.Units[i], nil
		}
	}
	return nil, fmt.Errorf("unit: unit %q: %w", name, ddlerr.ErrNotFound)
}

// Validate checks that every RefUnit of every Unit names a known base unit
// and, if set, a known prefix ("recursively well-defined", spec §3 Unit
// invariant).
func (l *Library) Validate() error {
	var errs ddlerr.ParseErrorList
	baseNames := make(map[string]bool, len(l.BaseUnits))
	for _, b := range l.BaseUnits {
		baseNames[b.Name] = true
	}
	prefixNames := make(map[string]bool, len(l.Prefixes))
	for _, p := range l.Prefixes {
		prefixNames[p.Name] = true
	}
	for _, u := range l.Units {
		for _, ref := range u.RefUnits {
			if !baseNames[ref.BaseUnit] {
				errs.Addf("unit %q references unknown base unit %q: %w", u.Name, ref.BaseUnit, ddlerr.ErrNoClass)
			}
			if ref.Prefix != "" && !prefixNames[ref.Prefix] {
				errs.Addf("unit %q references unknown prefix %q: %w", u.Name, ref.Prefix, ddlerr.ErrNoClass)
			}
		}
	}
	return errs.AsError()
}

// Merge copies every prefix, base unit and unit from other into l that l
// does not already define by name. Existing entries in l always win,
// matching the "base schema wins on conflict" default used by
// schema.Merge.
func (l *Library) Merge(other *Library) {
	if other == nil {
		return
	}
	have := make(map[string]bool, len(l.Prefixes))
	for _, p := range l.Prefixes {
		have[p.Name] = true
	}
	for _, p := range other.Prefixes {
		if !have[p.Name] {
			l.Prefixes = append(l.Prefixes, p)
			have[p.Name] = true
		}
	}

	haveBase := make(map[string]bool, len(l.BaseUnits))
	for _, b := range l.BaseUnits {
		haveBase[b.Name] = true
	}
	for _, b := range other.BaseUnits {
		if !haveBase[b.Name] {
			l.BaseUnits = append(l.BaseUnits, b)
			haveBase[b.Name] = true
		}
	}

	haveUnit := make(map[string]bool, len(l.Units))
	for _, u := range l.Units {
		haveUnit[u.Name] = true
	}
	for _, u := range other.Units {
		if !haveUnit[u.Name] {
			l.Units = append(l.Units, u)
			haveUnit[u.Name] = true
		}
	}
}

// Clone returns a deep copy of l.
func (l *Library) Clone() *Library {
	if l == nil {
		return nil
	}
	out := &Library{
		Prefixes:  append([]Prefix(nil), l.Prefixes...),
		BaseUnits: append([]BaseUnit(nil), l.BaseUnits...),
		Units:     make([]Unit, len(l.Units)),
	}
	for i, u := range l.Units {
		out.Units[i] = u
		out.Units[i].RefUnits = append([]RefUnit(nil), u.RefUnits...)
	}
	return out
}
