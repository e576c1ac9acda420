// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package pathresolve resolves a dot-separated element path, each token an
// identifier optionally followed by one or more "[N]" indices, to a leaf
// index in a layout.Expand result (spec §4.5 "Path resolver"). The resolver
// is built once per expanded leaf list and does not allocate beyond the
// lookup map it builds up front, matching the "does not allocate per call
// beyond the string" requirement.
package pathresolve

import (
	"fmt"
	"strings"

	"github.com/binddl/binddl/ddlerr"
	"github.com/binddl/binddl/layout"
)

// Resolver answers path lookups against one expanded leaf list.
type Resolver struct {
	leaves []layout.LeafElement
	byPath map[string]int
}

// New builds a Resolver over leaves, as produced by layout.Layout.Expand.
func New(leaves []layout.LeafElement) *Resolver {
	byPath := make(map[string]int, len(leaves))
	for i, l := range leaves {
		byPath[l.Path] = i
	}
	return &Resolver{leaves: leaves, byPath: byPath}
}

// FindIndex returns the leaf index whose path exactly matches path.
func (r *Resolver) FindIndex(path string) (int, error) {
	if i, ok := r.byPath[path]; ok {
		return i, nil
	}
	return -1, fmt.Errorf("pathresolve: %q: %w", path, ddlerr.ErrNotFound)
}

// FindStructIndex returns the leaf index of path's first sub-element: the
// smallest index whose path is exactly path, or begins with path+".".
func (r *Resolver) FindStructIndex(path string) (int, error) {
	prefix := path + "."
	best := -1
	for i, l := range r.leaves {
		if l.Path == path || strings.HasPrefix(l.Path, prefix) {
			if best == -1 || i < best {
				best = i
			}
		}
	}
	if best == -1 {
		return -1, fmt.Errorf("pathresolve: %q: %w", path, ddlerr.ErrNotFound)
	}
	return best, nil
}

// FindArrayIndex returns the leaf index of path's element 0 (path+"[0]"),
// or, if that literal form is absent, its struct-member equivalent
// (path+"[0]." prefix) for an array of structs.
func (r *Resolver) FindArrayIndex(path string) (int, error) {
	if i, ok := r.byPath[path+"[0]"]; ok {
		return i, nil
	}
	return r.FindStructIndex(path + "[0]")
}

// Leaf returns the leaf at index i.
func (r *Resolver) Leaf(i int) (layout.LeafElement, error) {
	if i < 0 || i >= len(r.leaves) {
		return layout.LeafElement{}, fmt.Errorf("pathresolve: index %d out of range [0,%d): %w", i, len(r.leaves), ddlerr.ErrInvalidArg)
	}
	return r.leaves[i], nil
}

// Len returns the number of leaves known to the resolver.
func (r *Resolver) Len() int {
	return len(r.leaves)
}
