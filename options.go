// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package binddl

import "github.com/binddl/binddl/unit"

// ToolkitOption configures a Toolkit at construction time, following the
// teacher's functional-options shape (options.go's DynSszOption).
type ToolkitOption func(*toolkitOptions)

type toolkitOptions struct {
	verbose          bool
	logCb            func(format string, args ...any)
	strictValidation bool
	units            *unit.Library
}

// WithVerbose enables diagnostic logging of the Toolkit's schema load
// operations (LoadSchema, LoadPartialSchema).
func WithVerbose() ToolkitOption {
	return func(o *toolkitOptions) {
		o.verbose = true
	}
}

// WithLogCb installs a custom log sink; implies WithVerbose.
func WithLogCb(logCb func(format string, args ...any)) ToolkitOption {
	return func(o *toolkitOptions) {
		o.verbose = true
		o.logCb = logCb
	}
}

// WithStrictValidation makes LoadSchema/LoadPartialSchema run Validate once
// more after the Toolkit's unit library has been merged in, and return an
// error if that fails or the schema is marked invalid. Violations found
// while parsing are returned as an error with or without this option.
func WithStrictValidation() ToolkitOption {
	return func(o *toolkitOptions) {
		o.strictValidation = true
	}
}

// WithUnitLibrary seeds every schema loaded by the Toolkit with units in
// addition to the standard catalogue, letting a caller register
// application-specific units once instead of per document.
func WithUnitLibrary(lib *unit.Library) ToolkitOption {
	return func(o *toolkitOptions) {
		o.units = lib
	}
}

func (o *toolkitOptions) log(format string, args ...any) {
	if !o.verbose {
		return
	}
	if o.logCb != nil {
		o.logCb(format, args...)
		return
	}
	fallbackLog(format, args...)
}
