// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

// Package ddlerr defines the error taxonomy shared by every binddl package.
//
// All fallible operations in binddl return a plain error value built around
// one of the sentinels below via fmt.Errorf("...: %w", sentinel), so callers
// can branch on the taxonomy with errors.Is rather than string matching.
package ddlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrPointer is returned when a required buffer or pointer argument is missing.
	ErrPointer = errors.New("ddl: null buffer or required pointer argument")
	// ErrInvalidArg is returned when a parameter is out of range or violates a contract.
	ErrInvalidArg = errors.New("ddl: invalid argument")
	// ErrNotFound is returned when no entity matches a lookup.
	ErrNotFound = errors.New("ddl: not found")
	// ErrNoClass is returned when a schema references a missing type, or a type is recursive.
	ErrNoClass = errors.New("ddl: unknown or recursive type reference")
	// ErrInvalidType is returned when a type is supplied where a different kind is required.
	ErrInvalidType = errors.New("ddl: invalid type")
	// ErrUnknownFormat is returned for an unrecognized schema element.
	ErrUnknownFormat = errors.New("ddl: unknown schema format")
	// ErrNotInitialized is returned for an operation on an unready object.
	ErrNotInitialized = errors.New("ddl: not initialized")
	// ErrNotSupported is returned when a requested scalar type is not handled.
	ErrNotSupported = errors.New("ddl: not supported")
	// ErrFailed is a generic failure, used only when none of the above applies.
	ErrFailed = errors.New("ddl: failed")
)

// ParseErrorList accumulates every error found while parsing or validating a
// schema document instead of stopping at the first one (spec §7 "Error
// handling design"). It implements error itself so a parser can return a
// single failing result while a caller can still inspect the full detail
// list via Errors().
type ParseErrorList struct {
	Errors_ []error
}

// Add appends err to the list if it is non-nil.
func (l *ParseErrorList) Add(err error) {
	if err != nil {
		l.Errors_ = append(l.Errors_, err)
	}
}

// Addf is a convenience wrapper building an error from a format string.
func (l *ParseErrorList) Addf(format string, args ...any) {
	l.Add(fmt.Errorf(format, args...))
}

// Errors returns the accumulated errors in the order they were added.
func (l *ParseErrorList) Errors() []error {
	return l.Errors_
}

// HasErrors reports whether any error has been accumulated.
func (l *ParseErrorList) HasErrors() bool {
	return len(l.Errors_) > 0
}

// AsError returns nil if the list is empty, or the list itself (as an error)
// otherwise, so callers can write `if err := list.AsError(); err != nil`.
func (l *ParseErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

func (l *ParseErrorList) Error() string {
	if len(l.Errors_) == 1 {
		return l.Errors_[0].Error()
	}
	msg := "ddl: multiple errors:"
	for _, e := range l.Errors_ {
		msg += "\n  - " + e.Error()
	}
	return msg
}

// Unwrap exposes the accumulated errors to errors.Is/errors.As via the
// multi-error protocol (errors.Join-compatible shape).
func (l *ParseErrorList) Unwrap() []error {
	return l.Errors_
}
