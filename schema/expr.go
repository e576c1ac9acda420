// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package schema

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/casbin/govaluate"

	"github.com/binddl/binddl/ddlerr"
)

// ExprEvaluator resolves the numeric schema attributes that DDL allows to
// be either a plain literal or a symbolic expression — `value`, `min`,
// `max`, `default`, `scale` and `offset`. An array's `arraysize` is not
// evaluated here: it is either a literal or a sibling element name
// (parseArraySizeAttr). Expressions are evaluated
// against a symbol table built from the schema's enum constants and its
// header's ext_declaration key/values, the same two-source symbol table the
// rest of the schema package already exposes via Enum.ValueOf and
// Header.Value.
//
// This generalizes the teacher's single dynssz-size/dynssz-max mechanism
// (specvals.go, one govaluate expression resolved against a spec-value map)
// to every numeric attribute DDL allows to be symbolic.
type ExprEvaluator struct {
	schema *Schema

	mu    sync.Mutex
	cache map[string]*govaluate.EvaluableExpression
}

// NewExprEvaluator builds an evaluator bound to s's enum constants and
// header declarations.
func NewExprEvaluator(s *Schema) *ExprEvaluator {
	return &ExprEvaluator{schema: s, cache: map[string]*govaluate.EvaluableExpression{}}
}

// Eval resolves expr to a float64. A bare numeric literal is parsed
// directly without invoking govaluate; anything else is compiled (and
// cached by source text) and evaluated against the symbol table.
func (v *ExprEvaluator) Eval(expr string) (float64, error) {
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return f, nil
	}

	compiled, err := v.compile(expr)
	if err != nil {
		return 0, err
	}

	result, err := compiled.Evaluate(v.symbols())
	if err != nil {
		return 0, fmt.Errorf("schema: evaluating expression %q: %w", expr, ddlerr.ErrInvalidArg)
	}

	switch n := result.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("schema: expression %q did not evaluate to a number: %w", expr, ddlerr.ErrInvalidArg)
	}
}

// EvalInt is a convenience wrapper for attributes that must resolve to an
// integer; the float result of Eval is truncated toward zero.
func (v *ExprEvaluator) EvalInt(expr string) (int64, error) {
	f, err := v.Eval(expr)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func (v *ExprEvaluator) compile(expr string) (*govaluate.EvaluableExpression, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.cache[expr]; ok {
		return c, nil
	}
	c, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("schema: parsing expression %q: %w", expr, ddlerr.ErrInvalidArg)
	}
	v.cache[expr] = c
	return c, nil
}

func (v *ExprEvaluator) symbols() map[string]interface{} {
	symbols := make(map[string]interface{})
	for _, e := range v.schema.Enums {
		for _, c := range e.Constants {
			symbols[c.Name] = float64(c.Value)
		}
	}
	for _, d := range v.schema.Header.ExtDeclarations {
		if f, err := strconv.ParseFloat(d.Value, 64); err == nil {
			symbols[d.Key] = f
		} else {
			symbols[d.Key] = d.Value
		}
	}
	return symbols
}
