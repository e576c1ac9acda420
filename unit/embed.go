// Copyright (c) 2025 binddl authors
// SPDX-License-Identifier: Apache-2.0
// This file is part of the binddl library.

package unit

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed si_units.yaml
var standardCatalogue []byte

var (
	standardOnce sync.Once
	standardLib  *Library
	standardErr  error
)

// Standard returns the embedded SI unit/base-unit/prefix catalogue, parsed
// once and shared by every caller. Callers that want a mutable copy should
// use Standard().Clone().
func Standard() (*Library, error) {
	standardOnce.Do(func() {
		var lib Library
		if err := yaml.Unmarshal(standardCatalogue, &lib); err != nil {
			standardErr = fmt.Errorf("unit: parsing embedded standard catalogue: %w", err)
			return
		}
		if err := lib.Validate(); err != nil {
			standardErr = fmt.Errorf("unit: embedded standard catalogue: %w", err)
			return
		}
		standardLib = &lib
	})
	return standardLib, standardErr
}
