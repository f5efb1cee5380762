// Package all wires the built-in kernels into the exec registry.
//
// It exists purely for side effects: importing it (even as a blank import)
// runs the init functions of the packages that register kernel builders.
// After importing it, exec.Lookup resolves:
//
//   - "TimeSeriesImputer" backed by the imputer policy
//     (tsimpute/internal/imputer constructs the transformer from the
//     trained-state blob in input 0)
//
// Typical usage in a wiring layer:
//
//	import _ "tsimpute/internal/ops/all" // enable all built-in kernels
package all

import (
	_ "tsimpute/internal/imputer"
)
