// Package all wires the built-in storage backends into the storage factory.
//
// It exists purely for side effects: importing it (even as a blank import)
// runs the init functions of each concrete backend, which register their
// factories with the storage package. After importing it the following kinds
// are available through storage.New:
//
//   - "postgres" (tsimpute/internal/storage/postgres)
//   - "sqlite"   (tsimpute/internal/storage/sqlite)
//
// Typical usage in a wiring layer:
//
//	import _ "tsimpute/internal/storage/all" // enable all built-in backends
//
// A binary that needs only a subset of backends can blank-import the
// individual backend packages instead.
package all

import (
	_ "tsimpute/internal/storage/postgres"
	_ "tsimpute/internal/storage/sqlite"
)
