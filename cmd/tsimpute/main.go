// Command tsimpute fits, inspects, and applies time-series imputation models
// over tabular batches.
package main

import (
	"fmt"
	"os"

	_ "tsimpute/internal/ops/all"     // register built-in kernels
	_ "tsimpute/internal/storage/all" // register built-in storage backends
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tsimpute:", err)
		os.Exit(1)
	}
}
