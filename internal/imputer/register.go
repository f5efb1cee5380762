package imputer

import (
	"tsimpute/internal/exec"
	"tsimpute/internal/ops/tsimputer"
)

// The policy advertises itself to the host: looking up the kernel by name
// yields an instance whose transformer constructor is this package's.
func init() {
	exec.Register(tsimputer.Name, func() exec.Kernel {
		return tsimputer.New(NewTransformer)
	})
}
