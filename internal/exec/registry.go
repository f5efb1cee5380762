package exec

import (
	"fmt"
	"sort"
	"sync"
)

// Builder constructs a fresh kernel instance. Each Lookup builds anew so
// concurrent invocations never share kernel state.
type Builder func() Kernel

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

// Register registers (or replaces) a kernel builder under the given name.
// It is typically called from op packages' init() functions.
func Register(name string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	builders[name] = b
}

// Lookup builds a fresh kernel instance for the given name. An error is
// returned when nothing has been registered under it.
func Lookup(name string) (Kernel, error) {
	regMu.RLock()
	b, ok := builders[name]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("exec: no kernel registered for %q", name)
	}
	return b(), nil
}

// Names lists the registered kernel names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
