package rowstream

// Transformer is the push/flush contract an imputation policy implements.
// Push may synchronously emit zero or more output rows; Flush emits whatever
// the transformer still buffers and is called exactly once, after the last
// push. Implementations own all mutable state; one instance serves one
// invocation and is discarded afterwards.
type Transformer interface {
	Push(Row) ([]OutputRow, error)
	Flush() ([]OutputRow, error)
}

// Factory builds a fresh Transformer from an opaque trained-state blob.
// The bytes are read-only and may be shared across concurrent factory calls;
// each returned instance must be independent.
type Factory func(state []byte) (Transformer, error)
