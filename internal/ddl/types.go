package ddl

// ColumnDef describes a single column in a table definition. It uses plain,
// dialect-agnostic fields; quoting and type mapping happen in the backend
// packages before a ColumnDef is built.
//
// Fields:
//   - Name: column name, emitted verbatim (pre-quoted by the caller if needed)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, DOUBLE PRECISION)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'none', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns. FQN is
// emitted verbatim, so schema-qualified and quoted names pass through
// unchanged. IfNotExists renders CREATE TABLE IF NOT EXISTS, which every
// supported backend accepts.
type TableDef struct {
	FQN         string
	IfNotExists bool
	Columns     []ColumnDef
}
