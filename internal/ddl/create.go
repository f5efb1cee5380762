// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// helper to render CREATE TABLE statements from that model.
//
// The package stays generic on purpose:
//
//   - It does not quote identifiers; TableDef.FQN and ColumnDef.Name are
//     emitted as-is, so backends pre-quote with their own rules.
//   - It treats ColumnDef.Default as a raw SQL expression.
//
// The storage backends (internal/storage/postgres, internal/storage/sqlite)
// map column dtypes to their dialect's SQL types, quote identifiers, and then
// hand a TableDef to BuildCreateTableSQL.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Each column renders as:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// with NOT NULL added when Nullable is false. Columns with PrimaryKey set
// are collected into a trailing PRIMARY KEY (...) clause. When IfNotExists
// is set the statement becomes CREATE TABLE IF NOT EXISTS.
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(name)
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, name)
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE"
	if t.IfNotExists {
		create = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (\n  %s\n);", create, fqn, strings.Join(cols, ",\n  ")), nil
}
