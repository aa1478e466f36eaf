package migrate

import (
	"fmt"
	"strings"
)

// Column describes one table column. Type is the SQL type as the dialect
// spells it, for example "bigserial" or "text".
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	Default    string
}

// Table is a named list of columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
}

func (t Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ChangeKind enumerates the schema operations Diff can emit.
type ChangeKind int

const (
	CreateTable ChangeKind = iota
	AddColumn
	DropColumn
	AlterType
	SetNotNull
	DropNotNull
)

// Change is one DDL operation that moves the live schema towards the
// declared one.
type Change struct {
	Kind   ChangeKind
	Table  Table
	Column Column
}

// Diff compares the declared table with the live one and returns the
// changes needed to make them match. A nil live table means the table does
// not exist yet. Column defaults are not compared.
func Diff(declared Table, live *Table) []Change {
	if live == nil {
		return []Change{{Kind: CreateTable, Table: declared}}
	}

	var changes []Change
	for _, want := range declared.Columns {
		have, ok := live.column(want.Name)
		if !ok {
			changes = append(changes, Change{Kind: AddColumn, Table: declared, Column: want})
			continue
		}
		if normalizeType(want.Type) != normalizeType(have.Type) {
			changes = append(changes, Change{Kind: AlterType, Table: declared, Column: want})
		}
		if want.PrimaryKey || have.PrimaryKey {
			continue
		}
		switch {
		case want.NotNull && !have.NotNull:
			changes = append(changes, Change{Kind: SetNotNull, Table: declared, Column: want})
		case !want.NotNull && have.NotNull:
			changes = append(changes, Change{Kind: DropNotNull, Table: declared, Column: want})
		}
	}
	for _, have := range live.Columns {
		if _, ok := declared.column(have.Name); !ok {
			changes = append(changes, Change{Kind: DropColumn, Table: declared, Column: have})
		}
	}
	return changes
}

// SQL renders the change as a single PostgreSQL statement.
func (c Change) SQL() string {
	table := quote(c.Table.Name)
	col := quote(c.Column.Name)

	switch c.Kind {
	case CreateTable:
		defs := make([]string, len(c.Table.Columns))
		for i, column := range c.Table.Columns {
			defs[i] = "\t" + columnDef(column)
		}
		return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(defs, ",\n"))
	case AddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, columnDef(c.Column))
	case DropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, col)
	case AlterType:
		typ := castType(c.Column.Type)
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s;", table, col, typ, col, typ)
	case SetNotNull:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, col)
	case DropNotNull:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", table, col)
	default:
		return fmt.Sprintf("-- unknown change kind %d", c.Kind)
	}
}

// Render joins the statements of changes into a migration script.
func Render(message string, changes []Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s\n", message)
	for _, c := range changes {
		b.WriteString(c.SQL())
		b.WriteString("\n")
	}
	return b.String()
}

func columnDef(c Column) string {
	def := quote(c.Name) + " " + c.Type
	switch {
	case c.PrimaryKey:
		def += " PRIMARY KEY"
	case c.NotNull:
		def += " NOT NULL"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// typeAliases maps SQL spellings to the udt names information_schema reports.
var typeAliases = map[string]string{
	"bigserial":                "int8",
	"bigint":                   "int8",
	"serial":                   "int4",
	"integer":                  "int4",
	"int":                      "int4",
	"smallserial":              "int2",
	"smallint":                 "int2",
	"boolean":                  "bool",
	"character varying":        "varchar",
	"character":                "bpchar",
	"char":                     "bpchar",
	"double precision":         "float8",
	"real":                     "float4",
	"decimal":                  "numeric",
	"timestamp with time zone": "timestamptz",
	"timestamp":                "timestamp",
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	return t
}

// castType turns serial pseudo-types into their storage type, since they are
// only valid in CREATE TABLE and ADD COLUMN.
func castType(t string) string {
	switch strings.ToLower(t) {
	case "bigserial":
		return "bigint"
	case "serial":
		return "integer"
	case "smallserial":
		return "smallint"
	default:
		return t
	}
}
