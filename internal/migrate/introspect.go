package migrate

import (
	"sync"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Declared builds the table described by a GORM model, with column types as
// the connected dialect would create them.
func Declared(db *gorm.DB, model any) (Table, error) {
	s, err := schema.Parse(model, &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return Table{}, errors.Wrapf(err, "parse model %T", model)
	}

	t := Table{Name: s.Table}
	for _, f := range s.Fields {
		if f.DBName == "" || f.IgnoreMigration {
			continue
		}
		col := Column{
			Name:       f.DBName,
			Type:       db.Dialector.DataTypeOf(f),
			NotNull:    f.NotNull || f.PrimaryKey,
			PrimaryKey: f.PrimaryKey,
		}
		if f.HasDefaultValue && f.DefaultValue != "" && !f.AutoIncrement {
			col.Default = f.DefaultValue
		}
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

// Live reads the current definition of the named table. It returns nil when
// the table does not exist.
func Live(db *gorm.DB, table string) (*Table, error) {
	m := db.Migrator()
	if !m.HasTable(table) {
		return nil, nil
	}

	columns, err := m.ColumnTypes(table)
	if err != nil {
		return nil, errors.Wrapf(err, "read columns of %s", table)
	}

	t := &Table{Name: table}
	for _, c := range columns {
		nullable, ok := c.Nullable()
		pk, _ := c.PrimaryKey()
		t.Columns = append(t.Columns, Column{
			Name:       c.Name(),
			Type:       c.DatabaseTypeName(),
			NotNull:    ok && !nullable,
			PrimaryKey: pk,
		})
	}
	return t, nil
}
