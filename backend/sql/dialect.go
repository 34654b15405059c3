package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Supported dialects.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// defaultVarchar is the length of string columns without a size on MySQL.
const defaultVarchar = 255

type dialect string

func parseDialect(name string) (dialect, error) {
	switch d := dialect(strings.ToLower(name)); d {
	case SQLite, MySQL, Postgres:
		return d, nil
	case "sqlite3":
		return SQLite, nil
	case "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("sql: unsupported dialect %q", name)
}

func (d dialect) quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// placeholder returns the placeholder of the n-th argument, counting from 1.
func (d dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d dialect) random() string {
	if d == MySQL {
		return "RAND()"
	}
	return "RANDOM()"
}

func (d dialect) returning() bool { return d == Postgres }

// emptyInsert returns the statement inserting a row of defaults.
func (d dialect) emptyInsert(table string) string {
	if d == MySQL {
		return "INSERT INTO " + d.quote(table) + " () VALUES ()"
	}
	return "INSERT INTO " + d.quote(table) + " DEFAULT VALUES"
}

// column returns the column name of a field. One-relations are stored as a
// foreign key named after the relation.
func column(fd *scheme.FieldDescriptor) string {
	if fd.IsRelation() {
		return fd.Name + "_id"
	}
	return fd.Name
}

// foreignID returns the identity of the relation target when the target
// generates its own identities, or nil.
func foreignID(fd *scheme.FieldDescriptor) *scheme.FieldDescriptor {
	if !fd.IsRelation() {
		return nil
	}
	target, err := fd.Relation.Scheme()
	if err != nil {
		return nil
	}
	if id := target.ID(); id != nil && !id.AutoID() {
		return id
	}
	return nil
}

// keyType returns the column type of references to an identity. Nil stands
// for an identity the store assigns.
func (d dialect) keyType(id *scheme.FieldDescriptor) string {
	if id == nil || id.AutoID() {
		return "BIGINT"
	}
	return d.typeName(&id.Descriptor)
}

// columnType returns the column type of a field, with its constraints.
func (d dialect) columnType(fd *scheme.FieldDescriptor) string {
	if fd.IsID() && !fd.AutoID() {
		return d.typeName(&fd.Descriptor) + " PRIMARY KEY"
	}
	if fd.IsID() {
		switch d {
		case MySQL:
			return "BIGINT AUTO_INCREMENT PRIMARY KEY"
		case Postgres:
			return "BIGSERIAL PRIMARY KEY"
		}
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	var b strings.Builder
	if fd.IsRelation() {
		b.WriteString(d.keyType(foreignID(fd)))
	} else {
		b.WriteString(d.typeName(&fd.Descriptor))
	}
	if !fd.Nullable && !fd.Optional {
		b.WriteString(" NOT NULL")
	}
	if fd.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func (d dialect) typeName(fd *field.Descriptor) string {
	switch t := fd.Type; {
	case d == SQLite && (t.Integer() || t == field.TypeBool):
		return "INTEGER"
	case d == SQLite && t.Float():
		return "REAL"
	case t == field.TypeBool:
		return "BOOLEAN"
	case t == field.TypeInt8 && d == MySQL:
		return "TINYINT"
	case t == field.TypeInt8, t == field.TypeInt16, t == field.TypeUint8:
		return "SMALLINT"
	case t == field.TypeInt32, t == field.TypeInt, t == field.TypeUint16:
		return "INTEGER"
	case t == field.TypeUint64 && d == MySQL:
		return "BIGINT UNSIGNED"
	case t == field.TypeUint64:
		return "NUMERIC(20)"
	case t.Integer():
		return "BIGINT"
	case t == field.TypeFloat32:
		return "REAL"
	case t == field.TypeFloat64 && d == MySQL:
		return "DOUBLE"
	case t == field.TypeFloat64:
		return "DOUBLE PRECISION"
	case t == field.TypeEnum:
		n := 1
		for _, v := range fd.Enums {
			n = max(n, len(v))
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	case t == field.TypeText:
		return "TEXT"
	case t.Textual() && fd.Size > 0:
		return fmt.Sprintf("VARCHAR(%d)", fd.Size)
	case t.Textual() && d == MySQL:
		return fmt.Sprintf("VARCHAR(%d)", defaultVarchar)
	case t.Textual():
		return "TEXT"
	case t == field.TypeTime && d == MySQL:
		return "DATETIME(6)"
	case t == field.TypeTime && d == Postgres:
		return "TIMESTAMPTZ"
	case t == field.TypeTime:
		return "DATETIME"
	case t == field.TypeDate:
		return "DATE"
	case t == field.TypeClock:
		return "TIME"
	case t == field.TypeUUID && d == Postgres:
		return "UUID"
	case t == field.TypeUUID && d == MySQL:
		return "CHAR(36)"
	case t == field.TypeBytes && d == Postgres:
		return "BYTEA"
	case t == field.TypeBytes:
		return "BLOB"
	case t == field.TypeDecimal && d != SQLite:
		return fmt.Sprintf("DECIMAL(%d, %d)", 20+fd.Scale, fd.Scale)
	case t == field.TypeJSON && d == Postgres:
		return "JSONB"
	case t == field.TypeJSON && d == MySQL:
		return "JSON"
	}
	return "TEXT"
}
