package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pkg/errors"

	// database/sql drivers for the supported dialects
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

// ErrUnknownDialect is returned for dialect names that are not supported
var ErrUnknownDialect = errors.New("unknown database dialect")

// Queryer runs queries, it is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
// Only a *sql.DB is queried concurrently, see Converter.GenerateFromMeta.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ColumnInfo is a column as described by the database catalog
type ColumnInfo struct {
	Name     string
	Type     string // Type name as the database knows it, e.g. varchar or int4
	Nullable bool
	Comment  string
}

// Dialect encapsulates the catalog queries and type tables of a database engine
type Dialect struct {
	Name   string
	Driver string // database/sql driver name

	systemSchemas  []string
	systemPrefixes []string

	types    *converters.TypeMap
	ddlTypes map[string]string

	quote       func(string) string
	literal     func(string) string // quotes column comments in DDL; nil if comments are unsupported
	schemas     func(ctx context.Context, q Queryer) ([]string, error)
	tables      func(ctx context.Context, q Queryer, schema string) ([]string, error)
	columns     func(ctx context.Context, q Queryer, table, schema string) ([]ColumnInfo, error)
	primaryKeys func(ctx context.Context, q Queryer, table, schema string) ([]string, error)
}

// LookupDialect finds a dialect by name
func LookupDialect(name string) (*Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "oracle":
		return Oracle, nil
	}
	return nil, errors.Wrapf(ErrUnknownDialect, "%q", name)
}

// Open opens a database of the given dialect, and verifies the connection
func Open(ctx context.Context, dialect, dsn string) (*sql.DB, error) {
	d, err := LookupDialect(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s database", d.Name)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "could not connect to %s database", d.Name)
	}
	return db, nil
}

// IsSystemSchema reports whether a schema belongs to the database engine itself
func (d *Dialect) IsSystemSchema(schema string) bool {
	s := strings.ToLower(schema)
	for _, sys := range d.systemSchemas {
		if s == sys {
			return true
		}
	}
	for _, prefix := range d.systemPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Postgres types are keyed by udt_name, but the sql spellings are accepted too.
var postgresTypes = map[string]string{
	"int8":             "int64",
	"int16":            "int16",
	"int32":            "int32",
	"int64":            "int64",
	"bigint":           "int64",
	"int2":             "int32",
	"int4":             "int32",
	"integer":          "int32",
	"smallint":         "int32",
	"numeric":          "float64",
	"double precision": "float64",
	"float8":           "float64",
	"float4":           "float32",
	"real":             "float32",
	"text":             "string",
	"uuid":             "string",
	"character":        "string",
	"tsvector":         "string",
	"jsonb":            "string",
	"json":             "string",
	"varchar":          "string",
	"bpchar":           "string",
	"date":             "date64",
	"boolean":          "bool",
	"bool":             "bool",
	"timestamptz":      "timestamp(ms)",
	"timestamp":        "timestamp(ms)",
	"datetime":         "timestamp(ms)",
	"bytea":            "binary",
}

var postgresDDLTypes = map[string]string{
	"int8":         "SMALLINT",
	"int16":        "SMALLINT",
	"int32":        "INTEGER",
	"int64":        "BIGINT",
	"uint8":        "SMALLINT",
	"uint16":       "INTEGER",
	"uint32":       "BIGINT",
	"uint64":       "NUMERIC(20,0)",
	"float16":      "REAL",
	"float32":      "REAL",
	"float64":      "DOUBLE PRECISION",
	"string":       "TEXT",
	"large_string": "TEXT",
	"utf8":         "TEXT",
	"large_utf8":   "TEXT",
	"bool":         "BOOLEAN",
	"date32":       "DATE",
	"date64":       "DATE",
	"binary":       "BYTEA",
	"large_binary": "BYTEA",
	"null":         "TEXT",
	"struct":       "JSONB",
	"map_":         "JSONB",
	"timestamp":    "TIMESTAMP",
	"time32":       "TIME",
	"time64":       "TIME",
	"decimal128":   "NUMERIC",
}

// Postgres introspects postgres databases via information_schema and pg_catalog
var Postgres = &Dialect{
	Name:           "postgres",
	Driver:         "postgres",
	systemSchemas:  []string{"pg_catalog", "information_schema", "pg_toast"},
	systemPrefixes: []string{"pg_temp_", "pg_toast_temp_"},
	types:          converters.NewTypeMap(postgresTypes).WithFallback("string"),
	ddlTypes:       postgresDDLTypes,
	quote:          pq.QuoteIdentifier,
	literal:        pq.QuoteLiteral,

	schemas: func(ctx context.Context, q Queryer) ([]string, error) {
		return queryStrings(ctx, q, `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`)
	},

	tables: func(ctx context.Context, q Queryer, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT table_name FROM information_schema.tables
			WHERE table_schema = $1 AND table_type = 'BASE TABLE'
			ORDER BY table_name`, schema)
	},

	columns: func(ctx context.Context, q Queryer, table, schema string) ([]ColumnInfo, error) {
		rows, err := q.QueryContext(ctx, `
			SELECT a.attname, t.typname, NOT a.attnotnull, col_description(a.attrelid, a.attnum)
			FROM pg_catalog.pg_attribute a
			JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
			WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
			ORDER BY a.attnum`, schema, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []ColumnInfo
		for rows.Next() {
			var col ColumnInfo
			var comment sql.NullString
			if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &comment); err != nil {
				return nil, err
			}
			col.Comment = comment.String
			cols = append(cols, col)
		}
		return cols, rows.Err()
	},

	primaryKeys: func(ctx context.Context, q Queryer, table, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON tc.constraint_name = kcu.constraint_name
			 AND tc.table_schema = kcu.table_schema
			 AND tc.table_name = kcu.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
			ORDER BY kcu.ordinal_position`, schema, table)
	},
}

var sqliteTypes = map[string]string{
	"tinyint":   "int8",
	"smallint":  "int16",
	"int":       "int32",
	"integer":   "int64",
	"bigint":    "int64",
	"float4":    "float32",
	"real":      "float64",
	"double":    "float64",
	"float":     "float64",
	"numeric":   "float64",
	"decimal":   "float64",
	"text":      "string",
	"varchar":   "string",
	"char":      "string",
	"clob":      "string",
	"blob":      "binary",
	"bool":      "bool",
	"boolean":   "bool",
	"date":      "date64",
	"datetime":  "timestamp(ms)",
	"timestamp": "timestamp(ms)",
}

var sqliteDDLTypes = map[string]string{
	"int8":         "TINYINT",
	"int16":        "SMALLINT",
	"int32":        "INT",
	"int64":        "BIGINT",
	"uint8":        "SMALLINT",
	"uint16":       "INT",
	"uint32":       "BIGINT",
	"uint64":       "BIGINT",
	"float16":      "FLOAT4",
	"float32":      "FLOAT4",
	"float64":      "DOUBLE",
	"string":       "TEXT",
	"large_string": "TEXT",
	"utf8":         "TEXT",
	"large_utf8":   "TEXT",
	"bool":         "BOOLEAN",
	"date32":       "DATE",
	"date64":       "DATE",
	"binary":       "BLOB",
	"large_binary": "BLOB",
	"null":         "TEXT",
	"timestamp":    "TIMESTAMP",
	"time32":       "TEXT",
	"time64":       "TEXT",
	"decimal128":   "DECIMAL",
}

// SQLite introspects sqlite databases via sqlite_master and the pragma functions.
// Attached databases are treated as schemas.
var SQLite = &Dialect{
	Name:          "sqlite",
	Driver:        "sqlite",
	systemSchemas: []string{"temp"},
	types:         converters.NewTypeMap(sqliteTypes).WithFallback("string"),
	ddlTypes:      sqliteDDLTypes,
	quote:         quoteIdent,

	schemas: func(ctx context.Context, q Queryer) ([]string, error) {
		return queryStrings(ctx, q, `SELECT name FROM pragma_database_list ORDER BY seq`)
	},

	tables: func(ctx context.Context, q Queryer, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT name FROM `+quoteIdent(schema)+`.sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`)
	},

	columns: func(ctx context.Context, q Queryer, table, schema string) ([]ColumnInfo, error) {
		rows, err := q.QueryContext(ctx, `
			SELECT name, type, "notnull" FROM pragma_table_info(?, ?) ORDER BY cid`, table, schema)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []ColumnInfo
		for rows.Next() {
			var col ColumnInfo
			var notNull bool
			if err := rows.Scan(&col.Name, &col.Type, &notNull); err != nil {
				return nil, err
			}
			col.Nullable = !notNull
			cols = append(cols, col)
		}
		return cols, rows.Err()
	},

	primaryKeys: func(ctx context.Context, q Queryer, table, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT name FROM pragma_table_info(?, ?) WHERE pk > 0 ORDER BY pk`, table, schema)
	},
}

func queryStrings(ctx context.Context, q Queryer, query string, args ...interface{}) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
