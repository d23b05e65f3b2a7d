package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pjxcog/mojap-metadata/converters"
)

// Oracle reports NUMBER columns with a zero scale as "integer", see the columns query.
var oracleTypes = map[string]string{
	"integer":                        "int64",
	"number":                         "float64",
	"float":                          "float64",
	"binary_float":                   "float32",
	"binary_double":                  "float64",
	"varchar2":                       "string",
	"nvarchar2":                      "string",
	"varchar":                        "string",
	"char":                           "string",
	"nchar":                          "string",
	"clob":                           "string",
	"nclob":                          "string",
	"long":                           "string",
	"rowid":                          "string",
	"date":                           "timestamp(s)",
	"timestamp":                      "timestamp(ms)",
	"timestamp with time zone":       "timestamp(ms)",
	"timestamp with local time zone": "timestamp(ms)",
	"raw":                            "binary",
	"long raw":                       "binary",
	"blob":                           "binary",
}

var oracleDDLTypes = map[string]string{
	"int8":         "NUMBER(3)",
	"int16":        "NUMBER(5)",
	"int32":        "NUMBER(10)",
	"int64":        "NUMBER(19)",
	"uint8":        "NUMBER(3)",
	"uint16":       "NUMBER(5)",
	"uint32":       "NUMBER(10)",
	"uint64":       "NUMBER(20)",
	"float16":      "BINARY_FLOAT",
	"float32":      "BINARY_FLOAT",
	"float64":      "BINARY_DOUBLE",
	"string":       "CLOB",
	"large_string": "CLOB",
	"utf8":         "CLOB",
	"large_utf8":   "CLOB",
	"bool":         "NUMBER(1)",
	"date32":       "DATE",
	"date64":       "DATE",
	"binary":       "BLOB",
	"large_binary": "BLOB",
	"timestamp":    "TIMESTAMP",
	"decimal128":   "NUMBER",
}

// Oracle introspects oracle databases via the ALL_ dictionary views.  Users are
// treated as schemas.
var Oracle = &Dialect{
	Name:   "oracle",
	Driver: "oracle",
	systemSchemas: []string{
		"admin", "anonymous", "appqossys", "audsys", "ctxsys", "dbsfwuser",
		"dbsnmp", "dip", "ggsys", "gsmadmin_internal", "gsmuser", "outln",
		"public", "rdsadmin", "remote_scheduler_agent", "sys", "sys$umf", "sysbackup",
		"sysdg", "syskm", "sysrac", "system", "xdb", "xs$null",
	},
	types:    converters.NewTypeMap(oracleTypes).WithFallback("string"),
	ddlTypes: oracleDDLTypes,
	quote:    quoteIdent,
	literal:  quoteLiteral,

	schemas: func(ctx context.Context, q Queryer) ([]string, error) {
		return queryStrings(ctx, q, `SELECT username FROM all_users ORDER BY username`)
	},

	tables: func(ctx context.Context, q Queryer, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT table_name FROM all_tables
			WHERE owner = :1
			ORDER BY table_name`, schema)
	},

	columns: func(ctx context.Context, q Queryer, table, schema string) ([]ColumnInfo, error) {
		rows, err := q.QueryContext(ctx, `
			SELECT c.column_name,
			       CASE WHEN c.data_type = 'NUMBER' AND c.data_scale = 0 THEN 'INTEGER' ELSE c.data_type END,
			       c.nullable,
			       m.comments
			FROM all_tab_columns c
			LEFT JOIN all_col_comments m
			  ON m.owner = c.owner AND m.table_name = c.table_name AND m.column_name = c.column_name
			WHERE c.owner = :1 AND c.table_name = :2
			ORDER BY c.column_id`, schema, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []ColumnInfo
		for rows.Next() {
			var col ColumnInfo
			var nullable string
			var comment sql.NullString
			if err := rows.Scan(&col.Name, &col.Type, &nullable, &comment); err != nil {
				return nil, err
			}
			col.Nullable = nullable == "Y"
			col.Comment = comment.String
			cols = append(cols, col)
		}
		return cols, rows.Err()
	},

	primaryKeys: func(ctx context.Context, q Queryer, table, schema string) ([]string, error) {
		return queryStrings(ctx, q, `
			SELECT cc.column_name
			FROM all_constraints k
			JOIN all_cons_columns cc
			  ON cc.owner = k.owner AND cc.constraint_name = k.constraint_name
			WHERE k.constraint_type = 'P' AND k.owner = :1 AND k.table_name = :2
			ORDER BY cc.position`, schema, table)
	},
}

// quoteLiteral quotes a string literal the standard sql way, by doubling quotes
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
