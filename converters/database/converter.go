package database

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/pjxcog/mojap-metadata/internal/log"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of tables introspected at once by GenerateFromMeta
const DefaultConcurrency = 4

// Converter extracts metadata from a database of a particular dialect
type Converter struct {
	Dialect     *Dialect
	Concurrency int // Max tables introspected concurrently; DefaultConcurrency if unset
	log         zerolog.Logger
}

// New creates a converter for the named dialect
func New(dialect string) (*Converter, error) {
	d, err := LookupDialect(dialect)
	if err != nil {
		return nil, err
	}
	return &Converter{
		Dialect: d,
		log:     log.Derive(func(c *zerolog.Context) {
			*c = c.Str("component", "database").Str("dialect", d.Name)
		}),
	}, nil
}

// ConvertToMojapType converts a database column type to a mojap type.
// Types the dialect does not know become string.
func (c *Converter) ConvertToMojapType(colType string) string {
	t, err := c.Dialect.types.Convert(colType)
	if err != nil {
		return metadata.DefaultTypes[metadata.CategoryString]
	}
	return t
}

// ListSchemas lists the non-system schemas of a database, in name order
func (c *Converter) ListSchemas(ctx context.Context, q Queryer) ([]string, error) {
	all, err := c.Dialect.schemas(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "could not list schemas")
	}

	schemas := make([]string, 0, len(all))
	for _, s := range all {
		if !c.Dialect.IsSystemSchema(s) {
			schemas = append(schemas, s)
		}
	}
	sort.Strings(schemas)
	return schemas, nil
}

// ListTables lists the tables in a schema
func (c *Converter) ListTables(ctx context.Context, q Queryer, schema string) ([]string, error) {
	tables, err := c.Dialect.tables(ctx, q, schema)
	return tables, errors.Wrapf(err, "could not list tables in schema %s", schema)
}

// ListColumns lists the columns of a table as described by the database catalog, in
// ordinal order
func (c *Converter) ListColumns(ctx context.Context, q Queryer, table, schema string) ([]ColumnInfo, error) {
	cols, err := c.Dialect.columns(ctx, q, table, schema)
	return cols, errors.Wrapf(err, "could not list columns of %s.%s", schema, table)
}

// ListPrimaryKeys lists the primary key columns of a table, in key order
func (c *Converter) ListPrimaryKeys(ctx context.Context, q Queryer, table, schema string) ([]string, error) {
	pk, err := c.Dialect.primaryKeys(ctx, q, table, schema)
	return pk, errors.Wrapf(err, "could not list primary keys of %s.%s", schema, table)
}

// GetObjectMeta reads the metadata of a single table.  Column names are
// lower cased, and column comments become descriptions.
func (c *Converter) GetObjectMeta(ctx context.Context, q Queryer, table, schema string) (*metadata.Metadata, error) {
	cols, err := c.ListColumns(ctx, q, table, schema)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		// Either the table is missing, or it really has no columns
		tables, err := c.ListTables(ctx, q, schema)
		if err != nil {
			return nil, err
		}
		if !contains(tables, table) {
			return nil, errors.Wrapf(ErrNotFound, "table %s.%s", schema, table)
		}
	}

	pk, err := c.ListPrimaryKeys(ctx, q, table, schema)
	if err != nil {
		return nil, err
	}

	meta := metadata.New(table)
	for _, col := range cols {
		meta.Columns = append(meta.Columns, metadata.Column{
			Name:        strings.ToLower(col.Name),
			Type:        c.ConvertToMojapType(col.Type),
			Description: col.Comment,
			Nullable:    metadata.Bool(col.Nullable),
		})
	}
	for _, k := range pk {
		meta.PrimaryKey = append(meta.PrimaryKey, strings.ToLower(k))
	}

	c.log.Debug().
		Str("event", "table.read").
		Str("schema", schema).
		Str("table", table).
		Int("columns", len(cols)).
		Msg("read table metadata")

	return meta, nil
}

// GenerateFromMeta reads the metadata of every table in the given schemas, or
// every non-system schema if none are given.  The result is keyed by schema name,
// with tables in name order.
//
// Tables are read concurrently only when q is a *sql.DB; a *sql.Conn or *sql.Tx
// is a single connection, and is queried one table at a time.
func (c *Converter) GenerateFromMeta(ctx context.Context, q Queryer, schemas ...string) (map[string][]*metadata.Metadata, error) {
	if len(schemas) == 0 {
		var err error
		if schemas, err = c.ListSchemas(ctx, q); err != nil {
			return nil, err
		}
	}

	type job struct {
		schema string
		table  string
		slot   int
	}

	var jobs []job
	out := make(map[string][]*metadata.Metadata, len(schemas))
	for _, schema := range schemas {
		tables, err := c.ListTables(ctx, q, schema)
		if err != nil {
			return nil, err
		}
		out[schema] = make([]*metadata.Metadata, len(tables))
		for i, table := range tables {
			jobs = append(jobs, job{schema: schema, table: table, slot: i})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency(q))
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			meta, err := c.GetObjectMeta(gctx, q, j.table, j.schema)
			if err != nil {
				return err
			}
			// Each job owns its slot, and the map itself is only read here
			out[j.schema][j.slot] = meta
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// concurrency is the number of tables that may be read from q at once
func (c *Converter) concurrency(q Queryer) int {
	if _, pooled := q.(*sql.DB); !pooled {
		return 1
	}
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}
