// Package mojap defines an API for working with mojap table metadata.
//
// Metadata documents themselves live in the metadata package.  Conversion to
// and from other representations (arrow schemas, Glue catalog tables, legacy
// etl-manager files, parquet schemas, relational databases) is provided by the
// packages under converters/.  Converters that read from a live catalog, such as
// a database, expose the catalog as a hierarchy of entities (database, schema,
// table, column) which can be walked via the Walker interface defined here.
package mojap
