/*
Package database converts between relational database tables and mojap metadata.

A Converter is created for a dialect (postgres, sqlite or oracle), and introspects a
database through the dialect's catalog: schemas, tables, columns, primary keys
and column comments.  Database column types are mapped to mojap types using
the dialect's type table; types without an entry become strings.

In the other direction, GenerateDDL renders a CREATE TABLE statement for
metadata, and a Catalog presents the database as a tree of entities
(database, schema, table, column) that can be walked.
*/
package database
