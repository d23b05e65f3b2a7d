package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	mojap "github.com/pjxcog/mojap-metadata"
	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/fspath"
	"github.com/pjxcog/mojap-metadata/internal/config"
	"github.com/pjxcog/mojap-metadata/internal/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var generateOpts = struct {
	out    string
	format string
	layout string
}{}

var generate = cli.Command{
	Name:  "generate",
	Usage: "Generate metadata files from a database",
	Description: `Introspects every table in the given schemas, or in all schemas other
	than the database's system schemas, and writes a file per table.

	With the default layout, each table is written to <out>/<schema>/<table>.<ext>;
	with --layout flat, to <out>/<schema>.<table>.<ext>.  Dots, solidi and other
	characters unsafe in file names are percent encoded, e.g. the table a.b in
	schema s is written to s/a%2Eb.json.  Existing files are replaced atomically.

	Files are mojap metadata unless --format names another output format
	(see convert).`,
	ArgsUsage: "[ schema ] ...",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "out, o",
			Usage:       "Output directory",
			Destination: &generateOpts.out,
		},
		cli.StringFlag{
			Name:        "format, f",
			Usage:       "Output format {metadata, arrow, glue, etl, parquet, ddl}",
			Destination: &generateOpts.format,
		},
		cli.StringFlag{
			Name:        "layout, l",
			Usage:       "File layout {schema, flat}",
			Destination: &generateOpts.layout,
		},
	},

	Action: func(c *cli.Context) error {
		ctx, cancel := interruptible()
		defer cancel()
		return generateAction(ctx, os.Stdout, c.Args())
	},
}

func generateAction(ctx context.Context, out io.Writer, schemas []string) error {
	output := settings.Output
	if generateOpts.out != "" {
		output.Dir = generateOpts.out
	}
	if generateOpts.format != "" {
		output.Format = generateOpts.format
	}
	if generateOpts.layout != "" {
		output.Layout = generateOpts.layout
	}

	format := mojap.ParseFormat(output.Format)
	if format == mojap.Unknown {
		return fmt.Errorf("unknown output format %q", output.Format)
	}
	enc, err := output.MetadataEncoding()
	if err != nil {
		return err
	}

	var paths fspath.Generator
	switch output.Layout {
	case config.LayoutSchema:
		paths = fspath.SchemaDirs
	case config.LayoutFlat:
		paths = fspath.Flat
	default:
		return fmt.Errorf("unknown layout %q", output.Layout)
	}
	paths = fspath.WithExt(paths, extension(format, enc))

	if len(schemas) == 0 {
		schemas = settings.Database.Schemas
	}

	db, conv, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := conv.GenerateFromMeta(ctx, db, schemas...)
	if err != nil {
		return err
	}

	logger := log.WithComponent("generate")
	for _, schema := range sortedKeys(tables) {
		for _, m := range tables[schema] {
			rel := filepath.FromSlash(paths.Generate(schema, m.Name))
			if !filepath.IsLocal(rel) {
				return fmt.Errorf("table %s.%s would be written outside %s", schema, m.Name, output.Dir)
			}
			path := filepath.Join(output.Dir, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errors.Wrapf(err, "could not create directory for %s", path)
			}

			if format == mojap.Metadata {
				err = files.WriteMetadata(path, m)
			} else {
				err = writeFile(path, m, format, enc, schema)
			}
			if err != nil {
				return err
			}

			logger.Info().
				Str("event", "table.written").
				Str("schema", schema).
				Str("table", m.Name).
				Str("path", path).
				Msg("generated table metadata")
			fmt.Fprintln(out, path)
		}
	}
	return nil
}
