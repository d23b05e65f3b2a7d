package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	mojap "github.com/pjxcog/mojap-metadata"
	arrowconv "github.com/pjxcog/mojap-metadata/converters/arrow"
	"github.com/pjxcog/mojap-metadata/converters/database"
	"github.com/pjxcog/mojap-metadata/converters/etl"
	"github.com/pjxcog/mojap-metadata/converters/glue"
	parquetconv "github.com/pjxcog/mojap-metadata/converters/parquet"
	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var convertOpts = struct {
	to     string
	from   string
	out    string
	schema string
}{}

var convert = cli.Command{
	Name:  "convert",
	Usage: "Convert a metadata file to another format",
	Description: `Reads a table's metadata and writes it in another format:

	  metadata   mojap metadata (json, or yaml with --out x.yaml)
	  arrow      arrow schema
	  glue       glue TableInput, as json
	  etl        etl-manager table json
	  parquet    parquet schema definition
	  ddl        CREATE TABLE statement for the configured dialect

	The input is mojap metadata, unless --from etl is given.  Output goes to
	standard out unless --out names a file, which is replaced atomically.`,
	ArgsUsage: "file",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "to, t",
			Usage:       "Output format {metadata, arrow, glue, etl, parquet, ddl}",
			Destination: &convertOpts.to,
		},
		cli.StringFlag{
			Name:        "from, f",
			Usage:       "Input format {metadata, etl}",
			Value:       "metadata",
			Destination: &convertOpts.from,
		},
		cli.StringFlag{
			Name:        "out, o",
			Usage:       "Output file",
			Destination: &convertOpts.out,
		},
		cli.StringFlag{
			Name:        "schema, s",
			Usage:       "Schema of the table, for ddl",
			Destination: &convertOpts.schema,
		},
	},

	Action: func(c *cli.Context) error {
		return convertAction(os.Stdout, c.Args())
	},
}

func convertAction(stdout io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("convert takes exactly one file")
	}

	to := settings.Output.Format
	if convertOpts.to != "" {
		to = convertOpts.to
	}
	format := mojap.ParseFormat(to)
	if format == mojap.Unknown {
		return fmt.Errorf("unknown output format %q", to)
	}

	m, err := readInput(args[0], mojap.ParseFormat(convertOpts.from))
	if err != nil {
		return err
	}

	enc, err := settings.Output.MetadataEncoding()
	if err != nil {
		return err
	}

	if convertOpts.out == "" {
		return render(stdout, m, format, enc, convertOpts.schema)
	}

	if e, err := metadata.EncodingFor(convertOpts.out); err == nil {
		enc = e
	}
	return writeFile(convertOpts.out, m, format, enc, convertOpts.schema)
}

func readInput(path string, from mojap.Format) (*metadata.Metadata, error) {
	switch from {
	case mojap.Metadata:
		return files.ReadMetadata(path)
	case mojap.ETL:
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open %s", path)
		}
		defer file.Close()

		t, err := etl.Read(file)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read %s", path)
		}
		return etl.GenerateToMeta(t)
	}
	return nil, fmt.Errorf("cannot read %s input", from)
}

// writeFile atomically writes the rendered metadata to a file
func writeFile(path string, m *metadata.Metadata, format mojap.Format, enc metadata.Encoding, schema string) error {
	w, err := files.AtomicWrite(path)
	if err != nil {
		return err
	}
	defer w.Rollback()

	if err := render(w, m, format, enc, schema); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}
	return w.Close()
}

// render writes metadata in the given format
func render(w io.Writer, m *metadata.Metadata, format mojap.Format, enc metadata.Encoding, schema string) error {
	switch format {
	case mojap.Metadata:
		return m.Write(w, enc)

	case mojap.Arrow:
		s, err := arrowconv.GenerateFromMeta(m)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s.String())
		return err

	case mojap.Glue:
		input, err := glue.GenerateFromMeta(m, glueOptions(m))
		if err != nil {
			return err
		}
		e := json.NewEncoder(w)
		e.SetIndent("", "    ")
		return errors.Wrap(e.Encode(input), "could not encode glue table")

	case mojap.ETL:
		t, err := etl.GenerateFromMeta(m)
		if err != nil {
			return err
		}
		return t.Write(w)

	case mojap.Parquet:
		sd, err := parquetconv.GenerateFromMeta(m)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, sd.String())
		return err

	case mojap.DDL:
		conv, err := database.New(settings.Database.Dialect)
		if err != nil {
			return err
		}
		ddl, err := conv.GenerateDDL(m, schema)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, ddl)
		return err
	}
	return fmt.Errorf("cannot write %s output", format)
}

// extension is the file extension for a format
func extension(format mojap.Format, enc metadata.Encoding) string {
	switch format {
	case mojap.Metadata:
		return enc.String()
	case mojap.Glue, mojap.ETL:
		return "json"
	case mojap.Parquet:
		return "parquet.schema"
	case mojap.DDL:
		return "sql"
	}
	return "txt"
}

// glueOptions places the table under the configured location prefix, if any
func glueOptions(m *metadata.Metadata) glue.Options {
	opts := glue.Options{DatabaseName: settings.Glue.Database}
	if settings.Glue.Location != "" {
		opts.Location = strings.TrimSuffix(settings.Glue.Location, "/") + "/" + m.Name + "/"
	}
	return opts
}
