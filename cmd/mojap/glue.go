package main

import (
	"context"
	"fmt"
	"io"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsglue "github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/pjxcog/mojap-metadata/converters/glue"
	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/internal/resolv"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var glueOpts = struct {
	database string
	location string
	replace  bool
	encoding string
}{}

var glueFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "database, db",
		Usage:       "Glue database",
		EnvVar:      "MOJAP_GLUE_DATABASE",
		Destination: &glueOpts.database,
	},
}

var glueCommand = cli.Command{
	Name:  "glue",
	Usage: "Manage glue catalog tables",
	Description: `Creates, reads and deletes tables in the AWS glue catalog.

	Credentials and region are found the usual AWS way (environment,
	shared config, instance role), unless the configuration file names
	a region.`,
	Subcommands: []cli.Command{
		{
			Name:      "create",
			Usage:     "Create glue tables from metadata files",
			ArgsUsage: "[ file | dir ] ...",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:        "location, l",
					Usage:       "S3 prefix; each table's data lives beneath it, under the table name",
					Destination: &glueOpts.location,
				},
				cli.BoolFlag{
					Name:        "replace",
					Usage:       "Replace existing tables",
					Destination: &glueOpts.replace,
				},
			}, glueFlags...),
			Action: func(c *cli.Context) error {
				return withCatalog(func(ctx context.Context, catalog *glue.Catalog) error {
					return glueCreateAction(ctx, catalog, os.Stdout, c.Args())
				})
			},
		},
		{
			Name:      "get",
			Usage:     "Print a glue table as metadata",
			ArgsUsage: "[database.]table",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:        "encoding, e",
					Usage:       "Metadata encoding {json, yaml}",
					Destination: &glueOpts.encoding,
				},
			}, glueFlags...),
			Action: func(c *cli.Context) error {
				return withCatalog(func(ctx context.Context, catalog *glue.Catalog) error {
					return glueGetAction(ctx, catalog, os.Stdout, c.Args())
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete glue tables",
			ArgsUsage: "[database.]table ...",
			Flags:     glueFlags,
			Action: func(c *cli.Context) error {
				return withCatalog(func(ctx context.Context, catalog *glue.Catalog) error {
					return glueDeleteAction(ctx, catalog, os.Stdout, c.Args())
				})
			},
		},
	},
}

func withCatalog(f func(context.Context, *glue.Catalog) error) error {
	if glueOpts.database != "" {
		settings.Glue.Database = glueOpts.database
	}
	if glueOpts.location != "" {
		settings.Glue.Location = glueOpts.location
	}

	ctx, cancel := interruptible()
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if settings.Glue.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Glue.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "could not load AWS configuration")
	}

	return f(ctx, glue.NewCatalog(awsglue.NewFromConfig(cfg)))
}

func glueCreateAction(ctx context.Context, catalog *glue.Catalog, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no metadata files given")
	}

	return files.Walk(args, func(path string) error {
		m, err := files.ReadMetadata(path)
		if err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "%s", path)
		}

		opts := glueOptions(m)
		if err := catalog.CreateTable(ctx, m, opts, glueOpts.replace); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "created  %s.%s\n", opts.DatabaseName, m.Name)
		return err
	})
}

func glueGetAction(ctx context.Context, catalog *glue.Catalog, out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get takes exactly one table")
	}

	database, table, err := glueTable(args[0])
	if err != nil {
		return err
	}

	m, err := catalog.GetMeta(ctx, database, table)
	if err != nil {
		return err
	}

	enc := metadata.JSON
	if glueOpts.encoding != "" {
		if enc, err = metadata.EncodingFor("." + glueOpts.encoding); err != nil {
			return err
		}
	}
	return m.Write(out, enc)
}

func glueDeleteAction(ctx context.Context, catalog *glue.Catalog, out io.Writer, args []string) error {
	for _, arg := range args {
		database, table, err := glueTable(arg)
		if err != nil {
			return err
		}
		if err := catalog.DeleteTable(ctx, database, table); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "deleted  %s.%s\n", database, table); err != nil {
			return err
		}
	}
	return nil
}

// glueTable resolves [database.]table, relative to the configured glue database
func glueTable(ref string) (database, table string, err error) {
	cxt := resolv.NewCxt(settings.Glue.Database)
	coords, err := cxt.ParseRef([]string{ref})
	if err != nil {
		return "", "", err
	}

	switch {
	case len(coords) == 2:
		return coords.Schema(), coords.Table(), nil
	case len(coords) == 3 && settings.Glue.Database != "":
		// Fully qualified, overriding the configured database
		return coords[1], coords[2], nil
	}
	return "", "", fmt.Errorf("%s does not name a glue table, expected [database.]table", ref)
}
