package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	mojap "github.com/pjxcog/mojap-metadata"
	"github.com/pjxcog/mojap-metadata/internal/resolv"
	"github.com/urfave/cli"
)

var lsOpts = struct {
	physical  bool
	mojaptype string
	schema    string
}{}

var ls = cli.Command{
	Name:  "ls",
	Usage: "List database entities (schemas, tables, columns)",
	Description: `Given a reference to a schema or table, list its contents.

	References are dot separated names, and names containing dots may
	be double quoted.  For example, the following would list the columns
	of the people table in the public schema

	  mojap ls public.people

	as would

	  mojap ls --schema public people

	With no reference, every schema, table and column is listed.  Listing
	may be restricted by type, e.g. to list every table in the database

	  mojap ls -t table`,
	ArgsUsage: "[ schema[.table[.column]] ] ...",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "physical, p",
			Usage:       "Show qualified names, as well as coordinates",
			Destination: &lsOpts.physical,
		},
		cli.StringFlag{
			Name:        "type, t",
			Usage:       "Show only {schema, table, column} entities",
			Destination: &lsOpts.mojaptype,
		},
		cli.StringFlag{
			Name:        "schema, s",
			Usage:       "Schema that references are relative to",
			Destination: &lsOpts.schema,
		},
	},

	Action: func(c *cli.Context) error {
		ctx, cancel := interruptible()
		defer cancel()
		return lsAction(ctx, os.Stdout, c.Args())
	},
}

func lsAction(ctx context.Context, out io.Writer, args []string) error {
	cxt := resolv.NewCxt(lsOpts.schema)
	coords, err := cxt.ParseRef(args)
	if err != nil {
		return err
	}

	db, conv, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog := conv.Catalog(db, conv.Dialect.Name)

	return catalog.Walk(ctx, mojap.Select{Type: mojap.ParseType(lsOpts.mojaptype)}, func(ref mojap.EntityRef) error {
		if ref.Type == mojap.Database {
			return nil
		}

		fields := ref.Coords()
		if lsOpts.physical {
			fields = append(fields, ref.Addr)
		}

		_, err := fmt.Fprintln(out, strings.Join(fields, "    "))
		return err
	}, coords...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
