package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

var validateOpts = struct {
	watch bool
}{}

var validate = cli.Command{
	Name:  "validate",
	Usage: "Validate metadata files",
	Description: `Validates each metadata file against the metadata schema, and checks
	that its columns, types, partitions and primary key are consistent.

	Directories are searched for .json, .yaml and .yml files, skipping
	hidden files and directories.  With no arguments, the current
	directory is searched.

	With --watch, files are validated again whenever they change, until
	interrupted.`,
	ArgsUsage: "[ file | dir ] ...",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "watch, w",
			Usage:       "Re-validate files when they change",
			Destination: &validateOpts.watch,
		},
	},

	Action: func(c *cli.Context) error {
		return validateAction(os.Stdout, c.Args())
	},
}

func validateAction(out io.Writer, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	var paths []string
	err := files.Walk(args, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}

	failed, err := validateFiles(out, paths)
	if err != nil {
		return err
	}

	if validateOpts.watch {
		return watchAction(out, args)
	}

	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d files are invalid", failed, len(paths)), 1)
	}
	return nil
}

// validateFiles validates files in parallel, and reports on each in the order given.
// It returns the number of invalid files.
func validateFiles(out io.Writer, paths []string) (int, error) {
	results := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			m, err := files.ReadMetadata(path)
			if err != nil {
				results[i] = err
				return nil
			}
			results[i] = m.Validate()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	failed := 0
	for i, path := range paths {
		if err := report(out, path, results[i]); err != nil {
			return failed, errors.Wrap(err, "could not write report")
		}
		if results[i] != nil {
			failed++
		}
	}
	return failed, nil
}

func report(out io.Writer, path string, result error) error {
	if result == nil {
		_, err := fmt.Fprintf(out, "ok       %s\n", path)
		return err
	}

	var verr *metadata.ValidationError
	if !errors.As(result, &verr) {
		_, err := fmt.Fprintf(out, "error    %s: %s\n", path, result)
		return err
	}

	if _, err := fmt.Fprintf(out, "invalid  %s\n", path); err != nil {
		return err
	}
	for _, e := range verr.Errors {
		if _, err := fmt.Fprintf(out, "    %s\n", e); err != nil {
			return err
		}
	}
	return nil
}

// watchAction validates changed files until interrupted
func watchAction(out io.Writer, args []string) error {
	w, err := files.NewWatcher(args)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := interruptible()
	defer cancel()

	return w.Run(ctx, files.DefaultDebounce, func(changed []string) {
		var present []string
		for _, path := range changed {
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(out, "removed  %s\n", path)
				continue
			}
			present = append(present, path)
		}
		if _, err := validateFiles(out, present); err != nil {
			fmt.Fprintf(out, "error    %s\n", err)
		}
	})
}
