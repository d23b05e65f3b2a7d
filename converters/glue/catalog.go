package glue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/pjxcog/mojap-metadata/internal/log"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrTableNotFound is returned when a glue table does not exist
var ErrTableNotFound = errors.New("glue table not found")

// API is the subset of the glue client used by Catalog.  *glue.Client satisfies it.
type API interface {
	GetTable(ctx context.Context, in *glue.GetTableInput, opts ...func(*glue.Options)) (*glue.GetTableOutput, error)
	CreateTable(ctx context.Context, in *glue.CreateTableInput, opts ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	DeleteTable(ctx context.Context, in *glue.DeleteTableInput, opts ...func(*glue.Options)) (*glue.DeleteTableOutput, error)
}

var _ API = &glue.Client{}

// Catalog manages tables in the glue catalog from metadata
type Catalog struct {
	api API
	log zerolog.Logger
}

// NewCatalog creates a catalog over a glue client
func NewCatalog(api API) *Catalog {
	return &Catalog{
		api: api,
		log: log.WithComponent("glue"),
	}
}

// CreateTable creates a glue table from metadata.  If replace is true, any existing
// table of the same name is deleted first.
func (c *Catalog) CreateTable(ctx context.Context, m *metadata.Metadata, opts Options, replace bool) error {
	if opts.DatabaseName == "" {
		return errors.New("a glue database name is required")
	}

	input, err := GenerateFromMeta(m, opts)
	if err != nil {
		return err
	}

	if replace {
		if err := c.DeleteTable(ctx, opts.DatabaseName, m.Name); err != nil {
			return err
		}
	}

	_, err = c.api.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(opts.DatabaseName),
		TableInput:   input,
	})
	if err != nil {
		return errors.Wrapf(err, "could not create glue table %s.%s", opts.DatabaseName, m.Name)
	}

	c.log.Debug().
		Str("event", "glue.table.created").
		Str("database", opts.DatabaseName).
		Str("table", m.Name).
		Msg("created glue table")
	return nil
}

// GetMeta reads the metadata of a glue table
func (c *Catalog) GetMeta(ctx context.Context, database, table string) (*metadata.Metadata, error) {
	out, err := c.api.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if isNotFound(err) {
		return nil, errors.Wrapf(ErrTableNotFound, "%s.%s", database, table)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not get glue table %s.%s", database, table)
	}
	return GenerateToMeta(out.Table)
}

// DeleteTable deletes a glue table.  Deleting a table which does not exist is
// not an error.
func (c *Catalog) DeleteTable(ctx context.Context, database, table string) error {
	_, err := c.api.DeleteTable(ctx, &glue.DeleteTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if isNotFound(err) {
		c.log.Debug().
			Str("event", "glue.table.missing").
			Str("database", database).
			Str("table", table).
			Msg("no glue table to delete")
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not delete glue table %s.%s", database, table)
	}

	c.log.Debug().
		Str("event", "glue.table.deleted").
		Str("database", database).
		Str("table", table).
		Msg("deleted glue table")
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.EntityNotFoundException
	return errors.As(err, &notFound)
}
