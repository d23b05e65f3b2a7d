// Package config loads the configuration of the mojap command line tool.
//
// Configuration is read from a YAML file, strictly: unknown keys are errors.
// Command line flags, and their environment variables, override file values.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	mojap "github.com/pjxcog/mojap-metadata"
	"github.com/pjxcog/mojap-metadata/converters/database"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the complete tool configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Glue     GlueConfig     `yaml:"glue"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig says which database to introspect
type DatabaseConfig struct {
	Dialect     string   `yaml:"dialect"`
	DSN         string   `yaml:"dsn"`
	Schemas     []string `yaml:"schemas"`
	Concurrency int      `yaml:"concurrency"`
}

// OutputConfig says how generated files are written
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format"`   // Format name, see mojap.ParseFormat
	Encoding string `yaml:"encoding"` // json or yaml, for metadata output
	Layout   string `yaml:"layout"`   // flat (schema.table.ext) or schema (schema/table.ext)
}

// GlueConfig names the glue database tables are created in
type GlueConfig struct {
	Database string `yaml:"database"`
	Location string `yaml:"location"` // S3 prefix, tables are placed under it by name
	Region   string `yaml:"region"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Output layouts
const (
	LayoutFlat   = "flat"
	LayoutSchema = "schema"
)

// Default returns the configuration used when there is no file
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Dialect:     "postgres",
			Concurrency: database.DefaultConcurrency,
		},
		Output: OutputConfig{
			Dir:      ".",
			Format:   mojap.Metadata.String(),
			Encoding: metadata.JSON.String(),
			Layout:   LayoutSchema,
		},
	}
}

// Load reads configuration from a YAML file.  Values absent from the file take
// their defaults.  An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "strict config parse error in %s", path)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return cfg, fmt.Errorf("config file %s contains multiple documents or trailing content", path)
	}

	return cfg, nil
}

// ValidationError lists every problem found in a configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks that the configuration names known dialects, formats, and so on
func (c Config) Validate() error {
	verr := &ValidationError{}
	problem := func(format string, args ...interface{}) {
		verr.Problems = append(verr.Problems, fmt.Sprintf(format, args...))
	}

	if _, err := database.LookupDialect(c.Database.Dialect); err != nil {
		problem("database.dialect: %s", err)
	}
	if c.Database.Concurrency < 0 {
		problem("database.concurrency: must not be negative, got %d", c.Database.Concurrency)
	}

	if mojap.ParseFormat(c.Output.Format) == mojap.Unknown {
		problem("output.format: unknown format %q", c.Output.Format)
	}
	if _, err := c.Output.MetadataEncoding(); err != nil {
		problem("output.encoding: %s", err)
	}
	if c.Output.Layout != LayoutFlat && c.Output.Layout != LayoutSchema {
		problem("output.layout: must be %q or %q, got %q", LayoutFlat, LayoutSchema, c.Output.Layout)
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			problem("log.level: %s", err)
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// MetadataEncoding returns the encoding of metadata output files
func (o OutputConfig) MetadataEncoding() (metadata.Encoding, error) {
	switch strings.ToLower(o.Encoding) {
	case "json":
		return metadata.JSON, nil
	case "yaml", "yml":
		return metadata.YAML, nil
	}
	return metadata.JSON, fmt.Errorf("unknown encoding %q, expected json or yaml", o.Encoding)
}
