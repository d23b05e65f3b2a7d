package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SchemaURL identifies the version of the metadata schema documents are written against
const SchemaURL = "https://moj-analytical-services.github.io/metadata_schema/mojap_metadata/v1.3.0.json"

// ErrColumnNotFound is returned when a named column is not part of the metadata
var ErrColumnNotFound = errors.New("column not found")

// Metadata describes a table: its columns, and how it is stored and partitioned.
type Metadata struct {
	Schema      string   `json:"$schema" yaml:"$schema"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	FileFormat  string   `json:"file_format" yaml:"file_format"`
	Sensitive   bool     `json:"sensitive" yaml:"sensitive"`
	PrimaryKey  []string `json:"primary_key" yaml:"primary_key"`
	Partitions  []string `json:"partitions" yaml:"partitions"`
	Columns     []Column `json:"columns" yaml:"columns"`
}

// Column describes a single column of a table.  Either Type or TypeCategory
// must be present.
type Column struct {
	Name         string        `json:"name" yaml:"name"`
	Type         string        `json:"type,omitempty" yaml:"type,omitempty"`
	TypeCategory string        `json:"type_category,omitempty" yaml:"type_category,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Nullable     *bool         `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum         []interface{} `json:"enum,omitempty" yaml:"enum,omitempty"`
	Pattern      string        `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Minimum      *float64      `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum      *float64      `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength    *int          `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength    *int          `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Sensitive    *bool         `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
}

// Bool returns a pointer to b, for optional column attributes
func Bool(b bool) *bool {
	return &b
}

// IsNullable reports whether the column admits nulls.  Columns are
// nullable unless they explicitly say otherwise.
func (c Column) IsNullable() bool {
	return c.Nullable == nil || *c.Nullable
}

// Encoding names a serialization of metadata documents
type Encoding int

// Supported encodings
const (
	JSON Encoding = iota
	YAML
)

func (e Encoding) String() string {
	if e == YAML {
		return "yaml"
	}
	return "json"
}

// EncodingFor infers an encoding from a file name extension
func EncodingFor(path string) (Encoding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return JSON, fmt.Errorf("cannot infer metadata encoding of %s", path)
}

// New creates metadata for a table with the given columns, with all
// defaults populated.
func New(name string, columns ...Column) *Metadata {
	m := &Metadata{
		Name:    name,
		Columns: columns,
	}
	m.setDefaults()
	return m
}

func (m *Metadata) setDefaults() {
	if m.Schema == "" {
		m.Schema = SchemaURL
	}
	if m.PrimaryKey == nil {
		m.PrimaryKey = []string{}
	}
	if m.Partitions == nil {
		m.Partitions = []string{}
	}
	if m.Columns == nil {
		m.Columns = []Column{}
	}
}

// Parse parses a json byte stream into metadata
func Parse(r io.Reader, m *Metadata) error {
	return Read(r, JSON, m)
}

// Read parses a byte stream of the given encoding into metadata, and fills in defaults
func Read(r io.Reader, enc Encoding, m *Metadata) error {
	var err error
	switch enc {
	case YAML:
		err = yaml.NewDecoder(r).Decode(m)
	default:
		err = json.NewDecoder(r).Decode(m)
	}
	if err != nil {
		return errors.Wrapf(err, "Could not decode %s metadata", enc)
	}
	m.setDefaults()
	return nil
}

// Serialize writes the contents of the metadata to json
func (m *Metadata) Serialize(w io.Writer) error {
	return m.Write(w, JSON)
}

// Write serializes the metadata in the given encoding
func (m *Metadata) Write(w io.Writer, enc Encoding) error {
	out := m.Clone()
	out.setDefaults()

	if enc == YAML {
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(out); err != nil {
			return errors.Wrap(err, "could not encode yaml metadata")
		}
		return e.Close()
	}

	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	return errors.Wrap(e.Encode(out), "could not encode json metadata")
}

// ColumnNames lists the names of all columns, in order
func (m *Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column
func (m *Metadata) Column(name string) (Column, error) {
	if i := m.columnIndex(name); i >= 0 {
		return m.Columns[i], nil
	}
	return Column{}, errors.Wrapf(ErrColumnNotFound, "%s has no column %s", m.Name, name)
}

func (m *Metadata) columnIndex(name string) int {
	for i, c := range m.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// UpdateColumn replaces the column with the same name.  If there is none, the
// column is appended when appendNew is true, otherwise ErrColumnNotFound is returned.
func (m *Metadata) UpdateColumn(col Column, appendNew bool) error {
	if col.Name == "" {
		return fmt.Errorf("column has no name")
	}
	if col.Type != "" {
		if _, err := ParseType(col.Type); err != nil {
			return err
		}
	}

	if i := m.columnIndex(col.Name); i >= 0 {
		m.Columns[i] = col
		return nil
	}

	if !appendNew {
		return errors.Wrapf(ErrColumnNotFound, "cannot update %s in %s", col.Name, m.Name)
	}
	m.Columns = append(m.Columns, col)
	return nil
}

// RemoveColumn removes the named column, and any reference to it from the
// partitions and primary key.
func (m *Metadata) RemoveColumn(name string) error {
	i := m.columnIndex(name)
	if i < 0 {
		return errors.Wrapf(ErrColumnNotFound, "cannot remove %s from %s", name, m.Name)
	}

	m.Columns = append(m.Columns[:i:i], m.Columns[i+1:]...)
	m.Partitions = without(m.Partitions, name)
	m.PrimaryKey = without(m.PrimaryKey, name)
	return nil
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// PartitionOrder says where partition columns should be placed within the columns
type PartitionOrder string

// Partition column placement.
const (
	PartitionsFirst PartitionOrder = "start"
	PartitionsLast  PartitionOrder = "end"
)

// ForcePartitionOrder moves the partition columns to the start or end of the
// column list.  Partition columns appear in the order given by Partitions, and
// all other columns retain their relative order.
func (m *Metadata) ForcePartitionOrder(order PartitionOrder) error {
	if order != PartitionsFirst && order != PartitionsLast {
		return fmt.Errorf("partition order must be %q or %q, got %q", PartitionsFirst, PartitionsLast, order)
	}

	parts := make([]Column, 0, len(m.Partitions))
	for _, p := range m.Partitions {
		c, err := m.Column(p)
		if err != nil {
			return errors.Wrapf(err, "partition %s", p)
		}
		parts = append(parts, c)
	}

	rest := make([]Column, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !contains(m.Partitions, c.Name) {
			rest = append(rest, c)
		}
	}

	if order == PartitionsFirst {
		m.Columns = append(parts, rest...)
	} else {
		m.Columns = append(rest, parts...)
	}
	return nil
}

// SetColTypesFromTypeCategory fills in the type of any column that only declares a
// type category.  If f is nil, DefaultTypes is used.
func (m *Metadata) SetColTypesFromTypeCategory(f func(Column) (string, error)) error {
	for i, c := range m.Columns {
		if c.Type != "" || c.TypeCategory == "" {
			continue
		}

		var typ string
		var err error
		if f != nil {
			typ, err = f(c)
		} else {
			var ok bool
			if typ, ok = DefaultTypes[c.TypeCategory]; !ok {
				err = fmt.Errorf("type category %q has no default type", c.TypeCategory)
			}
		}
		if err != nil {
			return errors.Wrapf(err, "could not set type of column %s", c.Name)
		}

		if _, err := ParseType(typ); err != nil {
			return errors.Wrapf(err, "column %s", c.Name)
		}
		m.Columns[i].Type = typ
	}
	return nil
}

// SetColTypeCategoryFromTypes sets the type category of every column with a type
func (m *Metadata) SetColTypeCategoryFromTypes() error {
	for i, c := range m.Columns {
		if c.Type == "" {
			continue
		}
		dt, err := ParseType(c.Type)
		if err != nil {
			return errors.Wrapf(err, "column %s", c.Name)
		}
		m.Columns[i].TypeCategory = dt.Category()
	}
	return nil
}

// Clone makes a deep copy
func (m *Metadata) Clone() *Metadata {
	out := *m
	out.PrimaryKey = cloneStrings(m.PrimaryKey)
	out.Partitions = cloneStrings(m.Partitions)
	if m.Columns != nil {
		out.Columns = make([]Column, len(m.Columns))
		for i, c := range m.Columns {
			out.Columns[i] = c.clone()
		}
	}
	return &out
}

func (c Column) clone() Column {
	out := c
	if c.Enum != nil {
		out.Enum = append([]interface{}{}, c.Enum...)
	}
	if c.Nullable != nil {
		out.Nullable = Bool(*c.Nullable)
	}
	if c.Sensitive != nil {
		out.Sensitive = Bool(*c.Sensitive)
	}
	if c.Minimum != nil {
		v := *c.Minimum
		out.Minimum = &v
	}
	if c.Maximum != nil {
		v := *c.Maximum
		out.Maximum = &v
	}
	if c.MinLength != nil {
		v := *c.MinLength
		out.MinLength = &v
	}
	if c.MaxLength != nil {
		v := *c.MaxLength
		out.MaxLength = &v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
