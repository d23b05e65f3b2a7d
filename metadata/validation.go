package metadata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
)

//go:embed schemas/table_schema.json
var tableSchemaJSON []byte

var tableSchema = mustLoadSchema(tableSchemaJSON)

func mustLoadSchema(data []byte) *openapi3.Schema {
	var s openapi3.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		panic(fmt.Sprintf("embedded metadata schema is invalid: %s", err))
	}
	return &s
}

// FieldError describes a single problem with a metadata document
type FieldError struct {
	Field   string // Slash delimited path of the offending value, e.g. columns/2/type
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError bundles every problem found when validating metadata
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "invalid metadata: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate verifies whether metadata conforms to the metadata json schema, and is internally consistent.
// All problems are reported at once, as a *ValidationError.
//
// Internally consistent
//
// Internally consistent means:
//
// Column names are unique.
//
// Every column has a type, or a type category.
//
// Column types are valid type expressions (see ParseType), and agree with the
// type category when both are given.
//
// Every primary key and partition column names a column, and is listed at most once.
func (m *Metadata) Validate() error {
	verr := &ValidationError{}

	doc, err := toDocument(m)
	if err != nil {
		return errors.Wrap(err, "could not prepare metadata for validation")
	}
	if err := tableSchema.VisitJSON(doc, openapi3.MultiErrors()); err != nil {
		collectSchemaErrors(verr, err)
	}

	seen := make(map[string]bool, len(m.Columns))
	for i, c := range m.Columns {
		field := fmt.Sprintf("columns/%d", i)
		if c.Name != "" {
			if seen[c.Name] {
				verr.add(field+"/name", "duplicate column name %q", c.Name)
			}
			seen[c.Name] = true
		}

		if c.Type == "" && c.TypeCategory == "" {
			verr.add(field, "column %q needs a type or type_category", c.Name)
			continue
		}
		if c.Type == "" {
			continue
		}

		dt, err := ParseType(c.Type)
		if err != nil {
			verr.add(field+"/type", "%s", err)
			continue
		}
		if c.TypeCategory != "" && dt.Category() != c.TypeCategory {
			verr.add(field+"/type_category", "type %s is in category %s, not %s", c.Type, dt.Category(), c.TypeCategory)
		}
	}

	checkColumnList(verr, "primary_key", m.PrimaryKey, seen)
	checkColumnList(verr, "partitions", m.Partitions, seen)

	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

func checkColumnList(verr *ValidationError, field string, names []string, columns map[string]bool) {
	listed := make(map[string]bool, len(names))
	for i, name := range names {
		if !columns[name] {
			verr.add(fmt.Sprintf("%s/%d", field, i), "%q is not a column", name)
		}
		if listed[name] {
			verr.add(fmt.Sprintf("%s/%d", field, i), "%q is listed more than once", name)
		}
		listed[name] = true
	}
}

// toDocument converts metadata to the generic form produced by decoding json,
// which is what the schema validator operates on
func toDocument(m *Metadata) (interface{}, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func collectSchemaErrors(verr *ValidationError, err error) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectSchemaErrors(verr, inner)
		}
	case *openapi3.SchemaError:
		verr.add(strings.Join(e.JSONPointer(), "/"), "%s", e.Reason)
	default:
		verr.add("", "%s", err)
	}
}
