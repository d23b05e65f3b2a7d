package metadata_test

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/pjxcog/mojap-metadata/metadata"
)

var testMetadata = metadata.Metadata{
	Schema:      metadata.SchemaURL,
	Name:        "people",
	Description: "A table of people",
	FileFormat:  "parquet",
	PrimaryKey:  []string{"id"},
	Partitions:  []string{"year"},
	Columns: []metadata.Column{
		{Name: "id", Type: "int64", Nullable: metadata.Bool(false)},
		{Name: "name", Type: "string", Description: "Full name"},
		{Name: "tags", Type: "list<string>"},
		{Name: "address", Type: "struct<street:string, postcode:string>"},
		{Name: "year", TypeCategory: "integer"},
	},
}

func TestParseRoundTrip(t *testing.T) {
	for _, enc := range []metadata.Encoding{metadata.JSON, metadata.YAML} {
		enc := enc
		t.Run(enc.String(), func(t *testing.T) {
			var buf bytes.Buffer
			writer := bufio.NewWriter(&buf)
			reader := bufio.NewReader(&buf)

			err := testMetadata.Write(writer, enc)
			if err != nil {
				t.Error(err)
			}

			writer.Flush()

			deserialized := metadata.Metadata{}
			err = metadata.Read(reader, enc, &deserialized)
			if err != nil {
				t.Logf("Raw serialized %s: %s", enc, buf.String())
				t.Error(err)
			}

			diff := deep.Equal(testMetadata, deserialized)
			if diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestReadFixtures(t *testing.T) {
	for _, name := range []string{"testdata/people.json", "testdata/people.yaml"} {
		name := name
		t.Run(name, func(t *testing.T) {
			enc, err := metadata.EncodingFor(name)
			if err != nil {
				t.Fatal(err)
			}

			f, err := os.Open(name)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			var m metadata.Metadata
			if err := metadata.Read(f, enc, &m); err != nil {
				t.Fatal(err)
			}

			if diff := deep.Equal(testMetadata, m); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestParseBadInput(t *testing.T) {

	err := metadata.Parse(strings.NewReader("bad json"), &metadata.Metadata{})
	if err == nil {
		t.Fatal("Parser should have thrown an error")
	}

	err = metadata.Read(strings.NewReader("name: [unclosed"), metadata.YAML, &metadata.Metadata{})
	if err == nil {
		t.Fatal("YAML parser should have thrown an error")
	}
}

func TestDefaults(t *testing.T) {
	var m metadata.Metadata
	if err := metadata.Parse(strings.NewReader(`{"name": "bare", "columns": []}`), &m); err != nil {
		t.Fatal(err)
	}

	expected := metadata.Metadata{
		Schema:     metadata.SchemaURL,
		Name:       "bare",
		PrimaryKey: []string{},
		Partitions: []string{},
		Columns:    []metadata.Column{},
	}
	if diff := deep.Equal(expected, m); diff != nil {
		t.Error(diff)
	}

	var buf bytes.Buffer
	if err := metadata.New("empty").Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"$schema"`, `"description": ""`, `"file_format": ""`, `"sensitive": false`, `"primary_key": []`, `"partitions": []`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("serialized metadata lacks %s: %s", key, buf.String())
		}
	}
}

func TestEncodingFor(t *testing.T) {
	cases := map[string]metadata.Encoding{
		"a.json":     metadata.JSON,
		"dir/b.yaml": metadata.YAML,
		"C.YML":      metadata.YAML,
	}
	for path, expected := range cases {
		enc, err := metadata.EncodingFor(path)
		if err != nil || enc != expected {
			t.Errorf("EncodingFor(%s) = %s, %v", path, enc, err)
		}
	}

	if _, err := metadata.EncodingFor("table.csv"); err == nil {
		t.Errorf("csv should not be a metadata encoding")
	}
}

func TestColumnNames(t *testing.T) {
	expected := []string{"id", "name", "tags", "address", "year"}
	if diff := deep.Equal(expected, testMetadata.ColumnNames()); diff != nil {
		t.Error(diff)
	}
}

func TestColumn(t *testing.T) {
	c, err := testMetadata.Column("name")
	if err != nil {
		t.Fatal(err)
	}
	if c.Description != "Full name" {
		t.Errorf("got wrong column %+v", c)
	}

	_, err = testMetadata.Column("NOOO")
	if !errors.Is(err, metadata.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestUpdateColumn(t *testing.T) {
	m := testMetadata.Clone()

	if err := m.UpdateColumn(metadata.Column{Name: "name", Type: "large_string"}, false); err != nil {
		t.Fatal(err)
	}
	if c, _ := m.Column("name"); c.Type != "large_string" {
		t.Errorf("column was not replaced: %+v", c)
	}

	err := m.UpdateColumn(metadata.Column{Name: "new", Type: "bool"}, false)
	if !errors.Is(err, metadata.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound without append, got %v", err)
	}

	if err := m.UpdateColumn(metadata.Column{Name: "new", Type: "bool"}, true); err != nil {
		t.Fatal(err)
	}
	if names := m.ColumnNames(); names[len(names)-1] != "new" {
		t.Errorf("column was not appended: %v", names)
	}

	if err := m.UpdateColumn(metadata.Column{Name: "bad", Type: "int65"}, true); err == nil {
		t.Errorf("should not accept an invalid type")
	}

	if err := m.UpdateColumn(metadata.Column{Type: "bool"}, true); err == nil {
		t.Errorf("should not accept a column without a name")
	}

	// The original is untouched
	if c, _ := testMetadata.Column("name"); c.Type != "string" {
		t.Errorf("clone shares columns with the original")
	}
}

func TestRemoveColumn(t *testing.T) {
	m := testMetadata.Clone()

	for _, name := range []string{"id", "year"} {
		if err := m.RemoveColumn(name); err != nil {
			t.Fatal(err)
		}
	}

	if diff := deep.Equal([]string{"name", "tags", "address"}, m.ColumnNames()); diff != nil {
		t.Error(diff)
	}
	if len(m.PrimaryKey) != 0 || len(m.Partitions) != 0 {
		t.Errorf("removed columns still referenced: pk=%v partitions=%v", m.PrimaryKey, m.Partitions)
	}
	if len(testMetadata.Columns) != 5 {
		t.Errorf("original was modified")
	}

	if err := m.RemoveColumn("id"); !errors.Is(err, metadata.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestForcePartitionOrder(t *testing.T) {
	cases := []struct {
		name     string
		order    metadata.PartitionOrder
		expected []string
	}{
		{"start", metadata.PartitionsFirst, []string{"c", "a", "b", "d"}},
		{"end", metadata.PartitionsLast, []string{"b", "d", "c", "a"}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			m := metadata.New("t",
				metadata.Column{Name: "a", Type: "int64"},
				metadata.Column{Name: "b", Type: "int64"},
				metadata.Column{Name: "c", Type: "int64"},
				metadata.Column{Name: "d", Type: "int64"},
			)
			m.Partitions = []string{"c", "a"}

			if err := m.ForcePartitionOrder(c.order); err != nil {
				t.Fatal(err)
			}
			if diff := deep.Equal(c.expected, m.ColumnNames()); diff != nil {
				t.Error(diff)
			}
		})
	}

	m := metadata.New("t", metadata.Column{Name: "a", Type: "int64"})
	m.Partitions = []string{"missing"}
	if err := m.ForcePartitionOrder(metadata.PartitionsFirst); err == nil {
		t.Errorf("missing partition column should be an error")
	}
	if err := m.ForcePartitionOrder("middle"); err == nil {
		t.Errorf("bad order should be an error")
	}
}

func TestSetColTypesFromTypeCategory(t *testing.T) {
	m := metadata.New("t",
		metadata.Column{Name: "a", TypeCategory: "integer"},
		metadata.Column{Name: "b", TypeCategory: "timestamp"},
		metadata.Column{Name: "c", Type: "int8", TypeCategory: "integer"},
	)

	if err := m.SetColTypesFromTypeCategory(nil); err != nil {
		t.Fatal(err)
	}
	expected := []string{"int64", "timestamp(s)", "int8"}
	for i, c := range m.Columns {
		if c.Type != expected[i] {
			t.Errorf("column %s: expected %s, got %s", c.Name, expected[i], c.Type)
		}
	}

	custom := metadata.New("t", metadata.Column{Name: "a", TypeCategory: "integer"})
	err := custom.SetColTypesFromTypeCategory(func(c metadata.Column) (string, error) {
		return "int32", nil
	})
	if err != nil || custom.Columns[0].Type != "int32" {
		t.Errorf("custom type function was not applied: %v %+v", err, custom.Columns[0])
	}

	nested := metadata.New("t", metadata.Column{Name: "a", TypeCategory: "struct"})
	if err := nested.SetColTypesFromTypeCategory(nil); err == nil {
		t.Errorf("struct category has no default and should be an error")
	}
}

func TestSetColTypeCategoryFromTypes(t *testing.T) {
	m := metadata.New("t",
		metadata.Column{Name: "a", Type: "decimal128(10,2)"},
		metadata.Column{Name: "b", Type: "list<int64>"},
		metadata.Column{Name: "c", Type: "date64"},
		metadata.Column{Name: "d", TypeCategory: "string"},
	)

	if err := m.SetColTypeCategoryFromTypes(); err != nil {
		t.Fatal(err)
	}
	expected := []string{"decimal", "list", "timestamp", "string"}
	for i, c := range m.Columns {
		if c.TypeCategory != expected[i] {
			t.Errorf("column %s: expected %s, got %s", c.Name, expected[i], c.TypeCategory)
		}
	}

	bad := metadata.New("t", metadata.Column{Name: "a", Type: "nope"})
	if err := bad.SetColTypeCategoryFromTypes(); err == nil {
		t.Errorf("invalid type should be an error")
	}
}

func TestIsNullable(t *testing.T) {
	if !(metadata.Column{}).IsNullable() {
		t.Errorf("columns are nullable by default")
	}
	if (metadata.Column{Nullable: metadata.Bool(false)}).IsNullable() {
		t.Errorf("explicitly non-nullable column reported as nullable")
	}
}
