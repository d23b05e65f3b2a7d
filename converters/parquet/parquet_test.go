package parquet_test

import (
	"errors"
	"testing"

	"github.com/fraugster/parquet-go/parquet"
	"github.com/pjxcog/mojap-metadata/converters"
	parquetconv "github.com/pjxcog/mojap-metadata/converters/parquet"
	"github.com/pjxcog/mojap-metadata/metadata"
)

func testMeta() *metadata.Metadata {
	return metadata.New("people",
		metadata.Column{Name: "id", Type: "int64", Nullable: metadata.Bool(false)},
		metadata.Column{Name: "name", Type: "string"},
		metadata.Column{Name: "age", Type: "int8"},
		metadata.Column{Name: "balance", Type: "decimal128(10,2)"},
		metadata.Column{Name: "seen", Type: "timestamp(ms)"},
		metadata.Column{Name: "tags", Type: "list<string>"},
		metadata.Column{Name: "address", Type: "struct<street:string, postcode:string>"},
		metadata.Column{Name: "scores", Type: "map_<string, float64>"},
		metadata.Column{Name: "digest", Type: "binary(32)"},
		metadata.Column{Name: "year", TypeCategory: metadata.CategoryInteger},
	)
}

func TestMessage(t *testing.T) {
	m := metadata.New("t",
		metadata.Column{Name: "id", Type: "int64", Nullable: metadata.Bool(false)},
		metadata.Column{Name: "tags", Type: "list<string>"},
	)

	text, err := parquetconv.Message(m)
	if err != nil {
		t.Fatal(err)
	}

	expected := `message t {
  required int64 id;
  optional group tags (LIST) {
    repeated group list {
      optional binary element (STRING);
    }
  }
}
`
	if text != expected {
		t.Errorf("unexpected message:\n%s\nexpected:\n%s", text, expected)
	}
}

func TestGenerateFromMeta(t *testing.T) {
	sd, err := parquetconv.GenerateFromMeta(testMeta())
	if err != nil {
		t.Fatal(err)
	}

	if sd.RootColumn.SchemaElement.GetName() != "people" {
		t.Errorf("unexpected message name %s", sd.RootColumn.SchemaElement.GetName())
	}
	if len(sd.RootColumn.Children) != 10 {
		t.Fatalf("expected 10 columns, got %d", len(sd.RootColumn.Children))
	}

	cases := []struct {
		column     string
		typ        parquet.Type
		repetition parquet.FieldRepetitionType
	}{
		{"id", parquet.Type_INT64, parquet.FieldRepetitionType_REQUIRED},
		{"name", parquet.Type_BYTE_ARRAY, parquet.FieldRepetitionType_OPTIONAL},
		{"age", parquet.Type_INT32, parquet.FieldRepetitionType_OPTIONAL},
		{"balance", parquet.Type_INT64, parquet.FieldRepetitionType_OPTIONAL},
		{"seen", parquet.Type_INT64, parquet.FieldRepetitionType_OPTIONAL},
		{"digest", parquet.Type_FIXED_LEN_BYTE_ARRAY, parquet.FieldRepetitionType_OPTIONAL},
		{"year", parquet.Type_INT64, parquet.FieldRepetitionType_OPTIONAL},
	}

	for _, c := range cases {
		c := c
		t.Run(c.column, func(t *testing.T) {
			col := sd.SubSchema(c.column)
			if col == nil {
				t.Fatalf("no column %s", c.column)
			}
			el := col.RootColumn.SchemaElement
			if el.GetType() != c.typ {
				t.Errorf("expected type %s, got %s", c.typ, el.GetType())
			}
			if el.GetRepetitionType() != c.repetition {
				t.Errorf("expected repetition %s, got %s", c.repetition, el.GetRepetitionType())
			}
		})
	}

	for _, group := range []string{"tags", "address", "scores"} {
		col := sd.SubSchema(group)
		if col == nil || len(col.RootColumn.Children) == 0 {
			t.Errorf("expected %s to be a group", group)
		}
	}
}

func TestGenerateFromMetaUnsupported(t *testing.T) {
	m := metadata.New("t", metadata.Column{Name: "a", Type: "null"})
	if _, err := parquetconv.GenerateFromMeta(m); !errors.Is(err, converters.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}

	m = metadata.New("t", metadata.Column{Name: "a", TypeCategory: metadata.CategoryList})
	if _, err := parquetconv.GenerateFromMeta(m); !errors.Is(err, converters.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestGenerateFromMetaInvalidNames(t *testing.T) {
	cases := map[string]*metadata.Metadata{
		"table":  metadata.New("my table", metadata.Column{Name: "a", Type: "string"}),
		"column": metadata.New("t", metadata.Column{Name: "first name", Type: "string"}),
		"field":  metadata.New("t", metadata.Column{Name: "a", Type: "struct<b-c:string>"}),
		"digit":  metadata.New("t", metadata.Column{Name: "1st", Type: "string"}),
		"braces": metadata.New("t", metadata.Column{Name: "a}{", Type: "string"}),
	}

	for name, m := range cases {
		m := m
		t.Run(name, func(t *testing.T) {
			_, err := parquetconv.GenerateFromMeta(m)
			if !errors.Is(err, parquetconv.ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}
