package etl_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/go-test/deep"
	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/converters/etl"
	"github.com/pjxcog/mojap-metadata/metadata"
)

func peopleMeta() *metadata.Metadata {
	m := metadata.New("people",
		metadata.Column{Name: "id", Type: "int64", Description: "Identifier", Nullable: metadata.Bool(false)},
		metadata.Column{Name: "name", Type: "string"},
		metadata.Column{Name: "rating", Type: "string", Enum: []interface{}{"good", "bad"}},
		metadata.Column{Name: "balance", Type: "decimal128(10,2)"},
		metadata.Column{Name: "seen", Type: "timestamp(s)"},
		metadata.Column{Name: "tags", Type: "list<string>"},
		metadata.Column{Name: "address", Type: "struct<street:string, postcode:string>"},
		metadata.Column{Name: "year", Type: "int32"},
	)
	m.Description = "People we know"
	m.FileFormat = "parquet"
	m.Partitions = []string{"year"}
	m.PrimaryKey = []string{"id"}
	return m
}

func readFixture(t *testing.T) *etl.Table {
	t.Helper()
	f, err := os.Open("testdata/people.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	table, err := etl.Read(f)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestGenerateToMeta(t *testing.T) {
	m, err := etl.GenerateToMeta(readFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(peopleMeta(), m); diff != nil {
		t.Error(diff)
	}
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
}

func TestGenerateFromMeta(t *testing.T) {
	table, err := etl.GenerateFromMeta(peopleMeta())
	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(readFixture(t), table); diff != nil {
		t.Error(diff)
	}
}

func TestWriteRead(t *testing.T) {
	table, err := etl.GenerateFromMeta(peopleMeta())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := table.Write(&buf); err != nil {
		t.Fatal(err)
	}

	back, err := etl.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(table, back); diff != nil {
		t.Error(diff)
	}
}

func TestTypes(t *testing.T) {
	cases := map[string]string{
		"int8":              "int",
		"uint32":            "long",
		"float16":           "float",
		"large_string":      "character",
		"date32":            "date",
		"timestamp(ms)":     "datetime",
		"large_list<bool>":  "array<boolean>",
		"struct<a:float64>": "struct<a:double>",
	}
	for mojap, expected := range cases {
		got, err := etl.ConvertType(mojap)
		if err != nil {
			t.Errorf("could not convert %s: %v", mojap, err)
			continue
		}
		if got != expected {
			t.Errorf("%s converted to %s, expected %s", mojap, got, expected)
		}
	}

	for _, typ := range []string{"map_<string, int64>", "time32(s)", "null"} {
		if _, err := etl.ConvertType(typ); !errors.Is(err, converters.ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType for %s, got %v", typ, err)
		}
	}

	for _, typ := range []string{"decimal", "decimal(10)", "int(3)", "varchar", "array<int,int>", "map<int,int>"} {
		if _, err := etl.ReverseType(typ); err == nil {
			t.Errorf("expected an error reversing %s", typ)
		}
	}
}

func TestGenerateFromMetaCategory(t *testing.T) {
	m := metadata.New("t", metadata.Column{Name: "a", TypeCategory: metadata.CategoryFloat})
	table, err := etl.GenerateFromMeta(m)
	if err != nil {
		t.Fatal(err)
	}
	if table.Columns[0].Type != "double" {
		t.Errorf("expected double, got %s", table.Columns[0].Type)
	}
}
