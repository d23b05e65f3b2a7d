package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/internal/config"
)

// useSettings replaces the global settings for the duration of a test
func useSettings(t *testing.T, cfg config.Config) {
	t.Helper()
	old := settings
	settings = cfg
	t.Cleanup(func() { settings = old })
}

// sqliteSettings creates a sqlite database file with a couple of tables, and
// configures the tool to use it
func sqliteSettings(t *testing.T) config.Config {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE people (id BIGINT NOT NULL PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orders (order_id INT NOT NULL, amount DECIMAL(10,2))`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("could not execute %s: %v", stmt, err)
		}
	}

	cfg := config.Default()
	cfg.Database.Dialect = "sqlite"
	cfg.Database.DSN = dsn
	useSettings(t, cfg)
	return cfg
}

func TestSetupFlagsOverrideConfig(t *testing.T) {
	useSettings(t, config.Default())
	old := mainOpts
	defer func() { mainOpts = old }()

	mainOpts.config = "../../internal/config/testdata/full.yaml"
	mainOpts.dialect = "postgres"
	mainOpts.dsn = "postgres://elsewhere/db"

	if err := setup(); err != nil {
		t.Fatal(err)
	}

	if settings.Database.Dialect != "postgres" || settings.Database.DSN != "postgres://elsewhere/db" {
		t.Errorf("flags did not override config: %+v", settings.Database)
	}
	if settings.Glue.Database != "analytics" {
		t.Errorf("config file values should be kept, got %+v", settings.Glue)
	}
}

func TestSetupInvalid(t *testing.T) {
	useSettings(t, config.Default())
	old := mainOpts
	defer func() { mainOpts = old }()

	mainOpts.dialect = "db2"
	if err := setup(); err == nil {
		t.Error("expected an unknown dialect to be rejected")
	}
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	failed, err := validateFiles(&out, []string{"testdata/people.json", "testdata/broken.yaml", "testdata/missing.json"})
	if err != nil {
		t.Fatal(err)
	}
	if failed != 2 {
		t.Errorf("expected 2 failures, got %d", failed)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "ok       testdata/people.json") {
		t.Errorf("unexpected report %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "invalid  testdata/broken.yaml") {
		t.Errorf("unexpected report %q", lines[1])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "error    testdata/missing.json") {
		t.Errorf("unexpected report %q", lines[len(lines)-1])
	}

	// Both problems with broken.yaml are listed
	if len(lines) != 5 {
		t.Errorf("expected 5 report lines, got %d:\n%s", len(lines), out.String())
	}
}

func TestValidateActionFails(t *testing.T) {
	var out bytes.Buffer
	if err := validateAction(&out, []string{"testdata/people.json"}); err != nil {
		t.Errorf("valid file should pass: %v", err)
	}
	if err := validateAction(&out, []string{"testdata"}); err == nil {
		t.Error("a directory with an invalid file should fail")
	}
}

func TestConvert(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Dialect = "sqlite"
	cfg.Glue.Database = "analytics"
	cfg.Glue.Location = "s3://bucket/data/"
	useSettings(t, cfg)

	cases := map[string][]string{
		"metadata": {`"name": "people"`, `"type": "int64"`},
		"arrow":    {"fields: 3", "id: type=int64"},
		"glue":     {`"StorageDescriptor"`, `"s3://bucket/data/people/"`, `"bigint"`},
		"etl":      {`"data_format": "parquet"`, `"type": "long"`},
		"parquet":  {"message people", "id;"},
		"ddl":      {`CREATE TABLE "people"`, `"id" BIGINT NOT NULL`, `PRIMARY KEY ("id")`},
	}

	for format, expected := range cases {
		format, expected := format, expected
		t.Run(format, func(t *testing.T) {
			convertOpts.to = format
			convertOpts.from = "metadata"
			defer func() { convertOpts.to = "" }()

			var out bytes.Buffer
			if err := convertAction(&out, []string{"testdata/people.json"}); err != nil {
				t.Fatal(err)
			}
			for _, s := range expected {
				if !strings.Contains(out.String(), s) {
					t.Errorf("%s output does not contain %s:\n%s", format, s, out.String())
				}
			}
		})
	}
}

func TestConvertFromETLToFile(t *testing.T) {
	useSettings(t, config.Default())

	convertOpts.from = "etl"
	convertOpts.to = "metadata"
	convertOpts.out = filepath.Join(t.TempDir(), "people.yaml")
	defer func() {
		convertOpts.from = "metadata"
		convertOpts.to = ""
		convertOpts.out = ""
	}()

	if err := convertAction(&bytes.Buffer{}, []string{"testdata/people_etl.json"}); err != nil {
		t.Fatal(err)
	}

	m, err := files.ReadMetadata(convertOpts.out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal([]string{"id", "salary"}, m.ColumnNames()); diff != nil {
		t.Error(diff)
	}
	salary, _ := m.Column("salary")
	if salary.Type != "decimal128(10,2)" {
		t.Errorf("expected decimal128(10,2), got %s", salary.Type)
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	useSettings(t, config.Default())
	convertOpts.to = "csv"
	defer func() { convertOpts.to = "" }()

	if err := convertAction(&bytes.Buffer{}, []string{"testdata/people.json"}); err == nil {
		t.Error("expected an unknown format to be rejected")
	}
}

func TestGenerate(t *testing.T) {
	sqliteSettings(t)
	dir := t.TempDir()

	generateOpts.out = dir
	defer func() { generateOpts.out = "" }()

	var out bytes.Buffer
	if err := generateAction(context.Background(), &out, nil); err != nil {
		t.Fatal(err)
	}

	expected := []string{
		filepath.Join(dir, "main", "orders.json"),
		filepath.Join(dir, "main", "people.json"),
	}
	if diff := deep.Equal(expected, strings.Fields(out.String())); diff != nil {
		t.Error(diff)
	}

	m, err := files.ReadMetadata(expected[1])
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal([]string{"id"}, m.PrimaryKey); diff != nil {
		t.Error(diff)
	}
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
}

func TestGenerateFlatDDL(t *testing.T) {
	sqliteSettings(t)
	dir := t.TempDir()

	generateOpts.out = dir
	generateOpts.layout = config.LayoutFlat
	generateOpts.format = "ddl"
	defer func() { generateOpts.out, generateOpts.layout, generateOpts.format = "", "", "" }()

	if err := generateAction(context.Background(), &bytes.Buffer{}, []string{"main"}); err != nil {
		t.Fatal(err)
	}

	ddl, err := os.ReadFile(filepath.Join(dir, "main.people.sql"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(ddl), `CREATE TABLE "main"."people"`) {
		t.Errorf("unexpected ddl:\n%s", ddl)
	}
}

func TestGenerateEscapesNames(t *testing.T) {
	cfg := sqliteSettings(t)

	db, err := sql.Open("sqlite", cfg.Database.DSN)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE "x/../../pwn" (a INT)`,
		`CREATE TABLE "people.json" (a INT)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("could not execute %s: %v", stmt, err)
		}
	}
	db.Close()

	for _, layout := range []string{config.LayoutFlat, config.LayoutSchema} {
		layout := layout
		t.Run(layout, func(t *testing.T) {
			dir := t.TempDir()
			generateOpts.out = dir
			generateOpts.layout = layout
			defer func() { generateOpts.out, generateOpts.layout = "", "" }()

			var out bytes.Buffer
			if err := generateAction(context.Background(), &out, nil); err != nil {
				t.Fatal(err)
			}

			written := strings.Fields(out.String())
			if len(written) != 4 {
				t.Fatalf("expected 4 files, got %v", written)
			}
			seen := map[string]bool{}
			for _, path := range written {
				rel, err := filepath.Rel(dir, path)
				if err != nil || !filepath.IsLocal(rel) {
					t.Errorf("%s was written outside %s", path, dir)
				}
				if seen[path] {
					t.Errorf("%s was written twice", path)
				}
				seen[path] = true
				if _, err := os.Stat(path); err != nil {
					t.Error(err)
				}
			}
		})
	}

	expected := filepath.Join("main", "x%2F%2E%2E%2F%2E%2E%2Fpwn.json")
	dir := t.TempDir()
	generateOpts.out = dir
	defer func() { generateOpts.out = "" }()
	if err := generateAction(context.Background(), &bytes.Buffer{}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, expected)); err != nil {
		t.Error(err)
	}
}

func TestLs(t *testing.T) {
	sqliteSettings(t)

	cases := []struct {
		name     string
		typ      string
		args     []string
		expected []string
	}{
		{
			name:     "tables",
			typ:      "table",
			expected: []string{"main    orders", "main    people"},
		},
		{
			name:     "table columns",
			args:     []string{"main.people"},
			expected: []string{"main    people", "main    people    id", "main    people    name"},
		},
		{
			name:     "column",
			typ:      "column",
			args:     []string{"main", "orders.amount"},
			expected: []string{"main    orders    amount"},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			lsOpts.mojaptype = c.typ
			defer func() { lsOpts.mojaptype = "" }()

			var out bytes.Buffer
			if err := lsAction(context.Background(), &out, c.args); err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if diff := deep.Equal(c.expected, lines); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestLsNoDatabase(t *testing.T) {
	useSettings(t, config.Default())
	if err := lsAction(context.Background(), &bytes.Buffer{}, nil); err == nil {
		t.Error("expected an error without a connection string")
	}
}
