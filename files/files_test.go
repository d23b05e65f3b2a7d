package files_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/pjxcog/mojap-metadata/files"
	"github.com/pjxcog/mojap-metadata/metadata"
)

func TestReadMetadata(t *testing.T) {
	m, err := files.ReadMetadata("testdata/tables/people.yaml")
	if err != nil {
		t.Fatal(err)
	}

	expected := metadata.New("people",
		metadata.Column{Name: "id", Type: "int64", Nullable: metadata.Bool(false)},
		metadata.Column{Name: "name", Type: "string"},
	)
	expected.FileFormat = "parquet"

	if diff := deep.Equal(expected, m); diff != nil {
		t.Error(diff)
	}
}

func TestReadMetadataErrors(t *testing.T) {
	for _, path := range []string{"testdata/tables/hr/notes.txt", "testdata/missing.json"} {
		if _, err := files.ReadMetadata(path); err == nil {
			t.Errorf("expected an error reading %s", path)
		}
	}
}

func TestWriteMetadataRoundTrip(t *testing.T) {
	m, err := files.ReadMetadata("testdata/tables/hr/staff.json")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	for _, name := range []string{"staff.json", "staff.yaml", "staff.yml"} {
		path := filepath.Join(dir, name)
		if err := files.WriteMetadata(path, m); err != nil {
			t.Fatal(err)
		}

		back, err := files.ReadMetadata(path)
		if err != nil {
			t.Fatal(err)
		}
		if diff := deep.Equal(m, back); diff != nil {
			t.Errorf("%s: %v", name, diff)
		}
	}

	// Overwriting must work too
	m.Description = "Staff"
	path := filepath.Join(dir, "staff.json")
	if err := files.WriteMetadata(path, m); err != nil {
		t.Fatal(err)
	}
	back, err := files.ReadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Description != "Staff" {
		t.Errorf("file was not replaced")
	}

	assertNoTempFiles(t, dir, 3)
}

func TestWriteMetadataBadExtension(t *testing.T) {
	if err := files.WriteMetadata(filepath.Join(t.TempDir(), "m.txt"), metadata.New("m")); err == nil {
		t.Errorf("expected an error writing to a .txt file")
	}
}

func TestAtomicWriteRollback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.sql")

	w, err := files.AtomicWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("CREATE TABLE")); err != nil {
		t.Fatal(err)
	}
	if err := w.Rollback(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("close after rollback should do nothing, got %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("rolled back write should not create %s", path)
	}
	assertNoTempFiles(t, dir, 0)
}

func assertNoTempFiles(t *testing.T, dir string, expected int) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != expected {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected %d files, found %v", expected, names)
	}
}
