package files_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/pjxcog/mojap-metadata/files"
)

func TestWalk(t *testing.T) {
	var found []string
	err := files.Walk([]string{"testdata/tables"}, func(path string) error {
		found = append(found, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"testdata/tables/hr/broken.yml",
		"testdata/tables/hr/staff.json",
		"testdata/tables/people.yaml",
	}
	if diff := deep.Equal(expected, found); diff != nil {
		t.Error(diff)
	}
}

func TestWalkExplicitFiles(t *testing.T) {
	var found []string
	paths := []string{"testdata/tables/.draft.json", "testdata/tables/hr"}
	err := files.Walk(paths, func(path string) error {
		found = append(found, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"testdata/tables/.draft.json",
		"testdata/tables/hr/broken.yml",
		"testdata/tables/hr/staff.json",
	}
	if diff := deep.Equal(expected, found); diff != nil {
		t.Error(diff)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	stop := errors.New("stop")

	visits := 0
	err := files.Walk([]string{"testdata/tables"}, func(path string) error {
		visits++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected the callback's error, got %v", err)
	}
	if visits != 1 {
		t.Errorf("expected the walk to stop after the first file, visited %d", visits)
	}
}

func TestWalkMissing(t *testing.T) {
	if err := files.Walk([]string{"testdata/nope"}, func(string) error { return nil }); err == nil {
		t.Errorf("expected an error walking a missing directory")
	}
}

func TestIsMetadataFile(t *testing.T) {
	cases := map[string]bool{
		"a.json":      true,
		"dir/a.YAML":  true,
		"a.yml":       true,
		".a.json":     false,
		"a.txt":       false,
		"dir/.a.yaml": false,
		"json":        false,
	}
	for name, expected := range cases {
		if files.IsMetadataFile(name) != expected {
			t.Errorf("IsMetadataFile(%s) should be %v", name, expected)
		}
	}
}
