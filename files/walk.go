package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

const (
	dontGoDeeper = true
	goDeeper     = false
)

// IsMetadataFile determines whether a file name looks like a metadata file:
// a visible file with a json or yaml extension
func IsMetadataFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, err := metadata.EncodingFor(base)
	return err == nil
}

// Walk invokes f on every metadata file found at or beneath the given paths.
// Files named explicitly are always visited, while hidden files and
// directories found during the walk are skipped.
func Walk(paths []string, f func(path string) error) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrapf(err, "error walking %s", path)
		}

		if !info.IsDir() {
			if err := f(path); err != nil {
				return err
			}
			continue
		}

		root := filepath.Clean(path)
		err = fsWalk(root, func(ospath string, e *godirwalk.Dirent) (bool, error) {
			hidden := ospath != root && strings.HasPrefix(e.Name(), ".")

			if e.IsDir() {
				return hidden, nil
			}
			if hidden || !IsMetadataFile(ospath) {
				return dontGoDeeper, nil
			}
			return dontGoDeeper, f(ospath)
		})
		if err != nil {
			return errors.Wrapf(err, "error walking %s", path)
		}
	}
	return nil
}

type skip struct {
	action godirwalk.ErrorAction
}

func (skip) Error() string {
	return "node is skipped"
}

// Callback to be invoked each time a fs entry is encountered.
// Returns a Boolean indicating whether the current fs entry should be a
// considered a terminal (leaf) node.  If true, any children will not be
// walked.  Any error will terminate a walk entirely.
type fsCallback func(ospath string, e *godirwalk.Dirent) (terminal bool, err error)

func fsWalk(dir string, f fsCallback) error {
	var failure error

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(ospath string, dirent *godirwalk.Dirent) error {
			terminal, err := f(ospath, dirent)
			if err != nil {
				failure = err
				return err
			}
			if terminal && dirent.IsDir() {
				return skip{godirwalk.SkipNode}
			}
			return nil
		},
		ErrorCallback: func(ospath string, err error) godirwalk.ErrorAction {
			s, skip := errors.Cause(err).(skip)
			if skip {
				return s.action
			}

			return godirwalk.Halt
		},
		FollowSymbolicLinks: true,
	})

	// Errors from f are reported as they were returned, not as godirwalk wraps them
	if failure != nil {
		return failure
	}
	return err
}
